package domain

// Request is a single passenger call, tracked by the Request Registry from
// the tick it arrives until the tick the passenger boards.
//
// Invariant: Direction == DirectionOf(Origin, Destination). AssignedTick is
// set if and only if AssignedCar is non-empty.
type Request struct {
	PassengerID string
	Origin      Floor
	Destination Floor
	Direction   Direction
	ArriveTick  int64

	AssignedCar  string
	AssignedTick int64
}

// IsAssigned reports whether the request currently has a car pinned to it.
func (r *Request) IsAssigned() bool {
	return r.AssignedCar != ""
}

// NewRequest constructs a Request, deriving Direction from Origin/Destination
// so the invariant can never be violated by a caller passing a stale value.
func NewRequest(passengerID string, origin, destination Floor, arriveTick int64) *Request {
	return &Request{
		PassengerID: passengerID,
		Origin:      origin,
		Destination: destination,
		Direction:   DirectionOf(origin, destination),
		ArriveTick:  arriveTick,
	}
}
