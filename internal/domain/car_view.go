package domain

// RunStatus is the physical run state of a car as reported by the simulator.
type RunStatus string

const (
	RunStatusStopped RunStatus = "stopped"
	RunStatusMoving  RunStatus = "moving"
)

// CarView is the read-only snapshot of a car's physical state as reported by
// the simulator. The engine never mutates it; it is consumed fresh every
// tick from SimulationState.
type CarView struct {
	ID                   string
	CurrentFloor         Floor
	RunStatus            RunStatus
	Passengers           []string
	PassengerDestination map[string]Floor
	MaxCapacity          int
	ServedFloors         map[int]struct{}
}

// IsStopped reports whether the car is currently not moving between floors.
func (c CarView) IsStopped() bool {
	return c.RunStatus == RunStatusStopped
}

// PassengerDestinations returns the unique set of in-car drop-off floors.
func (c CarView) PassengerDestinations() []Floor {
	seen := make(map[int]struct{}, len(c.Passengers))
	out := make([]Floor, 0, len(c.Passengers))
	for _, p := range c.Passengers {
		dest, ok := c.PassengerDestination[p]
		if !ok {
			continue
		}
		if _, dup := seen[dest.Value()]; dup {
			continue
		}
		seen[dest.Value()] = struct{}{}
		out = append(out, dest)
	}
	return out
}

// ServesFloor reports whether the car is permitted to stop at floor. An
// empty ServedFloors set means no restriction; a non-empty set acts as a
// whitelist.
func (c CarView) ServesFloor(floor Floor) bool {
	if len(c.ServedFloors) == 0 {
		return true
	}
	_, ok := c.ServedFloors[floor.Value()]
	return ok
}
