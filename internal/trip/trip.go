// Package trip models one car's committed travel plan: an ordered list of
// stops, the reservations backing them, and the Trip Planner that builds
// plans from outstanding requests. A Trip tracks reservation bookkeeping
// and the corridor it was planned for; AddStop does not check stops against
// the corridor, so in-car drop-offs outside it are kept.
package trip

import (
	"sort"

	"github.com/slavakukuyev/dispatch-engine/internal/domain"
)

// Trip is one car's active travel plan.
type Trip struct {
	Direction   domain.Direction
	CorridorLow domain.Floor
	CorridorHigh domain.Floor

	stops       []int
	currentStop *int

	reservedPickups     map[int]int
	reservedPassengers  map[string]struct{}
}

// New creates an empty Trip bound to direction and corridor.
func New(direction domain.Direction, low, high domain.Floor) *Trip {
	return &Trip{
		Direction:          direction,
		CorridorLow:        low,
		CorridorHigh:       high,
		reservedPickups:    make(map[int]int),
		reservedPassengers: make(map[string]struct{}),
	}
}

// CurrentStop returns the floor the car is currently committed to, if any.
func (t *Trip) CurrentStop() (domain.Floor, bool) {
	if t.currentStop == nil {
		return domain.Floor(0), false
	}
	return domain.NewFloor(*t.currentStop), true
}

// Stops returns a copy of the pending stop sequence, not including
// CurrentStop.
func (t *Trip) Stops() []domain.Floor {
	out := make([]domain.Floor, len(t.stops))
	for i, f := range t.stops {
		out[i] = domain.NewFloor(f)
	}
	return out
}

// HasWork reports whether the trip still has a current stop or pending
// stops.
func (t *Trip) HasWork() bool {
	return t.currentStop != nil || len(t.stops) > 0
}

// ReservedPassengerCount returns the number of distinct passengers reserved
// on this trip.
func (t *Trip) ReservedPassengerCount() int {
	return len(t.reservedPassengers)
}

// TotalReservedBoarding sums reserved_pickups across every floor, used to
// compute remaining reservable capacity.
func (t *Trip) TotalReservedBoarding() int {
	total := 0
	for _, v := range t.reservedPickups {
		total += v
	}
	return total
}

// IsReserved reports whether passengerID already holds a reservation on this
// trip.
func (t *Trip) IsReserved(passengerID string) bool {
	_, ok := t.reservedPassengers[passengerID]
	return ok
}

// ReservationsBalanced reports whether the sum of reserved_pickups equals
// the count of reserved passengers.
func (t *Trip) ReservationsBalanced() bool {
	return t.TotalReservedBoarding() == len(t.reservedPassengers)
}

// Reserve records passengerID as boarding at origin, incrementing
// reserved_pickups[origin] and adding the passenger to reserved_passengers.
// Both updates happen together so the balance invariant never transiently
// breaks between them.
func (t *Trip) Reserve(passengerID string, origin domain.Floor) {
	t.reservedPickups[origin.Value()]++
	t.reservedPassengers[passengerID] = struct{}{}
}

// ReleasePassenger drops passengerID's reservation, if any, decrementing the
// corresponding reserved_pickups counter.
func (t *Trip) ReleasePassenger(passengerID string, origin domain.Floor) {
	if _, ok := t.reservedPassengers[passengerID]; !ok {
		return
	}
	delete(t.reservedPassengers, passengerID)
	if n := t.reservedPickups[origin.Value()]; n > 1 {
		t.reservedPickups[origin.Value()] = n - 1
	} else {
		delete(t.reservedPickups, origin.Value())
	}
}

// AddStop inserts floor into the stop sequence, preserving the monotonic
// ordering required by Direction (ascending for UP, descending for DOWN).
// Duplicates of an existing stop, or of the current stop, are no-ops (L2).
func (t *Trip) AddStop(floor domain.Floor) {
	f := floor.Value()
	if t.currentStop != nil && *t.currentStop == f {
		return
	}
	for _, existing := range t.stops {
		if existing == f {
			return
		}
	}

	idx := len(t.stops)
	if t.Direction == domain.DirectionUp {
		idx = sort.Search(len(t.stops), func(i int) bool { return t.stops[i] > f })
	} else if t.Direction == domain.DirectionDown {
		idx = sort.Search(len(t.stops), func(i int) bool { return t.stops[i] < f })
	}
	t.stops = append(t.stops, 0)
	copy(t.stops[idx+1:], t.stops[idx:])
	t.stops[idx] = f
}

// AddStopToFront inserts floor at the head of the stop sequence, bypassing
// the monotonic ordering rule. If floor equals the current stop it is a
// no-op; any existing occurrence in stops is removed before the reinsert so
// the floor appears exactly once.
func (t *Trip) AddStopToFront(floor domain.Floor) {
	f := floor.Value()
	if t.currentStop != nil && *t.currentStop == f {
		return
	}
	filtered := t.stops[:0:0]
	for _, existing := range t.stops {
		if existing != f {
			filtered = append(filtered, existing)
		}
	}
	t.stops = append([]int{f}, filtered...)
}

// PopNext returns the next floor the car should travel to: the current
// stop if one is already set, otherwise the head of stops is promoted to
// current stop. Returns false if there is no work.
func (t *Trip) PopNext() (domain.Floor, bool) {
	if t.currentStop != nil {
		return domain.NewFloor(*t.currentStop), true
	}
	if len(t.stops) == 0 {
		return domain.Floor(0), false
	}
	head := t.stops[0]
	t.stops = t.stops[1:]
	t.currentStop = &head
	return domain.NewFloor(head), true
}

// ReplaceCurrentStop preserves the prior current stop by reinserting it at
// the head of stops (if one was set and differs from floor), then commits
// floor as the new current stop.
func (t *Trip) ReplaceCurrentStop(floor domain.Floor) {
	if t.currentStop != nil && *t.currentStop != floor.Value() {
		prior := *t.currentStop
		t.stops = append([]int{prior}, t.stops...)
	}
	f := floor.Value()
	t.currentStop = &f
}

// MarkStopCompleted reconciles a stop arrival: if floor matches the current
// stop, it is cleared; otherwise any occurrence in stops is removed (L3).
func (t *Trip) MarkStopCompleted(floor domain.Floor) {
	f := floor.Value()
	if t.currentStop != nil && *t.currentStop == f {
		t.currentStop = nil
		return
	}
	filtered := t.stops[:0:0]
	for _, existing := range t.stops {
		if existing != f {
			filtered = append(filtered, existing)
		}
	}
	t.stops = filtered
}

// Contains reports whether floor is the current stop or appears in stops.
func (t *Trip) Contains(floor domain.Floor) bool {
	f := floor.Value()
	if t.currentStop != nil && *t.currentStop == f {
		return true
	}
	for _, existing := range t.stops {
		if existing == f {
			return true
		}
	}
	return false
}

// InCorridor reports whether floor lies within [CorridorLow, CorridorHigh].
func (t *Trip) InCorridor(floor domain.Floor) bool {
	return floor.Value() >= t.CorridorLow.Value() && floor.Value() <= t.CorridorHigh.Value()
}
