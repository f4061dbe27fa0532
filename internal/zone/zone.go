// Package zone partitions the serviced floor range across the active car
// fleet and computes each car's idle parking station, generalizing the
// teacher's single fixed-range elevator pool into a mode-aware, per-car
// partition.
package zone

import (
	"math"
	"sort"

	"github.com/slavakukuyev/dispatch-engine/internal/domain"
)

// Zone is the inclusive floor range a car is responsible for serving.
type Zone struct {
	Low  domain.Floor
	High domain.Floor
}

// Contains reports whether floor lies within the zone, inclusive.
func (z Zone) Contains(floor domain.Floor) bool {
	return floor.Value() >= z.Low.Value() && floor.Value() <= z.High.Value()
}

// Plan is the output of partitioning the building for one tick: a zone and
// an idle station per car id.
type Plan struct {
	Zones        map[string]Zone
	IdleStations map[string]domain.Floor
}

// ZoneOf returns the car's assigned zone, or the whole building range if the
// car is unknown to the plan (defensive fallback, never expected in normal
// operation).
func (p *Plan) ZoneOf(carID string, base, top domain.Floor) Zone {
	if z, ok := p.Zones[carID]; ok {
		return z
	}
	return Zone{Low: base, High: top}
}

// Build partitions [base, top] across carIDs according to mode, and computes
// idle parking stations. carIDs need not be pre-sorted; Build sorts a copy.
func Build(carIDs []string, base, top domain.Floor, mode domain.Mode) *Plan {
	ids := make([]string, len(carIDs))
	copy(ids, carIDs)
	sort.Strings(ids)

	n := len(ids)
	plan := &Plan{
		Zones:        make(map[string]Zone, n),
		IdleStations: make(map[string]domain.Floor, n),
	}
	if n == 0 {
		return plan
	}

	span := top.Value() - base.Value() + 1
	chunk := int(math.Ceil(float64(span) / float64(n)))
	if chunk < 1 {
		chunk = 1
	}

	for i, id := range ids {
		plan.Zones[id] = zoneForIndex(i, base, top, chunk, mode)
		plan.IdleStations[id] = idleStation(i, n, base, top)
	}
	return plan
}

func zoneForIndex(i int, base, top domain.Floor, chunk int, mode domain.Mode) Zone {
	if mode == domain.ModeDownPeak {
		high := top.Value() - i*chunk
		low := high - chunk + 1
		if low < base.Value() {
			low = base.Value()
		}
		if high < base.Value() {
			high = base.Value()
		}
		if high > top.Value() {
			high = top.Value()
		}
		return Zone{Low: domain.NewFloor(low), High: domain.NewFloor(high)}
	}

	low := base.Value() + i*chunk
	high := base.Value() + (i+1)*chunk - 1
	if high > top.Value() {
		high = top.Value()
	}
	if low > high {
		low = high
	}
	return Zone{Low: domain.NewFloor(low), High: domain.NewFloor(high)}
}

// idleStation computes the parking floor for the car at sorted order-index i
// out of n cars, spreading stations evenly across [base, top].
func idleStation(i, n int, base, top domain.Floor) domain.Floor {
	if n == 1 {
		return base
	}
	frac := float64(i) / float64(n-1)
	v := int(math.Round(float64(base.Value()) + frac*float64(top.Value()-base.Value())))
	if v < base.Value() {
		v = base.Value()
	}
	if v > top.Value() {
		v = top.Value()
	}
	return domain.NewFloor(v)
}

// HeavyCarsEligible reports whether the cars in heavyCars should activate,
// given the total outstanding request count and the combined max_capacity of
// every non-heavy car.
func HeavyCarsEligible(outstandingRequests int, nonHeavyCapacity int, activationRatio float64) bool {
	if nonHeavyCapacity <= 0 {
		return outstandingRequests > 0
	}
	return float64(outstandingRequests) >= activationRatio*float64(nonHeavyCapacity)
}
