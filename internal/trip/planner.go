package trip

import (
	"sort"

	"github.com/slavakukuyev/dispatch-engine/internal/domain"
	"github.com/slavakukuyev/dispatch-engine/internal/registry"
	"github.com/slavakukuyev/dispatch-engine/internal/telemetry"
	"github.com/slavakukuyev/dispatch-engine/internal/zone"
)

// Planner builds Trips for idle or freshly-stopped cars from the registry's
// outstanding requests: a capacity-aware, mode-driven selection pass.
type Planner struct {
	Registry         *registry.Registry
	TargetLoadFactor float64
}

// NewPlanner constructs a Planner bound to reg with the given target load
// factor (fraction of max_capacity a Trip plans to fill).
func NewPlanner(reg *registry.Registry, targetLoadFactor float64) *Planner {
	return &Planner{Registry: reg, TargetLoadFactor: targetLoadFactor}
}

// CarLookup adapts a car-id→CarView resolver into the registry.CarLookup
// interface needed by EnsureAssignmentValid, tracking effective_load and
// stopped-empty state off of live CarView + pendingCount data.
type CarLookup struct {
	Cars     map[string]domain.CarView
	Registry *registry.Registry
}

func (c CarLookup) EffectiveLoad(carID string) int {
	view, ok := c.Cars[carID]
	if !ok {
		return 0
	}
	return c.Registry.PendingCount(carID) + len(view.Passengers)
}

func (c CarLookup) IsStoppedEmpty(carID string) bool {
	view, ok := c.Cars[carID]
	if !ok {
		return false
	}
	return view.IsStopped() && len(view.Passengers) == 0
}

func (c CarLookup) Exists(carID string) bool {
	_, ok := c.Cars[carID]
	return ok
}

// PlanTrip builds a Trip for car, or returns (nil, false) if no eligible
// drop-offs or pickups exist. mode, z and baseFloor drive direction
// inference and request selection; lookup supplies stale-reclaim state for
// every other car sharing the registry.
func (p *Planner) PlanTrip(car domain.CarView, mode domain.Mode, z zone.Zone, baseFloor domain.Floor, nowTick int64, lookup CarLookup) (*Trip, bool) {
	drops := car.PassengerDestinations()

	direction := inferDirection(car, drops, mode, z, p.Registry.All())
	t := New(direction, z.Low, z.High)

	for _, d := range drops {
		t.AddStop(d)
	}

	remaining := int(ceilDiv(float64(car.MaxCapacity)*p.TargetLoadFactor)) - len(car.Passengers)
	if remaining < 0 {
		remaining = 0
	}
	effectiveCapacity := car.MaxCapacity - len(car.Passengers) - t.TotalReservedBoarding()
	if effectiveCapacity < remaining {
		remaining = effectiveCapacity
	}
	if remaining < 0 {
		remaining = 0
	}

	candidates := p.eligibleRequests(car, direction, z, nowTick, lookup)
	candidates = selectForMode(candidates, mode, car, baseFloor, z)

	for _, req := range candidates {
		if remaining <= 0 {
			break
		}
		p.Registry.Assign(req, car.ID, nowTick)
		t.Reserve(req.PassengerID, req.Origin)
		t.AddStop(req.Origin)
		t.AddStop(req.Destination)
		remaining--
	}

	if !t.HasWork() {
		return nil, false
	}
	telemetry.TripPlanned(car.ID)
	return t, true
}

// eligibleRequests returns every outstanding request that may ride this car:
// unassigned or assigned to this car after stale-reclaim, matching
// direction, with origin/destination inside both the zone and the car's
// served-floor whitelist.
func (p *Planner) eligibleRequests(car domain.CarView, direction domain.Direction, z zone.Zone, nowTick int64, lookup CarLookup) []*domain.Request {
	var out []*domain.Request
	for _, req := range p.Registry.All() {
		if req.Direction != direction {
			continue
		}
		assignee := p.Registry.EnsureAssignmentValid(req, nowTick, lookup)
		if assignee != "" && assignee != car.ID {
			continue
		}
		if !z.Contains(req.Origin) || !z.Contains(req.Destination) {
			continue
		}
		if !car.ServesFloor(req.Origin) || !car.ServesFloor(req.Destination) {
			continue
		}
		out = append(out, req)
	}
	return out
}

// inferDirection derives a Trip's direction: from in-car drop-offs first,
// then the mode hint, then a balanced in-zone UP-vs-DOWN tally for
// INTERFLOOR with no drop-offs (UP wins ties; if both counts are zero,
// direction follows the car's position relative to its zone's low floor).
func inferDirection(car domain.CarView, drops []domain.Floor, mode domain.Mode, z zone.Zone, allRequests []*domain.Request) domain.Direction {
	if len(drops) > 0 {
		maxDrop := drops[0]
		for _, d := range drops[1:] {
			if d.IsAbove(maxDrop) {
				maxDrop = d
			}
		}
		if maxDrop.IsAbove(car.CurrentFloor) {
			return domain.DirectionUp
		}
		return domain.DirectionDown
	}

	if hint, ok := mode.DirectionHint(); ok {
		return hint
	}

	upCount, downCount := 0, 0
	for _, req := range allRequests {
		if !z.Contains(req.Origin) {
			continue
		}
		switch req.Direction {
		case domain.DirectionUp:
			upCount++
		case domain.DirectionDown:
			downCount++
		}
	}
	if upCount >= downCount && upCount > 0 {
		return domain.DirectionUp
	}
	if downCount > upCount {
		return domain.DirectionDown
	}

	if car.CurrentFloor.Value() <= z.Low.Value() {
		return domain.DirectionUp
	}
	return domain.DirectionDown
}

// selectForMode orders and restricts candidates per the mode-specific
// selection and tie-break rules.
func selectForMode(candidates []*domain.Request, mode domain.Mode, car domain.CarView, baseFloor domain.Floor, z zone.Zone) []*domain.Request {
	switch mode {
	case domain.ModeUpPeak:
		var lobby, rest []*domain.Request
		for _, r := range candidates {
			if r.Origin.IsEqual(baseFloor) {
				lobby = append(lobby, r)
			} else {
				rest = append(rest, r)
			}
		}
		sortByArriveThenOrigin(lobby)
		sortByArriveThenOrigin(rest)
		return append(lobby, rest...)

	case domain.ModeDownPeak:
		sorted := append([]*domain.Request(nil), candidates...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Origin.Value() != sorted[j].Origin.Value() {
				return sorted[i].Origin.Value() > sorted[j].Origin.Value()
			}
			return sorted[i].ArriveTick < sorted[j].ArriveTick
		})
		return sorted

	default: // INTERFLOOR balanced
		sorted := append([]*domain.Request(nil), candidates...)
		sort.SliceStable(sorted, func(i, j int) bool {
			di := absInt(sorted[i].Origin.Value() - car.CurrentFloor.Value())
			dj := absInt(sorted[j].Origin.Value() - car.CurrentFloor.Value())
			if di != dj {
				return di < dj
			}
			return sorted[i].ArriveTick < sorted[j].ArriveTick
		})
		return sorted
	}
}

func sortByArriveThenOrigin(reqs []*domain.Request) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].ArriveTick != reqs[j].ArriveTick {
			return reqs[i].ArriveTick < reqs[j].ArriveTick
		}
		return reqs[i].Origin.Value() < reqs[j].Origin.Value()
	})
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func ceilDiv(v float64) float64 {
	i := int(v)
	if float64(i) < v {
		return float64(i + 1)
	}
	return v
}
