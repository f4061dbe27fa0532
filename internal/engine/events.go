package engine

import (
	"context"
	"log/slog"

	"github.com/slavakukuyev/dispatch-engine/internal/dispatch"
	"github.com/slavakukuyev/dispatch-engine/internal/simclient"
	"github.com/slavakukuyev/dispatch-engine/internal/snapshot"
	"github.com/slavakukuyev/dispatch-engine/internal/telemetry"
	"github.com/slavakukuyev/dispatch-engine/internal/trip"
	"github.com/slavakukuyev/dispatch-engine/internal/zone"
)

// handleEvent dispatches a single tick event to its handler via a type
// switch on Kind, the "tagged variant matched in one loop" shape.
func (e *Engine) handleEvent(ctx context.Context, ev simclient.Event) {
	switch ev.Kind {
	case simclient.EventPassengerCall:
		e.onPassengerCall(ctx, ev)
	case simclient.EventElevatorIdle:
		e.onElevatorIdle(ctx, ev)
	case simclient.EventElevatorStopped:
		e.onElevatorStopped(ctx, ev)
	case simclient.EventPassengerBoard:
		e.onPassengerBoard(ctx, ev)
	case simclient.EventPassengerAlight:
		// the destination stop for this passenger was already seeded into
		// the trip from CarView.PassengerDestinations while they were
		// aboard, so registry demand is unaffected; refresh anyway for
		// literal fidelity with every call/board/alight event refreshing
		// mode.
		e.refreshMode()
	case simclient.EventElevatorPassing, simclient.EventElevatorApproaching:
		e.onInlineInsertionCandidate(ctx, ev)
	}
}

func (e *Engine) onPassengerCall(ctx context.Context, ev simclient.Event) {
	e.registry.RecordCall(ev.PassengerID, ev.Floor, ev.Destination, e.lastTick)
	e.refreshMode()
	e.wakeIdleElevators(ctx)
}

func (e *Engine) onPassengerBoard(ctx context.Context, ev simclient.Event) {
	req := e.registry.RemoveOnBoard(ev.PassengerID)
	if req != nil {
		if t, ok := e.trips[ev.CarID]; ok {
			t.ReleasePassenger(ev.PassengerID, req.Origin)
		}
	}
	e.refreshMode()
	e.wakeIdleElevators(ctx)
}

// wakeIdleElevators replans every car that is currently stopped and empty.
// elevator_idle only fires on the transition into idle, so a car that has
// sat idle since before this tick's passenger_call/passenger_board would
// otherwise never be reconsidered for the new demand.
func (e *Engine) wakeIdleElevators(ctx context.Context) {
	lookup := e.carLookup()
	for _, carID := range e.carIDs {
		if lookup.IsStoppedEmpty(carID) {
			e.planAndDispatch(ctx, carID)
		}
	}
}

// onElevatorIdle replans a car on the transition into idle. It does not
// clear the car's pending target itself: when a Trip is planned,
// planAndDispatch only drops a pending target once the car has arrived
// there, so a car already woken and redispatched this tick by
// wakeIdleElevators is not redispatched twice. When no Trip is planned and
// the registry is empty, Executor.OnIdle clears the pending target before
// sending the car to its idle station.
func (e *Engine) onElevatorIdle(ctx context.Context, ev simclient.Event) {
	e.planAndDispatch(ctx, ev.CarID)
}

func (e *Engine) onElevatorStopped(ctx context.Context, ev simclient.Event) {
	t := e.trips[ev.CarID]
	e.executor.OnStopped(ev.CarID, ev.Floor, t)
	if t != nil && !t.HasWork() {
		delete(e.trips, ev.CarID)
	}
	e.planAndDispatch(ctx, ev.CarID)
}

// refreshMode reclassifies traffic from the registry's outstanding requests
// and, on a mode change, performs a global reset: every unboarded assignment
// cleared, every Trip discarded, every pending target cleared.
func (e *Engine) refreshMode() {
	snap := snapshot.Build(e.registry.All(), e.baseFloor, e.topFloor)
	next := snap.ClassifyMode()
	if next == e.mode {
		return
	}

	e.logger.Info("mode transition, resetting trips",
		slog.String("from", e.mode.String()), slog.String("to", next.String()))
	e.mode = next
	e.registry.ResetAllAssignments()
	for carID := range e.trips {
		e.executor.ClearPendingTarget(carID)
	}
	e.trips = make(map[string]*trip.Trip)
	e.zonePlan = zone.Build(e.carIDs, e.baseFloor, e.topFloor, e.mode)
}

func (e *Engine) planAndDispatch(ctx context.Context, carID string) {
	car, ok := e.lastState.Cars[carID]
	if !ok {
		return
	}
	e.executor.ClearPendingTargetIfArrived(carID, car.CurrentFloor)

	if _, gated := e.cfg.HeavyCars[carID]; gated && !e.heavyCarEligible() {
		if e.registry.IsEmpty() {
			e.executor.OnIdle(ctx, carID, car.CurrentFloor, e.zonePlan.IdleStations[carID], true)
		}
		return
	}

	z := e.zonePlan.ZoneOf(carID, e.baseFloor, e.topFloor)
	lookup := e.carLookup()

	t, ok := e.planner.PlanTrip(car, e.mode, z, e.baseFloor, e.lastTick, lookup)
	if !ok {
		if e.registry.IsEmpty() {
			e.executor.OnIdle(ctx, carID, car.CurrentFloor, e.zonePlan.IdleStations[carID], true)
		}
		return
	}
	e.trips[carID] = t
	e.executor.DispatchNext(ctx, carID, t, false)
}

// heavyCarEligible reports whether outstanding demand justifies activating
// this tick's heavy cars, per the activation-ratio gate.
func (e *Engine) heavyCarEligible() bool {
	nonHeavyCapacity := 0
	for id, car := range e.lastState.Cars {
		if _, heavy := e.cfg.HeavyCars[id]; !heavy {
			nonHeavyCapacity += car.MaxCapacity
		}
	}
	return zone.HeavyCarsEligible(e.registry.Len(), nonHeavyCapacity, e.cfg.HeavyActivationRatio)
}

// carLookup adapts the engine's last-fetched fleet snapshot into
// trip.CarLookup for stale-reclaim evaluation.
func (e *Engine) carLookup() trip.CarLookup {
	return trip.CarLookup{Cars: e.lastState.Cars, Registry: e.registry}
}

// onInlineInsertionCandidate implements the Inline Insertion Protocol for a
// passing_floor/approaching event.
func (e *Engine) onInlineInsertionCandidate(ctx context.Context, ev simclient.Event) {
	t, ok := e.trips[ev.CarID]
	if !ok {
		return
	}
	z := e.zonePlan.ZoneOf(ev.CarID, e.baseFloor, e.topFloor)
	if !dispatch.InlineInsertEligible(t, ev.Direction, ev.Floor, z.Low, z.High) {
		return
	}

	car, ok := e.lastState.Cars[ev.CarID]
	if !ok {
		return
	}

	capacity := car.MaxCapacity - len(car.Passengers) - t.TotalReservedBoarding()
	if capacity <= 0 {
		return
	}

	reserved := 0
	for _, req := range e.registry.All() {
		if reserved >= capacity {
			break
		}
		if !req.Origin.IsEqual(ev.Floor) || req.Direction != ev.Direction {
			continue
		}
		if t.IsReserved(req.PassengerID) {
			continue
		}
		assignee := e.registry.EnsureAssignmentValid(req, e.lastTick, e.carLookup())
		if assignee != "" && assignee != ev.CarID {
			continue
		}
		e.registry.Assign(req, ev.CarID, e.lastTick)
		t.Reserve(req.PassengerID, req.Origin)
		t.AddStop(req.Destination)
		reserved++
	}

	if reserved == 0 {
		return
	}
	telemetry.InlineInsertion(ev.CarID)
	e.executor.CommitInlineInsertion(ctx, ev.CarID, t, ev.Floor)
}
