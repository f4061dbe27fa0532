// Package dispatch drives a car's active Trip forward: it issues the next
// floor command, reconciles stop completions, and performs inline insertion
// when a passing or approaching event reveals a pickup opportunity along the
// car's current path. Commands are deduplicated against the car's pending
// target and rolled back on rejection.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/slavakukuyev/dispatch-engine/internal/constants"
	"github.com/slavakukuyev/dispatch-engine/internal/domain"
	"github.com/slavakukuyev/dispatch-engine/internal/trip"
)

// Commander is the narrow view of the simulator the executor needs to move
// a car. It is implemented by internal/simclient.
type Commander interface {
	GoToFloor(ctx context.Context, carID string, floor domain.Floor, immediate bool) (bool, error)
}

// Executor drives Trips forward for a fleet of cars, tracking each car's
// last commanded target to dedupe repeat commands.
type Executor struct {
	commander     Commander
	logger        *slog.Logger
	pendingTarget map[string]*int
}

// New constructs an Executor that issues commands through commander.
func New(commander Commander) *Executor {
	return &Executor{
		commander:     commander,
		pendingTarget: make(map[string]*int),
		logger:        slog.With(slog.String("component", constants.ComponentDispatch)),
	}
}

// PendingTarget returns the floor last successfully commanded for carID, if
// any command is still outstanding.
func (e *Executor) PendingTarget(carID string) (domain.Floor, bool) {
	p, ok := e.pendingTarget[carID]
	if !ok || p == nil {
		return domain.Floor(0), false
	}
	return domain.NewFloor(*p), true
}

// ClearPendingTarget drops the recorded pending target for carID, used when
// the simulator reports the car stopped or went idle.
func (e *Executor) ClearPendingTarget(carID string) {
	delete(e.pendingTarget, carID)
}

// ClearPendingTargetIfArrived drops carID's pending target only once the car
// has actually reached it. An elevator_idle event can fire for a car that
// was already idle before this tick (woken instead by fresh demand), in
// which case its outstanding command is still in flight and must not be
// forgotten, or a later replan within the same tick would redispatch it.
func (e *Executor) ClearPendingTargetIfArrived(carID string, currentFloor domain.Floor) {
	if pending, has := e.PendingTarget(carID); has && pending.IsEqual(currentFloor) {
		e.ClearPendingTarget(carID)
	}
}

// DispatchNext advances t by one command: it pops the next target (current
// stop, or the head of stops promoted to current stop), skips redundant
// commands already in flight, and otherwise issues go_to_floor. immediate
// must be true only for inline insertion.
func (e *Executor) DispatchNext(ctx context.Context, carID string, t *trip.Trip, immediate bool) {
	target, ok := t.PopNext()
	if !ok {
		return
	}

	if pending, has := e.PendingTarget(carID); has && pending.IsEqual(target) {
		return
	}

	if immediate {
		t.ReplaceCurrentStop(target)
	}

	success, err := e.commander.GoToFloor(ctx, carID, target, immediate)
	if err != nil {
		e.logger.ErrorContext(ctx, "go_to_floor transport error",
			slog.String("car", carID), slog.Int("floor", target.Value()), slog.String("error", err.Error()))
		t.AddStopToFront(target)
		return
	}
	if !success {
		e.logger.DebugContext(ctx, "go_to_floor rejected, will retry",
			slog.String("car", carID), slog.Int("floor", target.Value()))
		t.AddStopToFront(target)
		return
	}

	f := target.Value()
	e.pendingTarget[carID] = &f
}

// OnStopped reconciles an elevator_stopped event: clears the pending target
// and marks the stop completed on t so planning can resume from a clean
// state.
func (e *Executor) OnStopped(carID string, floor domain.Floor, t *trip.Trip) {
	e.ClearPendingTarget(carID)
	if t != nil {
		t.MarkStopCompleted(floor)
	}
}

// OnIdle handles a car for which plan_trip found nothing: it clears the
// pending target and, if registryEmpty, sends the car to its idle station
// unless already parked there.
func (e *Executor) OnIdle(ctx context.Context, carID string, currentFloor domain.Floor, idleStation domain.Floor, registryEmpty bool) {
	e.ClearPendingTarget(carID)
	if !registryEmpty {
		return
	}
	if currentFloor.IsEqual(idleStation) {
		return
	}
	parkTrip := trip.New(domain.DirectionOf(currentFloor, idleStation), idleStation, idleStation)
	parkTrip.AddStop(idleStation)
	e.DispatchNext(ctx, carID, parkTrip, false)
}

// InlineInsertEligible applies the Inline Insertion Protocol's structural
// no-op checks (steps 1-2): a floor already on the path, or outside the
// car's zone, is never a candidate for inline insertion. Capacity and
// request-reservation (steps 3-5) require registry and zone context the
// caller (internal/engine) holds; this only gates whether it is worth
// attempting them at all.
func InlineInsertEligible(t *trip.Trip, dir domain.Direction, floor domain.Floor, zoneLow, zoneHigh domain.Floor) bool {
	if t == nil || t.Direction != dir {
		return false
	}
	if t.Contains(floor) {
		return false
	}
	return floor.Value() >= zoneLow.Value() && floor.Value() <= zoneHigh.Value()
}

// CommitInlineInsertion performs step 6 of the Inline Insertion Protocol
// once the caller has reserved at least one passenger at floor: it replaces
// the current stop with floor (reinserting the prior target at the head of
// stops) and issues an immediate redispatch.
func (e *Executor) CommitInlineInsertion(ctx context.Context, carID string, t *trip.Trip, floor domain.Floor) {
	t.ReplaceCurrentStop(floor)
	e.DispatchNext(ctx, carID, t, true)
}
