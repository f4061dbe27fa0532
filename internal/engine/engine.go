// Package engine runs the single-threaded dispatch loop: it pulls tick
// events from the simulator, keeps the registry/snapshot/zone picture
// current, (re)plans Trips, and drives the Dispatch Executor. Each tick's
// events are matched in one loop against a tagged event variant rather than
// dispatched through per-kind callback handlers.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/slavakukuyev/dispatch-engine/internal/constants"
	"github.com/slavakukuyev/dispatch-engine/internal/dispatch"
	"github.com/slavakukuyev/dispatch-engine/internal/domain"
	"github.com/slavakukuyev/dispatch-engine/internal/registry"
	"github.com/slavakukuyev/dispatch-engine/internal/simclient"
	"github.com/slavakukuyev/dispatch-engine/internal/telemetry"
	"github.com/slavakukuyev/dispatch-engine/internal/trip"
	"github.com/slavakukuyev/dispatch-engine/internal/zone"
)

// SimulatorClient is the subset of internal/simclient.Client the engine
// drives the run loop with.
type SimulatorClient interface {
	GetState(ctx context.Context) (simclient.SimulationState, error)
	Step(ctx context.Context, n int) (simclient.StepResult, error)
	Reset(ctx context.Context) error
	NextTrafficRound(ctx context.Context, fullReset bool) (bool, error)
	MarkTickProcessed(ctx context.Context) error
	SelectTraffic(ctx context.Context, index int) error
	GoToFloor(ctx context.Context, carID string, floor domain.Floor, immediate bool) (bool, error)
}

// Config holds the engine's tunable parameters.
type Config struct {
	TickDelay time.Duration
	// ReassignAfterTicks is stored but not read by the engine: stale reclaim
	// always uses the fixed registry.ReassignAfterTicks threshold (4 ticks).
	ReassignAfterTicks   int64
	TargetLoadFactor     float64
	HeavyCars            map[string]struct{}
	HeavyActivationRatio float64
}

// Engine owns every piece of mutable dispatch state and runs the
// single-threaded event loop against a SimulatorClient.
type Engine struct {
	sim      SimulatorClient
	cfg      Config
	registry *registry.Registry
	planner  *trip.Planner
	executor *dispatch.Executor
	logger   *slog.Logger

	trips     map[string]*trip.Trip
	zonePlan  *zone.Plan
	mode      domain.Mode
	baseFloor domain.Floor
	topFloor  domain.Floor
	carIDs    []string
	lastState simclient.SimulationState
	lastTick  int64

	stopCh chan struct{}
}

// New constructs an Engine. sim is also used as the dispatch.Commander
// because SimulatorClient's method set already satisfies it.
func New(sim SimulatorClient, cfg Config) *Engine {
	reg := registry.New()
	return &Engine{
		sim:      sim,
		cfg:      cfg,
		registry: reg,
		planner:  trip.NewPlanner(reg, cfg.TargetLoadFactor),
		executor: dispatch.New(sim),
		logger:   slog.With(slog.String("component", constants.ComponentEngine)),
		trips:    make(map[string]*trip.Trip),
		mode:     domain.ModeInterfloor,
	}
}

// ErrZeroTickAborted is returned by Run when the simulator reports a
// zero-tick traffic round for three consecutive rounds.
var ErrZeroTickAborted = errors.New("simulator produced zero ticks for three consecutive rounds")

// Idle reports whether every outstanding request has been delivered and no
// reservations remain, the point at which it is safe to advance to the next
// traffic round.
func (e *Engine) Idle() bool {
	if !e.registry.IsEmpty() {
		return false
	}
	for _, t := range e.trips {
		if t != nil && (t.HasWork() || t.ReservedPassengerCount() > 0) {
			return false
		}
	}
	return true
}

// Stop signals Run to exit at the next tick boundary.
func (e *Engine) Stop() {
	if e.stopCh != nil {
		close(e.stopCh)
	}
}

// Run drives the event loop until ctx is cancelled, Stop is called, or a
// transport/zero-tick error aborts the run.
func (e *Engine) Run(ctx context.Context) error {
	e.stopCh = make(chan struct{})
	zeroTickRounds := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.stopCh:
			return nil
		default:
		}

		state, err := e.sim.GetState(ctx)
		if err != nil {
			return err
		}
		e.reconcileTopology(state)

		result, err := e.sim.Step(ctx, 1)
		if err != nil {
			return err
		}

		if result.MaxTick == 0 {
			zeroTickRounds++
			if zeroTickRounds >= 3 {
				return ErrZeroTickAborted
			}
			if _, err := e.sim.NextTrafficRound(ctx, false); err != nil {
				return err
			}
			continue
		}
		zeroTickRounds = 0
		e.lastTick = result.Tick

		tickStart := time.Now()
		for _, ev := range result.Events {
			e.handleEvent(ctx, ev)
		}
		telemetry.ObserveTickDuration(time.Since(tickStart).Seconds())
		telemetry.SetPendingRequests(e.registry.Len())

		if err := e.sim.MarkTickProcessed(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.cfg.TickDelay):
		}
	}
}

// reconcileTopology refreshes the cached car/floor picture and wipes all
// engine state if the car count or floor range changed since last seen.
func (e *Engine) reconcileTopology(state simclient.SimulationState) {
	e.lastState = state
	ids := sortedCarIDs(state.Cars)

	changed := !floorsEqual(e.baseFloor, state.BaseFloor) ||
		!floorsEqual(e.topFloor, state.TopFloor) ||
		!sameCarSet(e.carIDs, ids)

	e.baseFloor = state.BaseFloor
	e.topFloor = state.TopFloor
	e.carIDs = ids

	if changed {
		e.logger.Info("topology changed, reinitializing engine state",
			slog.Int("car_count", len(ids)),
			slog.Int("base_floor", state.BaseFloor.Value()),
			slog.Int("top_floor", state.TopFloor.Value()))
		e.registry.Reset()
		e.trips = make(map[string]*trip.Trip)
		for _, id := range ids {
			e.executor.ClearPendingTarget(id)
		}
		e.mode = domain.ModeInterfloor
	}

	e.zonePlan = zone.Build(ids, e.baseFloor, e.topFloor, e.mode)
}

func sortedCarIDs(cars map[string]domain.CarView) []string {
	ids := make([]string, 0, len(cars))
	for id := range cars {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sameCarSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func floorsEqual(a, b domain.Floor) bool {
	return a.Value() == b.Value()
}
