// Package registry tracks every outstanding passenger call and the single
// car, if any, currently committed to serving it.
//
// All mutation of a Request's assignment funnels through assign/clear so
// that pendingCount can never drift from the set of requests actually
// pointing at a car, hiding map mutation behind a small accessor surface.
package registry

import (
	"sync"

	"github.com/slavakukuyev/dispatch-engine/internal/domain"
	"github.com/slavakukuyev/dispatch-engine/internal/telemetry"
)

// ReassignAfterTicks is the number of ticks a request may sit assigned to a
// busy car before the Registry reclaims it for reassignment.
const ReassignAfterTicks = 4

// CarLookup resolves a car id to its current effective load and run state,
// as needed by the stale-reclaim policy. The registry never imports the
// simulator or engine packages directly; it only needs this narrow view.
type CarLookup interface {
	// EffectiveLoad returns pendingCount[car] + len(passengers aboard car).
	EffectiveLoad(carID string) int
	// IsStoppedEmpty returns true if the car is stopped and carries no
	// passengers at all.
	IsStoppedEmpty(carID string) bool
	// Exists reports whether the car id is still present in simulation state.
	Exists(carID string) bool
}

// Registry is the single owner of every outstanding Request and of each
// car's pendingCount mirror.
type Registry struct {
	mu           sync.Mutex
	requests     map[string]*domain.Request
	pendingCount map[string]int
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		requests:     make(map[string]*domain.Request),
		pendingCount: make(map[string]int),
	}
}

// RecordCall registers a new call. Idempotent on passengerID: the first call
// wins and later calls for the same passenger are no-ops (L1).
func (r *Registry) RecordCall(passengerID string, origin, destination domain.Floor, arriveTick int64) *domain.Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.requests[passengerID]; ok {
		return existing
	}

	req := domain.NewRequest(passengerID, origin, destination, arriveTick)
	r.requests[passengerID] = req
	return req
}

// RemoveOnBoard clears bookkeeping for a passenger who has boarded and
// returns the removed Request so the caller's Trip can reconcile its
// reservation state. Returns nil if the passenger was never tracked (already
// removed, or boarded without a prior call in this tick's event ordering).
func (r *Registry) RemoveOnBoard(passengerID string) *domain.Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[passengerID]
	if !ok {
		return nil
	}
	r.clearAssignmentLocked(req)
	delete(r.requests, passengerID)
	return req
}

// EnsureAssignmentValid applies the stale-reclaim policy to req and returns
// the car id still validly assigned to it, or "" if none (after reclaim).
func (r *Registry) EnsureAssignmentValid(req *domain.Request, nowTick int64, cars CarLookup) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !req.IsAssigned() {
		return ""
	}

	car := req.AssignedCar
	waited := nowTick - req.AssignedTick
	if waited < ReassignAfterTicks {
		return car
	}

	stale := !cars.Exists(car) || cars.EffectiveLoad(car) > 1 || !cars.IsStoppedEmpty(car)
	if stale {
		r.clearAssignmentLocked(req)
		telemetry.StaleReclaim()
		return ""
	}
	return car
}

// Assign pins req to carID, adjusting pendingCount for both the previous and
// new assignee (if any). Safe to call when req is already assigned to
// carID, in which case it is a no-op beyond refreshing AssignedTick.
func (r *Registry) Assign(req *domain.Request, carID string, nowTick int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := req.AssignedCar
	if previous != "" && previous != carID {
		r.adjustPendingLocked(previous, -1)
	}
	if previous != carID {
		r.adjustPendingLocked(carID, 1)
	}
	req.AssignedCar = carID
	req.AssignedTick = nowTick
}

// Clear releases req's assignment, if any.
func (r *Registry) Clear(req *domain.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearAssignmentLocked(req)
}

func (r *Registry) clearAssignmentLocked(req *domain.Request) {
	if req.AssignedCar == "" {
		return
	}
	r.adjustPendingLocked(req.AssignedCar, -1)
	req.AssignedCar = ""
	req.AssignedTick = 0
}

func (r *Registry) adjustPendingLocked(carID string, delta int) {
	next := r.pendingCount[carID] + delta
	if next < 0 {
		next = 0
	}
	r.pendingCount[carID] = next
}

// PendingCount returns the number of requests currently assigned to carID.
func (r *Registry) PendingCount(carID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingCount[carID]
}

// All returns every outstanding request. The returned slice is a snapshot;
// mutating the Request pointers it contains still mutates registry state.
func (r *Registry) All() []*domain.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Request, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, req)
	}
	return out
}

// Len returns the number of outstanding requests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// IsEmpty reports whether no requests are outstanding.
func (r *Registry) IsEmpty() bool {
	return r.Len() == 0
}

// TotalPendingCount sums pendingCount across every car, used to confirm a
// mode-reset left no dangling counters.
func (r *Registry) TotalPendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, v := range r.pendingCount {
		total += v
	}
	return total
}

// ResetAllAssignments clears every request's assignment and zeroes every
// car's pendingCount. Used on mode transitions, where every assignment must
// move atomically to a fresh state rather than through piecemeal Clear
// calls; topology changes use Reset instead.
func (r *Registry) ResetAllAssignments() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		req.AssignedCar = ""
		req.AssignedTick = 0
	}
	r.pendingCount = make(map[string]int)
}

// Reset discards every outstanding request and assignment, used when the
// simulator reports a topology change (car count or floor range differs)
// and the whole engine must reinitialize.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = make(map[string]*domain.Request)
	r.pendingCount = make(map[string]int)
}
