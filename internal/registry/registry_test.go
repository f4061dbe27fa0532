package registry

import (
	"testing"

	"github.com/slavakukuyev/dispatch-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCars struct {
	effectiveLoad map[string]int
	stoppedEmpty  map[string]bool
	missing       map[string]bool
}

func (f fakeCars) EffectiveLoad(carID string) int    { return f.effectiveLoad[carID] }
func (f fakeCars) IsStoppedEmpty(carID string) bool  { return f.stoppedEmpty[carID] }
func (f fakeCars) Exists(carID string) bool          { return !f.missing[carID] }

func TestRecordCall_IdempotentOnPassengerID(t *testing.T) {
	r := New()
	first := r.RecordCall("p1", domain.NewFloor(2), domain.NewFloor(5), 0)
	second := r.RecordCall("p1", domain.NewFloor(9), domain.NewFloor(0), 10)

	assert.Same(t, first, second)
	assert.Equal(t, domain.NewFloor(2), second.Origin)
	assert.Equal(t, 1, r.Len())
}

func TestRemoveOnBoard_ClearsAssignmentAndReturnsRequest(t *testing.T) {
	r := New()
	req := r.RecordCall("p1", domain.NewFloor(2), domain.NewFloor(5), 0)
	r.Assign(req, "A", 1)
	require.Equal(t, 1, r.PendingCount("A"))

	removed := r.RemoveOnBoard("p1")
	require.NotNil(t, removed)
	assert.Equal(t, "p1", removed.PassengerID)
	assert.Equal(t, 0, r.PendingCount("A"))
	assert.Equal(t, 0, r.Len())

	assert.Nil(t, r.RemoveOnBoard("p1"))
}

func TestAssign_MovesPendingCountBetweenCars(t *testing.T) {
	r := New()
	req := r.RecordCall("p1", domain.NewFloor(2), domain.NewFloor(5), 0)

	r.Assign(req, "A", 1)
	assert.Equal(t, 1, r.PendingCount("A"))
	assert.Equal(t, 0, r.PendingCount("B"))

	r.Assign(req, "B", 2)
	assert.Equal(t, 0, r.PendingCount("A"))
	assert.Equal(t, 1, r.PendingCount("B"))
	assert.Equal(t, 1, r.TotalPendingCount())
}

func TestPendingCount_NeverGoesNegative(t *testing.T) {
	r := New()
	req := r.RecordCall("p1", domain.NewFloor(2), domain.NewFloor(5), 0)
	r.Clear(req)
	r.Clear(req)
	assert.Equal(t, 0, r.PendingCount("A"))
}

func TestEnsureAssignmentValid_StaleReclaimAfterFourTicks(t *testing.T) {
	r := New()
	req := r.RecordCall("p1", domain.NewFloor(2), domain.NewFloor(5), 0)
	r.Assign(req, "A", 0)

	cars := fakeCars{
		effectiveLoad: map[string]int{"A": 2},
		stoppedEmpty:  map[string]bool{"A": false},
	}

	// before the threshold, assignment holds even though the car is busy
	assert.Equal(t, "A", r.EnsureAssignmentValid(req, 3, cars))

	// at the threshold with a busy assignee, the assignment is reclaimed
	assert.Equal(t, "", r.EnsureAssignmentValid(req, 4, cars))
	assert.Equal(t, 0, r.PendingCount("A"))
}

func TestEnsureAssignmentValid_HoldsWhenAssigneeIsFreeAndStopped(t *testing.T) {
	r := New()
	req := r.RecordCall("p1", domain.NewFloor(2), domain.NewFloor(5), 0)
	r.Assign(req, "A", 0)

	cars := fakeCars{
		effectiveLoad: map[string]int{"A": 1},
		stoppedEmpty:  map[string]bool{"A": true},
	}

	assert.Equal(t, "A", r.EnsureAssignmentValid(req, 10, cars))
	assert.Equal(t, 1, r.PendingCount("A"))
}

func TestEnsureAssignmentValid_MissingCarIsReclaimed(t *testing.T) {
	r := New()
	req := r.RecordCall("p1", domain.NewFloor(2), domain.NewFloor(5), 0)
	r.Assign(req, "A", 0)

	cars := fakeCars{missing: map[string]bool{"A": true}}
	assert.Equal(t, "", r.EnsureAssignmentValid(req, 4, cars))
}

func TestResetAllAssignments_ClearsEveryAssignment(t *testing.T) {
	r := New()
	r1 := r.RecordCall("p1", domain.NewFloor(0), domain.NewFloor(5), 0)
	r2 := r.RecordCall("p2", domain.NewFloor(1), domain.NewFloor(6), 0)
	r.Assign(r1, "A", 0)
	r.Assign(r2, "B", 0)
	require.Equal(t, 2, r.TotalPendingCount())

	r.ResetAllAssignments()

	assert.Equal(t, 0, r.TotalPendingCount())
	assert.False(t, r1.IsAssigned())
	assert.False(t, r2.IsAssigned())
}
