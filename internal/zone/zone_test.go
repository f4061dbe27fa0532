package zone

import (
	"testing"

	"github.com/slavakukuyev/dispatch-engine/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuild_UpPeakChunksAscending(t *testing.T) {
	plan := Build([]string{"A", "B", "C"}, domain.NewFloor(0), domain.NewFloor(9), domain.ModeUpPeak)

	assert.Equal(t, Zone{Low: domain.NewFloor(0), High: domain.NewFloor(3)}, plan.Zones["A"])
	assert.Equal(t, Zone{Low: domain.NewFloor(4), High: domain.NewFloor(7)}, plan.Zones["B"])
	assert.Equal(t, Zone{Low: domain.NewFloor(8), High: domain.NewFloor(9)}, plan.Zones["C"])
}

func TestBuild_DownPeakChunksDescending(t *testing.T) {
	plan := Build([]string{"A", "B", "C"}, domain.NewFloor(0), domain.NewFloor(9), domain.ModeDownPeak)

	assert.Equal(t, Zone{Low: domain.NewFloor(6), High: domain.NewFloor(9)}, plan.Zones["A"])
	assert.Equal(t, Zone{Low: domain.NewFloor(2), High: domain.NewFloor(5)}, plan.Zones["B"])
	assert.Equal(t, Zone{Low: domain.NewFloor(0), High: domain.NewFloor(1)}, plan.Zones["C"])
}

func TestBuild_IdleStationsSpreadAcrossRange(t *testing.T) {
	plan := Build([]string{"A", "B", "C"}, domain.NewFloor(0), domain.NewFloor(9), domain.ModeInterfloor)

	assert.Equal(t, domain.NewFloor(0), plan.IdleStations["A"])
	assert.Equal(t, domain.NewFloor(5), plan.IdleStations["B"])
	assert.Equal(t, domain.NewFloor(9), plan.IdleStations["C"])
}

func TestBuild_SingleCarParksAtBase(t *testing.T) {
	plan := Build([]string{"A"}, domain.NewFloor(0), domain.NewFloor(9), domain.ModeInterfloor)
	assert.Equal(t, domain.NewFloor(0), plan.IdleStations["A"])
	assert.Equal(t, Zone{Low: domain.NewFloor(0), High: domain.NewFloor(9)}, plan.Zones["A"])
}

func TestZoneOf_UnknownCarFallsBackToWholeRange(t *testing.T) {
	plan := Build([]string{"A"}, domain.NewFloor(0), domain.NewFloor(9), domain.ModeInterfloor)
	z := plan.ZoneOf("ghost", domain.NewFloor(0), domain.NewFloor(9))
	assert.Equal(t, Zone{Low: domain.NewFloor(0), High: domain.NewFloor(9)}, z)
}

func TestHeavyCarsEligible_ThresholdCrossing(t *testing.T) {
	assert.False(t, HeavyCarsEligible(10, 16, 0.7)) // 10 < 11.2
	assert.True(t, HeavyCarsEligible(12, 16, 0.7))  // 12 >= 11.2
	assert.True(t, HeavyCarsEligible(1, 0, 0.7))    // no non-heavy capacity at all
	assert.False(t, HeavyCarsEligible(0, 0, 0.7))
}
