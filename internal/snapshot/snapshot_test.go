package snapshot

import (
	"testing"

	"github.com/slavakukuyev/dispatch-engine/internal/domain"
	"github.com/stretchr/testify/assert"
)

func floor(v int) domain.Floor { return domain.NewFloor(v) }

func TestClassifyMode_EmptyRegistryIsInterfloor(t *testing.T) {
	s := Build(nil, floor(0), floor(9))
	assert.Equal(t, domain.ModeInterfloor, s.ClassifyMode())
}

func TestClassifyMode_UpPeakBurstFromLobby(t *testing.T) {
	var reqs []*domain.Request
	for i, dest := range []int{3, 4, 5, 6, 7, 8, 9, 3, 4, 5} {
		reqs = append(reqs, domain.NewRequest(string(rune('a'+i)), floor(0), floor(dest), 0))
	}
	s := Build(reqs, floor(0), floor(9))
	assert.Equal(t, domain.ModeUpPeak, s.ClassifyMode())
}

func TestClassifyMode_DownPeakWithSpreadOrigins(t *testing.T) {
	reqs := []*domain.Request{
		domain.NewRequest("p1", floor(9), floor(0), 0),
		domain.NewRequest("p2", floor(8), floor(0), 0),
		domain.NewRequest("p3", floor(7), floor(0), 0),
		domain.NewRequest("p4", floor(9), floor(0), 0),
		domain.NewRequest("p5", floor(8), floor(0), 0),
	}
	s := Build(reqs, floor(0), floor(9))
	assert.Equal(t, domain.ModeDownPeak, s.ClassifyMode())
}

func TestClassifyMode_MixedTrafficIsInterfloor(t *testing.T) {
	reqs := []*domain.Request{
		domain.NewRequest("p1", floor(2), floor(6), 0),
		domain.NewRequest("p2", floor(7), floor(1), 0),
		domain.NewRequest("p3", floor(3), floor(8), 0),
	}
	s := Build(reqs, floor(0), floor(9))
	assert.Equal(t, domain.ModeInterfloor, s.ClassifyMode())
}

func TestClassifyMode_UpPeakRequiresLobbyShare(t *testing.T) {
	// Overall U/W is high but none of the up calls originate near the base
	// floor, so base-floor share should fail and the mode stays INTERFLOOR.
	reqs := []*domain.Request{
		domain.NewRequest("p1", floor(4), floor(9), 0),
		domain.NewRequest("p2", floor(5), floor(9), 0),
		domain.NewRequest("p3", floor(6), floor(9), 0),
	}
	s := Build(reqs, floor(0), floor(9))
	assert.Equal(t, domain.ModeInterfloor, s.ClassifyMode())
}
