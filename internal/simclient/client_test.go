package simclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slavakukuyev/dispatch-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetState_DecodesSimulationState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/state", r.URL.Path)
		json.NewEncoder(w).Encode(SimulationState{
			BaseFloor: domain.NewFloor(0),
			TopFloor:  domain.NewFloor(9),
			Tick:      3,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	state, err := c.GetState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.NewFloor(0), state.BaseFloor)
	assert.Equal(t, int64(3), state.Tick)
}

func TestGoToFloor_PostsCommandAndReturnsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cars/go_to_floor", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "A", body["car_id"])
		assert.Equal(t, float64(5), body["floor"])
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	c := New(srv.URL)
	ok, err := c.GoToFloor(context.Background(), "A", domain.NewFloor(5), false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetState_RejectsFloorOutsideAbsoluteRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SimulationState{
			BaseFloor: domain.NewFloor(-500),
			TopFloor:  domain.NewFloor(9),
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetState(context.Background())
	assert.Error(t, err)
}

func TestStep_RejectsPassengerCallWithSameOriginAndDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(StepResult{
			Tick:    1,
			MaxTick: 10,
			Events: []Event{
				{Kind: EventPassengerCall, PassengerID: "p1", Floor: domain.NewFloor(3), Destination: domain.NewFloor(3)},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Step(context.Background(), 1)
	assert.Error(t, err)
}

func TestDoJSON_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetState(context.Background())
	assert.Error(t, err)
}
