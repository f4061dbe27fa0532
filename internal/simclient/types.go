package simclient

import "github.com/slavakukuyev/dispatch-engine/internal/domain"

// EventKind tags the variant of an Event.
type EventKind string

const (
	EventPassengerCall       EventKind = "passenger_call"
	EventElevatorIdle        EventKind = "elevator_idle"
	EventElevatorStopped     EventKind = "elevator_stopped"
	EventPassengerBoard      EventKind = "passenger_board"
	EventPassengerAlight     EventKind = "passenger_alight"
	EventElevatorPassing     EventKind = "elevator_passing_floor"
	EventElevatorApproaching EventKind = "elevator_approaching"
)

// Event is a single tick-delivered occurrence from the simulator. Only the
// fields relevant to Kind are populated; the engine's handler type-switches
// on Kind rather than on a Go interface, matching the wire shape of a
// discriminated JSON union.
type Event struct {
	Kind EventKind `json:"kind"`

	PassengerID string           `json:"passenger_id,omitempty"`
	CarID       string           `json:"car_id,omitempty"`
	Floor       domain.Floor     `json:"floor,omitempty"`
	Destination domain.Floor     `json:"destination,omitempty"`
	Direction   domain.Direction `json:"direction,omitempty"`
	Tick        int64            `json:"tick,omitempty"`
}

// StepResult is the response to Step: the events emitted and the tick
// reached.
type StepResult struct {
	Events  []Event `json:"events"`
	Tick    int64   `json:"tick"`
	MaxTick int64   `json:"max_tick"`
}

// SimulationState is the full read-only view of the building and fleet, as
// returned by GetState.
type SimulationState struct {
	BaseFloor domain.Floor              `json:"base_floor"`
	TopFloor  domain.Floor              `json:"top_floor"`
	Cars      map[string]domain.CarView `json:"cars"`
	Tick      int64                     `json:"tick"`
}

// CarIDs returns the car identifiers present in state, in map iteration
// order (unspecified). Callers that need a stable order should sort the
// result themselves.
func (s SimulationState) CarIDs() []string {
	ids := make([]string, 0, len(s.Cars))
	for id := range s.Cars {
		ids = append(ids, id)
	}
	return ids
}
