// Package simclient is the dispatch engine's outbound connection to the
// elevator simulator: a synchronous HTTP JSON client guarded by a circuit
// breaker.
package simclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/slavakukuyev/dispatch-engine/internal/constants"
	"github.com/slavakukuyev/dispatch-engine/internal/domain"
)

// Client implements the SimulatorClient surface over HTTP, with circuit
// breaker protection on every outbound call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitBreaker
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the underlying http.Client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient swaps in a caller-supplied *http.Client, useful for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New constructs a Client targeting baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		breaker:    newCircuitBreaker(5, 10*time.Second, 2),
		logger:     slog.With(slog.String("component", constants.ComponentSimClient)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetState fetches the current building/fleet snapshot. Floor values
// crossing the wire from the simulator are validated here, the boundary
// where externally-sourced floor numbers enter the engine.
func (c *Client) GetState(ctx context.Context) (SimulationState, error) {
	var out SimulationState
	if err := c.doJSON(ctx, http.MethodGet, "/state", nil, &out); err != nil {
		return out, err
	}
	if err := validateSimulationState(out); err != nil {
		return SimulationState{}, err
	}
	return out, nil
}

// Step advances the simulator n ticks and returns the events emitted. Each
// passenger_call event's origin/destination pair is validated against the
// same absolute floor range GetState enforces, and must name two distinct
// floors.
func (c *Client) Step(ctx context.Context, n int) (StepResult, error) {
	var out StepResult
	body := map[string]int{"ticks": n}
	if err := c.doJSON(ctx, http.MethodPost, "/step", body, &out); err != nil {
		return out, err
	}
	for _, ev := range out.Events {
		if ev.Kind != EventPassengerCall {
			continue
		}
		if err := domain.ValidateFloorRange(ev.Floor, ev.Destination); err != nil {
			return StepResult{}, fmt.Errorf("simulator reported invalid passenger_call: %w", err)
		}
	}
	return out, nil
}

// validateSimulationState confirms every floor value the simulator reported
// falls within the absolute range the dispatch engine is willing to operate
// over.
func validateSimulationState(state SimulationState) error {
	if _, err := domain.NewFloorWithValidation(state.BaseFloor.Value()); err != nil {
		return fmt.Errorf("simulator reported invalid base_floor: %w", err)
	}
	if _, err := domain.NewFloorWithValidation(state.TopFloor.Value()); err != nil {
		return fmt.Errorf("simulator reported invalid top_floor: %w", err)
	}
	for carID, car := range state.Cars {
		if _, err := domain.NewFloorWithValidation(car.CurrentFloor.Value()); err != nil {
			return fmt.Errorf("simulator reported invalid current_floor for car %s: %w", carID, err)
		}
	}
	return nil
}

// Reset restarts the simulator at its initial state.
func (c *Client) Reset(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/reset", nil, nil)
}

// NextTrafficRound advances to the next traffic scenario, optionally with a
// full topology reset, returning whether the round change succeeded.
func (c *Client) NextTrafficRound(ctx context.Context, fullReset bool) (bool, error) {
	var out struct {
		Advanced bool `json:"advanced"`
	}
	body := map[string]bool{"full_reset": fullReset}
	err := c.doJSON(ctx, http.MethodPost, "/traffic/next", body, &out)
	return out.Advanced, err
}

// MarkTickProcessed acknowledges the current tick's events have been fully
// handled, allowing the simulator to advance.
func (c *Client) MarkTickProcessed(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/tick/ack", nil, nil)
}

// SelectTraffic jumps directly to the traffic scenario at index.
func (c *Client) SelectTraffic(ctx context.Context, index int) error {
	body := map[string]int{"index": index}
	return c.doJSON(ctx, http.MethodPost, "/traffic/select", body, nil)
}

// GoToFloor commands carID toward floor, returning whether the simulator
// accepted the command.
func (c *Client) GoToFloor(ctx context.Context, carID string, floor domain.Floor, immediate bool) (bool, error) {
	var out struct {
		Success bool `json:"success"`
	}
	body := map[string]any{
		"car_id":    carID,
		"floor":     floor.Value(),
		"immediate": immediate,
	}
	err := c.doJSON(ctx, http.MethodPost, "/cars/go_to_floor", body, &out)
	return out.Success, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	return c.breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if reqBody != nil {
			req.Header.Set("Content-Type", constants.ContentTypeJSON)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("simulator call %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			payload, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("simulator returned status %d: %s", resp.StatusCode, string(payload))
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response from %s: %w", path, err)
		}
		return nil
	})
}
