package simclient

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// circuitBreakerState is the state of a circuitBreaker.
type circuitBreakerState int

const (
	stateClosed circuitBreakerState = iota
	stateOpen
	stateHalfOpen
)

// circuitBreaker protects outbound calls to the simulator from cascading
// failures: once a burst of transport errors crosses maxFailures, further
// calls are rejected immediately until resetTimeout elapses, at which point
// a limited number of probe calls are let through to test recovery.
type circuitBreaker struct {
	mu           sync.RWMutex
	state        circuitBreakerState
	failureCount int
	successCount int
	nextRetry    time.Time

	maxFailures   int
	resetTimeout  time.Duration
	halfOpenLimit int
}

func newCircuitBreaker(maxFailures int, resetTimeout time.Duration, halfOpenLimit int) *circuitBreaker {
	return &circuitBreaker{
		state:         stateClosed,
		maxFailures:   maxFailures,
		resetTimeout:  resetTimeout,
		halfOpenLimit: halfOpenLimit,
	}
}

// Execute runs operation with circuit breaker protection. ctx is accepted
// for future cancellation-aware operations and to match the caller's call
// shape; the breaker itself does not currently watch ctx.Done().
func (cb *circuitBreaker) Execute(_ context.Context, operation func() error) error {
	if !cb.allowRequest() {
		return fmt.Errorf("circuit breaker open: simulator calls suspended")
	}

	err := operation()
	if err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *circuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateClosed:
		return true
	case stateOpen:
		if time.Now().After(cb.nextRetry) {
			cb.state = stateHalfOpen
			cb.successCount = 0
			return true
		}
		return false
	case stateHalfOpen:
		return cb.successCount < cb.halfOpenLimit
	default:
		return false
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state == stateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.halfOpenLimit {
			cb.state = stateClosed
		}
	}
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	if cb.state == stateHalfOpen {
		cb.state = stateOpen
		cb.nextRetry = time.Now().Add(cb.resetTimeout)
	} else if cb.failureCount >= cb.maxFailures {
		cb.state = stateOpen
		cb.nextRetry = time.Now().Add(cb.resetTimeout)
	}
}

// State returns the current circuit breaker state.
func (cb *circuitBreaker) State() circuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
