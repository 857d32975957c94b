// Package circuitbreaker provides fast-fail protection for the Redis token
// store: after repeated failures the auth path rejects immediately instead of
// stacking connection timeouts onto every login and refresh.
package circuitbreaker

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Defaults tuned for the token store: five straight Redis errors trip the
// circuit, two successful probes after the cooldown close it again.
const (
	DefaultFailureThreshold = 5
	DefaultSuccessThreshold = 2
	DefaultCooldown         = 30 * time.Second
)

// CircuitBreaker trips open when a dependency fails repeatedly. Domain-level
// rejections should not be recorded; only infrastructure errors count.
type CircuitBreaker struct {
	name             string
	state            atomic.Value
	failureCount     atomic.Int32
	successCount     atomic.Int32
	lastFailureTime  atomic.Value
	failureThreshold int32
	successThreshold int32
	cooldown         time.Duration
	logger           *slog.Logger
}

// New creates a circuit breaker. The name tags state-change log entries.
func New(name string, failureThreshold, successThreshold int32, cooldown time.Duration, logger *slog.Logger) *CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	cb := &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
		logger:           logger,
	}
	cb.state.Store(StateClosed)
	return cb
}

// RecordSuccess resets the failure streak and, in half-open, counts toward
// closing the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	switch cb.GetState() {
	case StateHalfOpen:
		cb.successCount.Add(1)
		if cb.successCount.Load() >= cb.successThreshold {
			cb.setState(StateClosed)
			cb.failureCount.Store(0)
			cb.successCount.Store(0)
		}
	case StateClosed:
		cb.failureCount.Store(0)
	}
}

// RecordFailure counts toward tripping open; any failure while half-open
// re-opens the circuit immediately.
func (cb *CircuitBreaker) RecordFailure() {
	now := time.Now()
	cb.lastFailureTime.Store(&now)

	switch cb.GetState() {
	case StateClosed:
		cb.failureCount.Add(1)
		if cb.failureCount.Load() >= cb.failureThreshold {
			cb.setState(StateOpen)
			cb.failureCount.Store(0)
			cb.successCount.Store(0)
		}
	case StateHalfOpen:
		cb.setState(StateOpen)
		cb.failureCount.Store(0)
		cb.successCount.Store(0)
	}
}

// AllowRequest reports whether a request may proceed. An open circuit lets a
// probe through once the cooldown has elapsed.
func (cb *CircuitBreaker) AllowRequest() bool {
	switch cb.GetState() {
	case StateClosed, StateHalfOpen:
		return true
	}
	lastFailure, ok := cb.lastFailureTime.Load().(*time.Time)
	if !ok || lastFailure == nil {
		return false
	}
	if time.Since(*lastFailure) > cb.cooldown {
		cb.setState(StateHalfOpen)
		cb.failureCount.Store(0)
		cb.successCount.Store(0)
		return true
	}
	return false
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() State {
	return cb.state.Load().(State)
}

func (cb *CircuitBreaker) setState(newState State) {
	oldState := cb.GetState()
	if oldState == newState {
		return
	}
	cb.state.Store(newState)
	cb.logger.Warn("circuit breaker state changed",
		slog.String("breaker", cb.name),
		slog.String("from", oldState.String()),
		slog.String("to", newState.String()),
	)
}
