package resilience

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker
type CircuitState int

const (
	// StateClosed - requests flow normally
	StateClosed CircuitState = iota
	// StateOpen - requests fail immediately
	StateOpen
	// StateHalfOpen - a limited number of trial calls test whether the dependency recovered
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned when circuit breaker is open
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when too many requests in half-open state
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// CircuitBreakerConfig configures circuit breaker behavior
type CircuitBreakerConfig struct {
	// IsFailure decides whether an error counts against the circuit.
	// Nil counts every non-nil error.
	IsFailure func(error) bool
	// OnStateChange is invoked with the lock held; keep it cheap.
	OnStateChange       func(from, to CircuitState)
	Timeout             time.Duration
	MaxFailures         uint32
	MaxRequestsHalfOpen uint32
}

// DefaultCircuitBreakerConfig returns sensible defaults
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:         5,
		Timeout:             30 * time.Second,
		MaxRequestsHalfOpen: 1,
	}
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	lastStateChangeTime time.Time
	config              CircuitBreakerConfig
	mu                  sync.RWMutex
	state               CircuitState
	failures            uint32
	requestsHalfOpen    uint32
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures == 0 {
		config.MaxFailures = 1
	}
	if config.MaxRequestsHalfOpen == 0 {
		config.MaxRequestsHalfOpen = 1
	}
	return &CircuitBreaker{
		state:               StateClosed,
		lastStateChangeTime: time.Now(),
		config:              config,
	}
}

// Call executes fn if the circuit allows it and records the outcome
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}
	err := fn()
	cb.afterCall(err)
	return err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(cb.lastStateChangeTime) > cb.config.Timeout {
			cb.setState(StateHalfOpen)
			cb.requestsHalfOpen++
			return nil
		}
		return ErrCircuitOpen

	case StateHalfOpen:
		if cb.requestsHalfOpen >= cb.config.MaxRequestsHalfOpen {
			return ErrTooManyRequests
		}
		cb.requestsHalfOpen++
		return nil

	default:
		return ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && cb.countsAsFailure(err) {
		cb.onFailure()
		return
	}
	cb.onSuccess()
}

func (cb *CircuitBreaker) countsAsFailure(err error) bool {
	if cb.config.IsFailure == nil {
		return true
	}
	return cb.config.IsFailure(err)
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.setState(StateOpen)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.setState(StateClosed)
	case StateClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) setState(newState CircuitState) {
	if cb.state == newState {
		return
	}

	prev := cb.state
	cb.state = newState
	cb.lastStateChangeTime = time.Now()

	switch newState {
	case StateClosed, StateHalfOpen:
		cb.failures = 0
		cb.requestsHalfOpen = 0
	case StateOpen:
		cb.requestsHalfOpen = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(prev, newState)
	}
}

// State returns the current circuit state (thread-safe)
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Failures returns the current consecutive failure count (thread-safe)
func (cb *CircuitBreaker) Failures() uint32 {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Reset resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.failures = 0
}
