package events

import (
	"errors"
	"sync"
	"time"
)

// breakerState represents the state of the circuit breaker
type breakerState string

const (
	stateClosed   breakerState = "closed"
	stateOpen     breakerState = "open"
	stateHalfOpen breakerState = "half-open"
)

// ErrBrokerUnavailable is returned while the breaker is open
var ErrBrokerUnavailable = errors.New("event broker unavailable, circuit open")

// circuitBreaker stops publish attempts after repeated broker failures and
// lets a single probe through once resetTimeout has passed
type circuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       breakerState
	failures    int
	lastFailure time.Time
	probing     bool
}

func newCircuitBreaker(maxFailures int, resetTimeout time.Duration) *circuitBreaker {
	return &circuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        stateClosed,
	}
}

// call runs fn unless the circuit is open
func (cb *circuitBreaker) call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == stateOpen {
		if cb.now().Sub(cb.lastFailure) <= cb.resetTimeout {
			cb.mu.Unlock()
			return ErrBrokerUnavailable
		}
		cb.state = stateHalfOpen
		cb.probing = false
	}
	if cb.state == stateHalfOpen {
		if cb.probing {
			cb.mu.Unlock()
			return ErrBrokerUnavailable
		}
		cb.probing = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.state == stateHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = stateOpen
		}
		cb.probing = false
		return err
	}

	cb.state = stateClosed
	cb.failures = 0
	cb.probing = false
	return nil
}

func (cb *circuitBreaker) currentState() breakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
