package errors

import (
	"errors"
	"sync"
	"time"
)

const (
	breakerErrorThreshold = 0.5
	breakerMinRequests    = 10
	breakerOpenTimeout    = 30 * time.Second
	breakerHalfOpenProbes = 3
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

var (
	ErrCircuitOpen   = errors.New("circuit breaker is open")
	errTooManyProbes = errors.New("too many probes in half-open state")
)

// CircuitBreaker guards outbound delivery: after the error rate crosses
// the threshold it refuses calls for breakerOpenTimeout, then lets a few
// probes through before closing again.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	successes   int
	requests    int
	lastFailure time.Time
}

func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{state: BreakerClosed}
}

func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}

	cb.mu.Lock()
	if cb.state == BreakerOpen {
		if time.Since(cb.lastFailure) >= breakerOpenTimeout {
			cb.state = BreakerHalfOpen
			cb.resetLocked()
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}

	if cb.state == BreakerHalfOpen && cb.requests >= breakerHalfOpenProbes {
		cb.mu.Unlock()
		return errTooManyProbes
	}
	cb.mu.Unlock()

	callErr := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.requests++

	if callErr != nil {
		cb.failures++

		if cb.state == BreakerHalfOpen {
			cb.tripLocked()
		} else if cb.requests >= breakerMinRequests {
			if float64(cb.failures)/float64(cb.requests) >= breakerErrorThreshold {
				cb.tripLocked()
			}
		}

		return callErr
	}

	cb.successes++

	if cb.state == BreakerHalfOpen && cb.successes >= breakerHalfOpenProbes {
		cb.state = BreakerClosed
		cb.resetLocked()
	}

	return nil
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) resetLocked() {
	cb.failures = 0
	cb.successes = 0
	cb.requests = 0
}

func (cb *CircuitBreaker) tripLocked() {
	cb.state = BreakerOpen
	cb.lastFailure = time.Now()
	cb.resetLocked()
}
