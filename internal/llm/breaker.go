package llm

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned when calls are being short-circuited.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerState represents the circuit breaker state
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

// Breaker protects a flaky upstream: after failureThreshold consecutive
// failures it opens and rejects calls until timeout has passed, then lets a
// few probes through and closes again after successThreshold successes.
type Breaker struct {
	failureThreshold uint32
	successThreshold uint32
	timeout          time.Duration

	failures    uint32
	successes   uint32
	lastFailure time.Time
	state       BreakerState
	mu          sync.Mutex
}

// NewBreaker creates a breaker with default settings
func NewBreaker() *Breaker {
	return &Breaker{
		failureThreshold: 5,
		successThreshold: 2,
		timeout:          30 * time.Second,
		state:            StateClosed,
	}
}

// Do executes fn with circuit breaker protection.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrBreakerOpen
	}

	err := fn()
	if err != nil {
		b.recordFailure()
	} else {
		b.recordSuccess()
	}
	return err
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.lastFailure) > b.timeout {
			b.state = StateHalfOpen
			b.failures = 0
			b.successes = 0
			return true
		}
		return false
	}
	return true
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	if b.state == StateHalfOpen || b.failures >= b.failureThreshold {
		b.state = StateOpen
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
		}
	case StateClosed:
		b.failures = 0
	}
}
