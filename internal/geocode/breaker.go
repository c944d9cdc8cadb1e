package geocode

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker refuses calls.
var ErrCircuitOpen = errors.New("geocode: circuit breaker open")

// BreakerState is the breaker position.
type BreakerState string

const (
	BreakerClosed BreakerState = "closed"
	BreakerOpen   BreakerState = "open"
)

// Breaker stops calling the geocoder after a run of consecutive failures and lets calls through again
// once the reset timeout has passed.
type Breaker struct {
	mu        sync.Mutex
	state     BreakerState
	failures  int
	openedAt  time.Time
	threshold int
	reset     time.Duration
	now       func() time.Time
}

// NewBreaker creates a closed breaker. The backfill uses 3 failures and a 60s reset.
func NewBreaker(threshold int, reset time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		state:     BreakerClosed,
		threshold: threshold,
		reset:     reset,
		now:       time.Now,
	}
}

// Allow reports whether a call may be made, closing the breaker again when the reset timeout passed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.reset {
		b.state = BreakerClosed
		b.failures = 0
	}
	return b.state == BreakerClosed
}

// Success clears the failure run.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// Failure counts a failed call and opens the breaker at the threshold.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.failures >= b.threshold && b.state == BreakerClosed {
		b.state = BreakerOpen
		b.openedAt = b.now()
	}
}

// State returns the current position without resetting it.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
