package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed lets every call through.
	Closed State = iota
	// Open rejects calls until the cool-down expires.
	Open
	// HalfOpen lets trial calls through to probe recovery.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings configures a Breaker.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that trips the breaker.
	FailureThreshold uint32
	// SuccessThreshold is the number of consecutive half-open successes that closes it again.
	SuccessThreshold uint32
	// Timeout is how long the breaker stays open before allowing a trial call.
	Timeout time.Duration
	// OnStateChange is called outside the lock after every transition.
	OnStateChange func(from, to State)
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	settings Settings
	now      func() time.Time

	mu        sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time
}

// New creates a Breaker. Zero thresholds default to 1.
func New(s Settings) *Breaker {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 1
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}
	return &Breaker{settings: s, now: time.Now, state: Closed}
}

// State returns the current state, taking an expired open period into account.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) > b.settings.Timeout {
		return HalfOpen
	}
	return b.state
}

// Execute runs fn unless the breaker is open. A non-nil error from fn counts as a failure.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn()
	b.after(err == nil)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	var from State
	changed := false
	if b.state == Open {
		if b.now().Sub(b.openedAt) <= b.settings.Timeout {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		from, changed = b.state, true
		b.state = HalfOpen
		b.successes = 0
	}
	b.mu.Unlock()
	if changed {
		b.notify(from, HalfOpen)
	}
	return nil
}

func (b *Breaker) after(success bool) {
	b.mu.Lock()
	from := b.state
	switch {
	case success && b.state == HalfOpen:
		b.successes++
		if b.successes >= b.settings.SuccessThreshold {
			b.state = Closed
			b.failures, b.successes = 0, 0
		}
	case success:
		b.failures = 0
	case b.state == HalfOpen:
		b.trip()
	default:
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.trip()
		}
	}
	to := b.state
	b.mu.Unlock()
	if from != to {
		b.notify(from, to)
	}
}

// trip must be called with the lock held.
func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.failures, b.successes = 0, 0
}

func (b *Breaker) notify(from, to State) {
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(from, to)
	}
}
