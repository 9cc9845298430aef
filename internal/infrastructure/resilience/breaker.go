package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned for calls rejected while the breaker is open.
var ErrOpen = errors.New("resilience: circuit open")

// State is the breaker's position.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config tunes the breaker. Zero values pick conservative defaults.
type Config struct {
	// Threshold is the number of consecutive failures that opens the
	// breaker.
	Threshold uint32

	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration

	// Probes is how many trial calls the half-open state admits; that many
	// consecutive successes close the breaker, one failure reopens it.
	Probes uint32

	// OnStateChange, when set, observes every transition.
	OnStateChange func(name string, from, to State)
}

// Breaker fails fast once a dependency has proven unhealthy: after
// Threshold consecutive failures calls are rejected with ErrOpen for the
// Cooldown period, then a few probes decide whether to close again.
type Breaker struct {
	name string
	cfg  Config

	mu       sync.Mutex
	state    State
	failures uint32
	probes   uint32
	okProbes uint32
	openedAt time.Time
}

// NewBreaker creates a closed breaker named for logging.
func NewBreaker(name string, cfg Config) *Breaker {
	if cfg.Threshold == 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Probes == 0 {
		cfg.Probes = 1
	}
	return &Breaker{name: name, cfg: cfg}
}

// Name returns the breaker's label.
func (b *Breaker) Name() string { return b.name }

// State returns the current position, accounting for an elapsed cooldown.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position(time.Now())
}

// Do runs fn unless the breaker rejects the call. fn's error feeds the
// failure tracking and is returned as is.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	switch b.position(now) {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.probes >= b.cfg.Probes {
			return ErrOpen
		}
		b.probes++
	}
	return nil
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	switch b.position(now) {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.Threshold {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		if !success {
			b.transition(StateOpen, now)
			return
		}
		b.okProbes++
		if b.okProbes >= b.cfg.Probes {
			b.transition(StateClosed, now)
		}
	}
}

// position resolves the effective state at now, moving an expired open
// breaker to half-open. Callers hold b.mu.
func (b *Breaker) position(now time.Time) State {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.cfg.Cooldown {
		b.transition(StateHalfOpen, now)
	}
	return b.state
}

func (b *Breaker) transition(to State, now time.Time) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.failures = 0
	b.probes = 0
	b.okProbes = 0
	if to == StateOpen {
		b.openedAt = now
	}
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}
