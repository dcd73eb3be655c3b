package breaker

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// State of a Breaker.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker stops calling a failing Google API after a run of consecutive
// failures and lets a single trial call through once the cool-down has passed.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	probing     bool

	// OnStateChange is called with the new state after every transition.
	OnStateChange func(name string, s State)
}

var nowFunc = time.Now

// New returns a closed Breaker. A maxFailures below 1 disables tripping.
func New(name string, maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
	}
}

// Execute runs fn unless the breaker is open. Errors for which ignore
// returns true are passed through without counting as failures.
func (b *Breaker) Execute(fn func() error, ignore ...func(error) bool) error {
	if b == nil {
		return fn()
	}
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	for _, skip := range ignore {
		if err != nil && skip(err) {
			b.release()
			return err
		}
	}
	b.record(err)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if nowFunc().Sub(b.lastFailure) < b.resetTimeout {
			return ErrCircuitOpen
		}
		b.setState(HalfOpen)
		b.probing = true
	case HalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) release() {
	b.mu.Lock()
	b.probing = false
	b.mu.Unlock()
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err == nil {
		b.failures = 0
		if b.state != Closed {
			b.setState(Closed)
		}
		return
	}

	b.failures++
	b.lastFailure = nowFunc()
	if b.state == HalfOpen || (b.maxFailures > 0 && b.failures >= b.maxFailures) {
		if b.state != Open {
			b.setState(Open)
		}
	}
}

// setState must be called with mu held.
func (b *Breaker) setState(s State) {
	b.state = s
	log.WithFields(log.Fields{"breaker": b.name, "state": s.String()}).Warn("circuit breaker state change")
	if b.OnStateChange != nil {
		b.OnStateChange(b.name, s)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
