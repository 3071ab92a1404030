// Package countdown provides a single-fire countdown timer for a quiz
// attempt. The expiry callback runs at most once and never after Cancel has
// returned true.
package countdown

import (
	"errors"
	"sync"
	"time"
)

type State int

const (
	Idle State = iota
	Running
	Expired
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Expired:
		return "expired"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var ErrAlreadyStarted = errors.New("countdown already started")

const DefaultTick = time.Second

type Option func(*Timer)

// WithTick sets how often remaining time is recomputed.
func WithTick(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.tick = d
		}
	}
}

// WithOnTick registers a display hook called on every tick while running.
func WithOnTick(fn func(remaining time.Duration)) Option {
	return func(t *Timer) {
		t.onTick = fn
	}
}

type Timer struct {
	tick   time.Duration
	onTick func(time.Duration)
	now    func() time.Time

	mu       sync.Mutex
	state    State
	deadline time.Time
	stop     chan struct{}
}

func New(opts ...Option) *Timer {
	t := &Timer{tick: DefaultTick, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins counting down from duration. onExpire runs on the timer's
// goroutine once the deadline has passed. A non-positive duration expires on
// the first tick.
func (t *Timer) Start(duration time.Duration, onExpire func()) error {
	t.mu.Lock()
	if t.state != Idle {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.state = Running
	t.deadline = t.now().Add(duration)
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	go t.run(stop, onExpire)
	return nil
}

func (t *Timer) run(stop <-chan struct{}, onExpire func()) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		remaining, fire := t.advance()
		if fire {
			if t.onTick != nil {
				t.onTick(0)
			}
			if onExpire != nil {
				onExpire()
			}
			return
		}
		if remaining < 0 {
			// Cancelled between ticks.
			return
		}
		if t.onTick != nil {
			t.onTick(remaining)
		}
	}
}

// advance decides expiry under the lock. It returns fire=true exactly once.
func (t *Timer) advance() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running {
		return -1, false
	}
	remaining := t.deadline.Sub(t.now())
	if remaining > 0 {
		return remaining, false
	}
	t.state = Expired
	return 0, true
}

// Cancel stops a running timer. It reports whether this call prevented the
// expiry callback; false means the timer was not running.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running {
		return false
	}
	t.state = Cancelled
	close(t.stop)
	return true
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Remaining is the time left while running and zero in any other state.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running {
		return 0
	}
	remaining := t.deadline.Sub(t.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
