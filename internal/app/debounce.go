package app

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the debounce window for live field validation.
const DefaultQuietPeriod = 300 * time.Millisecond

// Timer is the stoppable handle the scheduler keeps per key. time.Timer
// satisfies it; tests substitute a manual implementation.
type Timer interface {
	Stop() bool
}

// TimerFactory starts a timer that fires fn once after d. Injected so
// tests can drive firing without wall-clock waits.
type TimerFactory func(d time.Duration, fn func()) Timer

func afterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Scheduler provides trailing-edge debounce with one pending timer per
// key. Scheduling a key that already has a pending run replaces it, so a
// burst of calls collapses into a single execution after the quiet period.
type Scheduler struct {
	mu       sync.Mutex
	delay    time.Duration
	newTimer TimerFactory
	pending  map[string]Timer
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTimerFactory replaces the timer source, for tests.
func WithTimerFactory(f TimerFactory) SchedulerOption {
	return func(s *Scheduler) { s.newTimer = f }
}

// NewScheduler creates a scheduler with the given quiet period.
func NewScheduler(delay time.Duration, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		delay:    delay,
		newTimer: afterFunc,
		pending:  make(map[string]Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule runs fn after the quiet period, replacing any pending run for
// the same key.
func (s *Scheduler) Schedule(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.pending[key]; ok {
		t.Stop()
	}

	// Stop can report failure when the old timer's callback is already in
	// flight and blocked on the mutex. The callback checks it still owns
	// the key's entry, so a superseded run neither executes nor
	// unregisters its replacement.
	var t Timer
	t = s.newTimer(s.delay, func() {
		s.mu.Lock()
		current := s.pending[key] == t
		if current {
			delete(s.pending, key)
		}
		s.mu.Unlock()
		if current {
			fn()
		}
	})
	s.pending[key] = t
}

// CancelPending stops any pending run for the key.
func (s *Scheduler) CancelPending(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.pending[key]; ok {
		t.Stop()
		delete(s.pending, key)
	}
}

// CancelAll stops every pending run. Called when a wizard session ends.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.pending {
		t.Stop()
		delete(s.pending, key)
	}
}
