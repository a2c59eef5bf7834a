package app

import (
	"testing"
	"time"
)

// fakeTimer records its callback so tests fire it by hand.
type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// fakeTimers collects every timer a scheduler starts, in order.
type fakeTimers struct {
	created []*fakeTimer
}

func (f *fakeTimers) factory(d time.Duration, fn func()) Timer {
	t := &fakeTimer{fn: fn}
	f.created = append(f.created, t)
	return t
}

// fire runs the callback of an unstopped timer, simulating expiry.
func (f *fakeTimers) fire(i int) {
	t := f.created[i]
	if !t.stopped {
		t.fn()
	}
}

func TestScheduler_BurstCollapsesToOneRun(t *testing.T) {
	timers := &fakeTimers{}
	s := NewScheduler(DefaultQuietPeriod, WithTimerFactory(timers.factory))

	runs := 0
	for i := 0; i < 5; i++ {
		s.Schedule("first_name", func() { runs++ })
	}

	if len(timers.created) != 5 {
		t.Fatalf("created %d timers, want 5", len(timers.created))
	}
	for i := 0; i < 4; i++ {
		if !timers.created[i].stopped {
			t.Errorf("timer %d not stopped by replacement", i)
		}
	}
	if timers.created[4].stopped {
		t.Error("last timer stopped, want pending")
	}

	for i := range timers.created {
		timers.fire(i)
	}
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestScheduler_KeysAreIndependent(t *testing.T) {
	timers := &fakeTimers{}
	s := NewScheduler(DefaultQuietPeriod, WithTimerFactory(timers.factory))

	var ran []string
	s.Schedule("first_name", func() { ran = append(ran, "first_name") })
	s.Schedule("city", func() { ran = append(ran, "city") })

	timers.fire(0)
	timers.fire(1)

	if len(ran) != 2 {
		t.Fatalf("ran %v, want both keys", ran)
	}
}

func TestScheduler_CancelPending(t *testing.T) {
	timers := &fakeTimers{}
	s := NewScheduler(DefaultQuietPeriod, WithTimerFactory(timers.factory))

	runs := 0
	s.Schedule("first_name", func() { runs++ })
	s.CancelPending("first_name")

	timers.fire(0)
	if runs != 0 {
		t.Errorf("runs = %d, want 0 after cancel", runs)
	}

	// Cancelling a key with nothing pending is a no-op.
	s.CancelPending("city")
}

func TestScheduler_CancelAll(t *testing.T) {
	timers := &fakeTimers{}
	s := NewScheduler(DefaultQuietPeriod, WithTimerFactory(timers.factory))

	runs := 0
	s.Schedule("first_name", func() { runs++ })
	s.Schedule("city", func() { runs++ })
	s.CancelAll()

	for i := range timers.created {
		timers.fire(i)
	}
	if runs != 0 {
		t.Errorf("runs = %d, want 0 after CancelAll", runs)
	}
}

func TestScheduler_SupersededTimerNeitherRunsNorUnregistersReplacement(t *testing.T) {
	timers := &fakeTimers{}
	s := NewScheduler(DefaultQuietPeriod, WithTimerFactory(timers.factory))

	runs := 0
	s.Schedule("first_name", func() { runs++ })
	s.Schedule("first_name", func() { runs++ })

	// A replaced timer's callback can already be in flight when Stop
	// reports failure. Invoking it directly simulates that window: it
	// must not run, and it must not remove the replacement's entry.
	timers.created[0].fn()
	if runs != 0 {
		t.Fatalf("runs = %d, superseded timer executed", runs)
	}

	// The replacement is still registered, so it can still be cancelled.
	s.CancelPending("first_name")
	if !timers.created[1].stopped {
		t.Error("replacement timer not stopped by CancelPending")
	}
	timers.created[1].fn()
	if runs != 0 {
		t.Errorf("runs = %d, want 0 after cancellation", runs)
	}
}

func TestScheduler_RescheduleAfterFire(t *testing.T) {
	timers := &fakeTimers{}
	s := NewScheduler(DefaultQuietPeriod, WithTimerFactory(timers.factory))

	runs := 0
	s.Schedule("first_name", func() { runs++ })
	timers.fire(0)
	s.Schedule("first_name", func() { runs++ })
	timers.fire(1)

	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestScheduler_RealTimers(t *testing.T) {
	s := NewScheduler(5 * time.Millisecond)

	done := make(chan struct{})
	s.Schedule("first_name", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced run never fired")
	}
}
