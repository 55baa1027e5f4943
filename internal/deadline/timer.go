// Package deadline provides a pausable, resumable, extendable countdown
// that exposes a single one-shot cancellation signal. A tool call's budget
// must not advance while the call is suspended (for example awaiting a
// human confirmation) but must advance while it is actually executing.
package deadline

import (
	"sync"
	"time"
)

// ReasonExpired is the abort reason recorded when the budget runs out.
const ReasonExpired = "deadline expired"

// Timer counts down a time budget and closes its Done channel exactly once,
// either when the budget is exhausted or when Abort is called. After the
// signal fires every mutating method is a no-op.
type Timer struct {
	mu          sync.Mutex
	remaining   time.Duration
	paused      bool
	fired       bool
	reason      string
	lastResume  time.Time
	underlying  *time.Timer
	done        chan struct{}
	now         func() time.Time
	newDeadline func(d time.Duration, fn func()) *time.Timer
}

// New creates a running Timer with the given budget.
func New(budget time.Duration) *Timer {
	t := &Timer{
		remaining:   budget,
		done:        make(chan struct{}),
		now:         time.Now,
		newDeadline: time.AfterFunc,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startLocked()
	return t
}

// NewPaused creates a Timer that holds its full budget until Resume.
func NewPaused(budget time.Duration) *Timer {
	return &Timer{
		remaining:   budget,
		paused:      true,
		done:        make(chan struct{}),
		now:         time.Now,
		newDeadline: time.AfterFunc,
	}
}

// Done returns the cancellation signal. The channel is closed exactly once.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

// Pause freezes the remaining budget and cancels the pending expiry.
// Idempotent if already paused or already fired.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.paused {
		return
	}
	t.remaining -= t.now().Sub(t.lastResume)
	if t.remaining < 0 {
		t.remaining = 0
	}
	t.stopLocked()
	t.paused = true
}

// Resume restarts the countdown from the frozen remaining budget.
// Idempotent if not paused or already fired.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || !t.paused {
		return
	}
	t.paused = false
	t.startLocked()
}

// Extend adds delta to the remaining budget, whether paused or running.
// No-op after the signal has fired.
func (t *Timer) Extend(delta time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired {
		return
	}
	if t.paused {
		t.remaining += delta
		return
	}
	t.remaining = t.remaining - t.now().Sub(t.lastResume) + delta
	t.stopLocked()
	t.startLocked()
}

// Abort fires the signal immediately with the given reason.
// Idempotent once fired.
func (t *Timer) Abort(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fireLocked(reason)
}

// Fired reports whether the signal has fired.
func (t *Timer) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Reason returns the abort reason, or "" if the timer has not fired.
func (t *Timer) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Remaining returns the budget left on the clock.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired {
		return 0
	}
	if t.paused {
		return t.remaining
	}
	rem := t.remaining - t.now().Sub(t.lastResume)
	if rem < 0 {
		return 0
	}
	return rem
}

// startLocked arms the underlying expiry. Caller holds t.mu.
func (t *Timer) startLocked() {
	if t.remaining <= 0 {
		t.fireLocked(ReasonExpired)
		return
	}
	t.lastResume = t.now()
	t.underlying = t.newDeadline(t.remaining, t.expire)
}

// stopLocked disarms the underlying expiry. Caller holds t.mu.
func (t *Timer) stopLocked() {
	if t.underlying != nil {
		t.underlying.Stop()
		t.underlying = nil
	}
}

func (t *Timer) expire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		// A Pause raced the expiry callback; the frozen budget stands.
		return
	}
	t.fireLocked(ReasonExpired)
}

// fireLocked closes the signal once. Caller holds t.mu.
func (t *Timer) fireLocked(reason string) {
	if t.fired {
		return
	}
	t.fired = true
	t.reason = reason
	t.stopLocked()
	close(t.done)
}
