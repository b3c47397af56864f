package quota

import (
	"fmt"
	"sync"
	"time"
)

// Window tracks calls made against a fixed rolling quota window.
// All methods are safe for concurrent use; Reserve is the atomic
// admit-and-record path concurrent callers should prefer.
type Window struct {
	mu        sync.Mutex
	duration  time.Duration
	threshold int
	count     int
	start     time.Time // zero until the first recorded call or explicit roll
	now       func() time.Time
}

// New creates a Window admitting up to threshold calls per duration.
func New(duration time.Duration, threshold int) (*Window, error) {
	return NewWithBuffer(duration, 0, threshold)
}

// NewWithBuffer pads the window by buffer to absorb clock skew between this
// process and the remote service's own limiter. The effective window is
// duration + buffer.
func NewWithBuffer(duration, buffer time.Duration, threshold int) (*Window, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("quota: window duration must be greater than 0, got %v", duration)
	}
	if buffer < 0 {
		return nil, fmt.Errorf("quota: window buffer must not be negative, got %v", buffer)
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("quota: threshold must be greater than 0, got %d", threshold)
	}
	return &Window{
		duration:  duration + buffer,
		threshold: threshold,
		now:       time.Now,
	}, nil
}

// rollIfElapsed resets count and window start once the window has passed.
// Callers must hold w.mu.
func (w *Window) rollIfElapsed() {
	if w.start.IsZero() {
		return
	}
	if w.now().Sub(w.start) >= w.duration {
		w.count = 0
		w.start = time.Time{}
	}
}

// Admit reports whether a call would currently be admitted. It is advisory
// and does not consume a slot; concurrent callers racing between Admit and
// Record can jointly exceed the threshold, which is why Reserve exists.
func (w *Window) Admit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollIfElapsed()
	return w.count < w.threshold
}

// Record consumes one slot. Call it exactly once per admitted live call,
// whether or not the call succeeded: the remote limiter counted the attempt.
func (w *Window) Record() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.recordLocked()
}

func (w *Window) recordLocked() {
	if w.start.IsZero() {
		w.start = w.now()
	}
	w.count++
}

// Reserve is Admit plus Record under a single lock. It returns false without
// consuming a slot when the window is exhausted. This is the only admission
// path that holds the at-most-threshold guarantee under concurrent callers.
func (w *Window) Reserve() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollIfElapsed()
	if w.count >= w.threshold {
		return false
	}
	w.recordLocked()
	return true
}

// SetCount overwrites the call count, aligning local state with an
// authoritative remote signal. The window start is left untouched; a value
// above the threshold is kept as-is, so Admit denies until the window rolls.
func (w *Window) SetCount(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if w.start.IsZero() && n > 0 {
		// A remote signal implies calls were made this window even if this
		// process never recorded one.
		w.start = w.now()
	}
	w.count = n
}

// Count returns the calls recorded in the current window.
func (w *Window) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollIfElapsed()
	return w.count
}

// Remaining returns the slots left in the current window, rolling it first
// if it has elapsed. Negative values mean a resync reported more usage than
// the local threshold allows.
func (w *Window) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollIfElapsed()
	return w.threshold - w.count
}

// RemainingTime returns how long until the current window resets. When no
// call has been recorded yet the full window length is returned.
func (w *Window) RemainingTime() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollIfElapsed()
	if w.start.IsZero() {
		return w.duration
	}
	return w.duration - w.now().Sub(w.start)
}

// Threshold returns the maximum calls admitted per window.
func (w *Window) Threshold() int {
	return w.threshold
}

// Duration returns the effective window length including any buffer.
func (w *Window) Duration() time.Duration {
	return w.duration
}

// WindowStart returns the start of the current window, or the zero time when
// no call has been recorded since the last reset.
func (w *Window) WindowStart() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollIfElapsed()
	return w.start
}

// SetNowFunc overrides the clock. Test hook.
func (w *Window) SetNowFunc(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}
