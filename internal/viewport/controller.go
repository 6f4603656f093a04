// Package viewport tracks whether the visible window of a chart is
// auto-following the newest bar or pinned by the user, and decides how the
// window moves when new data arrives.
//
// The transition table is the source of truth; the decay timer is only its
// trigger mechanism:
//
//	gesture            → UserControlled, decay timer (re)started
//	decay timer fires  → AutoFollow
//	ResetInteraction   → AutoFollow, timer cleared
//	data + AutoFollow  → preserve bar count, shift to newest bar + offset
//	data + UserControl → range untouched
package viewport

import (
	"sync"
	"time"
)

// Mode is the interaction state of the visible window.
type Mode int

const (
	AutoFollow Mode = iota
	UserControlled
)

func (m Mode) String() string {
	if m == UserControlled {
		return "user_controlled"
	}
	return "auto_follow"
}

// Range is a logical bar-index window into the candle sequence — not
// pixels, not timestamps.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// DefaultDecay is how long user control lasts without further gestures.
const DefaultDecay = 30 * time.Second

// Controller owns the interaction state machine for one chart instance.
type Controller struct {
	mu          sync.Mutex
	mode        Mode
	rng         Range
	hasRange    bool
	lastGesture time.Time
	decay       time.Duration
	rightOffset int
	timer       *time.Timer
	timerGen    uint64
	closed      bool

	// onTransition is invoked (outside the lock) whenever mode changes.
	onTransition func(Mode)
}

// New creates a controller in AutoFollow. A non-positive decay falls back
// to DefaultDecay. rightOffset is the bar gap kept after the newest bar
// when auto-following.
func New(decay time.Duration, rightOffset int) *Controller {
	if decay <= 0 {
		decay = DefaultDecay
	}
	if rightOffset < 0 {
		rightOffset = 0
	}
	return &Controller{decay: decay, rightOffset: rightOffset}
}

// OnTransition registers a mode-change callback (metrics, logging).
func (c *Controller) OnTransition(fn func(Mode)) {
	c.mu.Lock()
	c.onTransition = fn
	c.mu.Unlock()
}

// Mode returns the current interaction state.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Range returns the current visible range, false if none was set yet.
func (c *Controller) Range() (Range, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng, c.hasRange
}

// LastGesture returns the time of the most recent qualifying gesture.
func (c *Controller) LastGesture() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastGesture, !c.lastGesture.IsZero()
}

// OnGesture records a qualifying user gesture (wheel, drag, touch): the
// window becomes user-controlled and the decay timer restarts.
func (c *Controller) OnGesture(at time.Time) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	changed := c.mode != UserControlled
	c.mode = UserControlled
	c.lastGesture = at
	if c.timer != nil {
		c.timer.Stop()
	}
	// The generation ties the callback to this arming: a timer that
	// already fired when Stop was called carries a stale generation and
	// must not end the fresh gesture's control.
	c.timerGen++
	gen := c.timerGen
	c.timer = time.AfterFunc(c.decay, func() { c.decayFired(gen) })
	fn := c.onTransition
	c.mu.Unlock()

	if changed && fn != nil {
		fn(UserControlled)
	}
}

// decayFired returns control to auto-follow after the idle period.
// A superseded generation means a newer gesture re-armed the timer after
// this callback was already in flight.
func (c *Controller) decayFired(gen uint64) {
	c.mu.Lock()
	if c.closed || c.mode != UserControlled || gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	c.mode = AutoFollow
	fn := c.onTransition
	c.mu.Unlock()

	if fn != nil {
		fn(AutoFollow)
	}
}

// SetRange records the range produced by a user pan/zoom on the surface.
func (c *Controller) SetRange(r Range) {
	c.mu.Lock()
	c.rng = r
	c.hasRange = true
	c.mu.Unlock()
}

// OnData evaluates the visible range after a series mutation. lastIndex is
// the index of the newest bar. The returned bool reports whether the
// surface should apply the returned range; while user-controlled the range
// is left untouched and false is returned.
func (c *Controller) OnData(lastIndex int) (Range, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if lastIndex < 0 {
		return Range{}, false
	}
	if c.mode == UserControlled {
		return c.rng, false
	}

	if !c.hasRange {
		// First load: fit the entire series.
		c.rng = Range{From: 0, To: lastIndex}
		c.hasRange = true
		return c.rng, true
	}

	// Preserve the bar count, shift to end at the newest bar + offset.
	width := c.rng.To - c.rng.From
	to := lastIndex + c.rightOffset
	from := to - width
	c.rng = Range{From: from, To: to}
	return c.rng, true
}

// ResetInteraction forces auto-follow and clears the decay timer,
// independent of elapsed time.
func (c *Controller) ResetInteraction() {
	c.mu.Lock()
	changed := c.mode != AutoFollow
	c.mode = AutoFollow
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	fn := c.onTransition
	c.mu.Unlock()

	if changed && fn != nil {
		fn(AutoFollow)
	}
}

// Close stops the decay timer. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
}
