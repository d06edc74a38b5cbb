// Package monitor classifies the user as active or idle from the recency of
// observed input events
package monitor

import (
	"time"

	"github.com/devscope/tracker/internal/apperr"
)

// State is the monitor's view of the user.
type State string

const (
	StateActive State = "active"
	StateIdle   State = "idle"
)

var errThresholdTooLow = &apperr.Error{
	Message: "idle threshold (%v) must be greater than the poll interval (%v)",
}

// TransitionFunc receives activity transitions. It is called with true when
// the user becomes active again and false when they go idle.
type TransitionFunc func(active bool)

// Config holds the monitor timing parameters.
type Config struct {
	// IdleThreshold is how long input may be absent before the user is
	// considered idle.
	IdleThreshold time.Duration
	// PollInterval is how often Check is expected to be driven. The idle
	// threshold must exceed it, otherwise detection lag would swallow the
	// threshold itself.
	PollInterval time.Duration
}

// Monitor tracks the most recent input event and flips between active and
// idle. It holds no timer of its own: the owning controller drives Check on
// its poll interval. Not safe for concurrent use; all methods must be called
// from the controller's event loop.
type Monitor struct {
	onTransition TransitionFunc
	now          func() time.Time
	lastInput    time.Time
	state        State
	cfg          Config
}

// New validates the timing configuration and returns a monitor in the
// active state.
func New(cfg Config, fn TransitionFunc) (*Monitor, error) {
	if cfg.IdleThreshold <= cfg.PollInterval {
		return nil, errThresholdTooLow.Fmt(cfg.IdleThreshold, cfg.PollInterval)
	}

	m := &Monitor{
		cfg:          cfg,
		onTransition: fn,
		now:          time.Now,
		state:        StateActive,
	}
	m.lastInput = m.now()

	return m, nil
}

// RecordInput registers an input event (keystroke, pointer movement, edit,
// focus regain). An idle monitor flips back to active immediately and emits
// an active transition.
func (m *Monitor) RecordInput() {
	m.lastInput = m.now()

	if m.state == StateIdle {
		m.state = StateActive
		m.emit(true)
	}
}

// Check compares the time since the last input against the idle threshold
// and emits an idle transition when it is exceeded. The controller calls
// this once per poll interval, bounding detection lag to one interval.
func (m *Monitor) Check() {
	if m.state != StateActive {
		return
	}

	if m.now().Sub(m.lastInput) > m.cfg.IdleThreshold {
		m.state = StateIdle
		m.emit(false)
	}
}

// Reset restores the active state and the last-input timestamp. Called when
// a new session starts so stale idle state never leaks across sessions.
func (m *Monitor) Reset() {
	m.lastInput = m.now()
	m.state = StateActive
}

// State returns the monitor's current classification.
func (m *Monitor) State() State {
	return m.state
}

// LastInput returns the timestamp of the most recent input event.
func (m *Monitor) LastInput() time.Time {
	return m.lastInput
}

// PollInterval returns the configured check period for the controller's
// ticker.
func (m *Monitor) PollInterval() time.Duration {
	return m.cfg.PollInterval
}

func (m *Monitor) emit(active bool) {
	if m.onTransition != nil {
		m.onTransition(active)
	}
}
