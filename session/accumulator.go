package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/devscope/tracker/internal/timeutil"
)

// Snapshot is a read-only rollup of the current session, suitable for
// display and for mid-session sync payloads.
type Snapshot struct {
	SessionID     string
	Name          Name
	Status        Status
	Tags          []string
	StartTime     time.Time
	ActiveTime    time.Duration
	IdleTime      time.Duration
	ActiveMinutes int
	IdleMinutes   int
	Segments      int
	Remaining     time.Duration
}

// Accumulator owns the segment timeline for at most one live session.
// It is a passive data structure: it never finalizes a session on its own,
// and it must be driven from a single goroutine.
type Accumulator struct {
	current *Session
	now     func() time.Time
}

// NewAccumulator returns an Accumulator with no live session.
func NewAccumulator() *Accumulator {
	return &Accumulator{now: time.Now}
}

// Running reports whether a session is live (running or paused).
func (a *Accumulator) Running() bool {
	return a.current != nil && a.current.Live()
}

// Start begins a new session with a single open active segment. It fails if
// a session is already live; the previous session must be finalized or
// cancelled first.
func (a *Accumulator) Start(
	name Name,
	planned time.Duration,
	tags []string,
) (*Session, error) {
	if a.Running() {
		return nil, errSessionRunning
	}

	now := a.now()

	a.current = &Session{
		ID:        uuid.NewString(),
		Name:      name,
		StartTime: now,
		Planned:   planned,
		Tags:      append([]string(nil), tags...),
		Status:    StatusRunning,
		Segments: []Segment{
			{StartTime: now, Active: true},
		},
	}

	return a.current, nil
}

// OnTransition closes the open segment and opens a new one with the given
// activity state. Redundant signals (same state as the open segment) and
// signals outside a running session are ignored, so chatter from overlapping
// input sources never produces zero-length segments.
func (a *Accumulator) OnTransition(active bool) {
	if a.current == nil || a.current.Status != StatusRunning {
		return
	}

	last := len(a.current.Segments) - 1
	if a.current.Segments[last].Active == active {
		return
	}

	now := a.now()

	a.current.Segments[last].EndTime = now
	a.current.Segments = append(a.current.Segments, Segment{
		StartTime: now,
		Active:    active,
	})
}

// Pause closes the open segment and suspends the session. Accumulated
// segments are retained.
func (a *Accumulator) Pause() error {
	if a.current == nil || a.current.Status != StatusRunning {
		return errNoSessionRunning
	}

	last := len(a.current.Segments) - 1
	a.current.Segments[last].EndTime = a.now()
	a.current.Status = StatusPaused

	return nil
}

// Resume reopens a paused session with a fresh active segment. The paused
// interval remains uncovered by any segment.
func (a *Accumulator) Resume() error {
	if a.current == nil || a.current.Status != StatusPaused {
		return errNotPaused
	}

	a.current.Segments = append(a.current.Segments, Segment{
		StartTime: a.now(),
		Active:    true,
	})
	a.current.Status = StatusRunning

	return nil
}

// Finalize completes the live session and hands it off. The accumulator
// relinquishes ownership: a copy is returned and the live reference cleared.
func (a *Accumulator) Finalize() (*Session, error) {
	return a.conclude(StatusCompleted)
}

// Cancel ends the live session prematurely. Identical to Finalize except for
// the resulting status.
func (a *Accumulator) Cancel() (*Session, error) {
	return a.conclude(StatusCancelled)
}

func (a *Accumulator) conclude(status Status) (*Session, error) {
	if !a.Running() {
		return nil, errNoSessionRunning
	}

	now := a.now()

	last := len(a.current.Segments) - 1
	if a.current.Segments[last].Open() {
		a.current.Segments[last].EndTime = now
	}

	a.current.EndTime = now
	a.current.Status = status

	sess := a.current.clone()
	a.current = nil

	return sess, nil
}

// Snapshot returns the current rollup without mutating any segment. The
// second return value is false when no session is live.
func (a *Accumulator) Snapshot() (Snapshot, bool) {
	if !a.Running() {
		return Snapshot{}, false
	}

	now := a.now()
	sess := a.current

	active := sess.ActiveTime(now)
	idle := sess.IdleTime(now)

	return Snapshot{
		SessionID:     sess.ID,
		Name:          sess.Name,
		Status:        sess.Status,
		Tags:          append([]string(nil), sess.Tags...),
		StartTime:     sess.StartTime,
		ActiveTime:    active,
		IdleTime:      idle,
		ActiveMinutes: timeutil.RoundMinutes(active),
		IdleMinutes:   timeutil.RoundMinutes(idle),
		Segments:      len(sess.Segments),
		Remaining:     sess.Remaining(now),
	}, true
}
