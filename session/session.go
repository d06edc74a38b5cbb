// Package session defines tracking sessions and their activity timeline
package session

import (
	"time"

	"github.com/devscope/tracker/internal/timeutil"
)

// Name represents the session name.
type Name string

const (
	Focus Name = "focus"
	Break Name = "break"
)

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Segment is a contiguous stretch of time classified as active or idle.
// A zero EndTime marks the segment as still open.
type Segment struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Active    bool      `json:"active"`
}

// Open reports whether the segment is still accumulating.
func (s Segment) Open() bool {
	return s.EndTime.IsZero()
}

// Duration returns the length of the segment, substituting now for the
// end of an open segment.
func (s Segment) Duration(now time.Time) time.Duration {
	end := s.EndTime
	if s.Open() {
		end = now
	}

	return end.Sub(s.StartTime)
}

// Session represents a focus or break session and its activity timeline.
// Segments are contiguous and non-overlapping within a running stretch;
// at most one segment is open at any time. Pausing closes the open segment,
// so the paused interval is covered by no segment at all.
type Session struct {
	ID        string        `json:"id"`
	Name      Name          `json:"name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Planned   time.Duration `json:"planned"`
	Tags      []string      `json:"tags"`
	Segments  []Segment     `json:"segments"`
	Status    Status        `json:"status"`
}

// Live reports whether the session is still owned by the tracker.
func (s *Session) Live() bool {
	return s.Status == StatusRunning || s.Status == StatusPaused
}

// ActiveTime sums the durations of all active segments.
func (s *Session) ActiveTime(now time.Time) time.Duration {
	return s.sum(now, true)
}

// IdleTime sums the durations of all idle segments.
func (s *Session) IdleTime(now time.Time) time.Duration {
	return s.sum(now, false)
}

func (s *Session) sum(now time.Time, active bool) time.Duration {
	var total time.Duration

	for _, seg := range s.Segments {
		if seg.Active == active {
			total += seg.Duration(now)
		}
	}

	return total
}

// ActiveMinutes returns the active time in whole minutes (round-half-up).
func (s *Session) ActiveMinutes(now time.Time) int {
	return timeutil.RoundMinutes(s.ActiveTime(now))
}

// IdleMinutes returns the idle time in whole minutes (round-half-up).
func (s *Session) IdleMinutes(now time.Time) int {
	return timeutil.RoundMinutes(s.IdleTime(now))
}

// Elapsed returns the time covered by segments, i.e. wall-clock time minus
// any paused intervals.
func (s *Session) Elapsed(now time.Time) time.Duration {
	var total time.Duration

	for _, seg := range s.Segments {
		total += seg.Duration(now)
	}

	return total
}

// Remaining returns the time left until the planned duration is reached.
func (s *Session) Remaining(now time.Time) time.Duration {
	r := s.Planned - s.Elapsed(now)
	if r < 0 {
		r = 0
	}

	return r
}

// clone returns a deep copy for hand-off once the session is finalized.
func (s *Session) clone() *Session {
	c := *s

	c.Tags = append([]string(nil), s.Tags...)
	c.Segments = append([]Segment(nil), s.Segments...)

	return &c
}
