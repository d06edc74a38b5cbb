// Package stats computes rollups over archived sessions
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/devscope/tracker/config"
	"github.com/devscope/tracker/internal/timeutil"
	"github.com/devscope/tracker/internal/ui"
	"github.com/devscope/tracker/session"
)

// Summary is the aggregate view of a set of sessions.
type Summary struct {
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	Days          []DayTotal `json:"days"`
	Sessions      int        `json:"sessions"`
	Completed     int        `json:"completed"`
	Cancelled     int        `json:"cancelled"`
	ActiveMinutes int        `json:"active_minutes"`
	IdleMinutes   int        `json:"idle_minutes"`
}

// DayTotal is the per-day breakdown.
type DayTotal struct {
	Date          string `json:"date"`
	Sessions      int    `json:"sessions"`
	ActiveMinutes int    `json:"active_minutes"`
	IdleMinutes   int    `json:"idle_minutes"`
}

// Stats computes and renders session statistics.
type Stats struct {
	Opts    *config.FilterConfig
	Summary Summary
}

// Compute aggregates the given sessions. Only focus sessions contribute to
// the totals; break sessions are bookkeeping, not work.
func (s *Stats) Compute(sessions []*session.Session) {
	s.Summary = Summary{
		StartTime: s.Opts.StartTime,
		EndTime:   s.Opts.EndTime,
	}

	days := make(map[string]*DayTotal)

	for _, sess := range sessions {
		if sess.Name != session.Focus {
			continue
		}

		s.Summary.Sessions++

		switch sess.Status {
		case session.StatusCompleted:
			s.Summary.Completed++
		case session.StatusCancelled:
			s.Summary.Cancelled++
		}

		active := sess.ActiveMinutes(sess.EndTime)
		idle := sess.IdleMinutes(sess.EndTime)

		s.Summary.ActiveMinutes += active
		s.Summary.IdleMinutes += idle

		date := sess.StartTime.Format(time.DateOnly)

		d, ok := days[date]
		if !ok {
			d = &DayTotal{Date: date}
			days[date] = d
		}

		d.Sessions++
		d.ActiveMinutes += active
		d.IdleMinutes += idle
	}

	for _, d := range days {
		s.Summary.Days = append(s.Summary.Days, *d)
	}

	sort.Slice(s.Summary.Days, func(i, j int) bool {
		return s.Summary.Days[i].Date < s.Summary.Days[j].Date
	})
}

// ToJSON returns the computed summary as JSON.
func (s *Stats) ToJSON() ([]byte, error) {
	return json.Marshal(s.Summary)
}

// Print writes the summary tables to the given writer.
func (s *Stats) Print(w io.Writer) {
	hrs, mins := timeutil.MinsToHoursAndMins(s.Summary.ActiveMinutes)

	fmt.Fprintf(
		w,
		"%s: %d (%d completed, %d cancelled)\n",
		ui.Highlight("Focus sessions"),
		s.Summary.Sessions,
		s.Summary.Completed,
		s.Summary.Cancelled,
	)
	fmt.Fprintf(
		w,
		"%s: %s\n",
		ui.Highlight("Active time"),
		ui.Green(fmt.Sprintf("%dh %02dm", hrs, mins)),
	)
	fmt.Fprintf(
		w,
		"%s: %s\n\n",
		ui.Highlight("Idle time"),
		ui.Red(fmt.Sprintf("%dm", s.Summary.IdleMinutes)),
	)

	if len(s.Summary.Days) == 0 {
		return
	}

	data := [][]string{
		{"DATE", "SESSIONS", "ACTIVE (MINS)", "IDLE (MINS)"},
	}

	for _, d := range s.Summary.Days {
		data = append(data, []string{
			d.Date,
			fmt.Sprintf("%d", d.Sessions),
			fmt.Sprintf("%d", d.ActiveMinutes),
			fmt.Sprintf("%d", d.IdleMinutes),
		})
	}

	ui.PrintTable(data, w)
}
