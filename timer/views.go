package timer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/devscope/tracker/internal/timeutil"
	"github.com/devscope/tracker/monitor"
	"github.com/devscope/tracker/session"
)

var (
	baseStyle = lipgloss.NewStyle().Padding(1, padding)

	mainStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "235", Dark: "255"})

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "241", Dark: "247"})

	focusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")).
			SetString("Focus ")

	breakStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75")).
			SetString("Break ")

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			SetString("[idle]")

	offlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			SetString("[offline]")
)

// formatTimeRemaining returns the remaining time formatted as "MM:SS".
func (t *Timer) formatTimeRemaining() string {
	m, s := timeutil.SecsToMinsAndSecs(t.remaining().Seconds())

	return fmt.Sprintf("%02d:%02d", m, s)
}

func (t *Timer) sessionPromptView() string {
	var s strings.Builder

	title := "Your focus session is complete"
	msg := "It's time to take a well-deserved break!"

	if t.current == session.Break {
		title = "Your break is over"
		msg = "It's time to refocus and get back to work!"
	}

	s.WriteString(mainStyle.Render(title))
	s.WriteString("\n\n" + secondaryStyle.Render(msg))
	s.WriteString("\n\n" + t.help.ShortHelpView([]key.Binding{
		defaultKeymap.enter,
		defaultKeymap.quit,
	}))

	return s.String()
}

func (t *Timer) timerView() string {
	var s strings.Builder

	switch t.current {
	case session.Focus:
		s.WriteString(focusStyle.Render())
	case session.Break:
		s.WriteString(breakStyle.Render())
	}

	timeFormat := "03:04:05 PM"
	if t.Opts.Display.TwentyFourHour {
		timeFormat = "15:04:05"
	}

	if !t.clock.Running() && !t.clock.Timedout() {
		s.WriteString(secondaryStyle.Render("[Paused]"))
	} else {
		endsAt := time.Now().Add(t.remaining())
		s.WriteString(
			secondaryStyle.Render("until " + endsAt.Format(timeFormat)),
		)
	}

	if t.mon.State() == monitor.StateIdle {
		s.WriteString(" " + idleStyle.Render())
	}

	if t.sched != nil && !t.sched.Online() {
		s.WriteString(" " + offlineStyle.Render())
	}

	planned := t.Opts.Sessions.Durations[t.current]

	percent := t.remaining().Seconds() / planned.Seconds()

	s.WriteString("\n\n")
	s.WriteString(mainStyle.Render(t.formatTimeRemaining()))
	s.WriteString("\n\n")
	s.WriteString(t.progress.ViewAs(1 - percent))

	if snap, ok := t.acc.Snapshot(); ok {
		s.WriteString("\n\n")
		s.WriteString(secondaryStyle.Render(
			fmt.Sprintf(
				"active: %dm  idle: %dm",
				snap.ActiveMinutes,
				snap.IdleMinutes,
			),
		))
	}

	s.WriteString("\n\n" + t.help.ShortHelpView([]key.Binding{
		defaultKeymap.togglePlay,
		defaultKeymap.quit,
	}))

	return s.String()
}

func (t *Timer) View() string {
	if t.reflectForm != nil {
		return baseStyle.Render(t.reflectForm.View())
	}

	if t.waitForNextSession {
		return baseStyle.Render(t.sessionPromptView())
	}

	if t.clock.Timedout() {
		return ""
	}

	return baseStyle.Render(t.timerView())
}
