package timer

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	btimer "github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/davecgh/go-spew/spew"

	"github.com/devscope/tracker/session"
	"github.com/devscope/tracker/syncer"
)

func (t *Timer) Init() tea.Cmd {
	if err := t.newSession(t.current); err != nil {
		slog.Error("starting session failed", slog.Any("error", err))
		return tea.Quit
	}

	return t.clock.Init()
}

// handleTimerTick processes the once-per-second countdown tick. The tick
// also drives the idle check and queues the periodic sync; delivery itself
// runs in a background command so a slow backend never stalls the loop.
func (t *Timer) handleTimerTick(msg btimer.TickMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	t.clock, cmd = t.clock.Update(msg)

	t.mon.Check()

	flush := t.syncTick()

	_ = t.writeStatusFile()

	return t, tea.Batch(cmd, flush)
}

// handleTimerStartStop keeps the accumulator's pause state in step with the
// countdown clock.
func (t *Timer) handleTimerStartStop(
	msg btimer.StartStopMsg,
) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	t.clock, cmd = t.clock.Update(msg)

	if t.clock.Running() {
		if err := t.acc.Resume(); err == nil {
			t.mon.Reset()
		}
	} else {
		_ = t.acc.Pause()
	}

	return t, cmd
}

// handleReflectionForm routes messages to the post-session form until it
// completes. The session's final payload is already queued by this point;
// the answers become a follow-up payload.
func (t *Timer) handleReflectionForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		t.annotate()
		t.completed = nil
		t.reflectForm = nil

		return t, tea.Batch(tea.ClearScreen, t.flushCmd(), tea.Quit)
	}

	form, cmd := t.reflectForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.reflectForm = f

		if t.reflectForm.State == huh.StateCompleted {
			t.annotate()
			t.completed = nil
			t.reflectForm = nil

			flush := t.flushCmd()

			model, next := t.beginNextSession()

			return model, tea.Batch(flush, next)
		}
	}

	return t, cmd
}

// beginNextSession starts the next session immediately or waits for the
// user, depending on the auto-start setting.
func (t *Timer) beginNextSession() (tea.Model, tea.Cmd) {
	next := t.nextSession(t.current)

	if next == session.Break && !t.Opts.Sessions.AutoStartBreak {
		t.waitForNextSession = true
		return t, nil
	}

	if err := t.newSession(next); err != nil {
		slog.Error("starting session failed", slog.Any("error", err))
		return t, tea.Quit
	}

	return t, t.clock.Init()
}

func (t *Timer) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Every keypress is user input as far as idle detection is concerned.
	t.mon.RecordInput()

	switch {
	case key.Matches(msg, defaultKeymap.enter):
		if !t.waitForNextSession {
			return t, nil
		}

		t.waitForNextSession = false

		if err := t.newSession(t.nextSession(t.current)); err != nil {
			slog.Error("starting session failed", slog.Any("error", err))
			return t, tea.Quit
		}

		return t, t.clock.Init()

	case key.Matches(msg, defaultKeymap.togglePlay):
		if !t.acc.Running() || t.clock.Timedout() {
			return t, nil
		}

		return t, t.clock.Toggle()

	case key.Matches(msg, defaultKeymap.quit):
		var flush tea.Cmd

		if t.acc.Running() {
			t.cancelSession()
			flush = t.flushCmd()
		}

		_ = t.removeStatusFile()

		return t, tea.Batch(tea.ClearScreen, flush, tea.Quit)
	}

	return t, nil
}

func (t *Timer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Flush results are folded in regardless of what the view is showing.
	if res, ok := msg.(syncer.FlushResult); ok {
		if t.sched != nil {
			t.sched.CompleteFlush(res)
		}

		return t, nil
	}

	if t.reflectForm != nil {
		return t.handleReflectionForm(msg)
	}

	switch msg := msg.(type) {
	case btimer.TickMsg:
		return t.handleTimerTick(msg)

	case btimer.StartStopMsg:
		return t.handleTimerStartStop(msg)

	case btimer.TimeoutMsg:
		if err := t.completeSession(); err != nil {
			slog.Error("completing session failed", slog.Any("error", err))
			return t, tea.Quit
		}

		flush := t.flushCmd()

		if t.reflectForm != nil {
			return t, tea.Batch(flush, t.reflectForm.Init())
		}

		model, next := t.beginNextSession()

		return model, tea.Batch(flush, next)

	case tea.KeyMsg:
		return t.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		t.progress.Width = msg.Width - padding*2 - 4
		if t.progress.Width > maxWidth {
			t.progress.Width = maxWidth
		}

		return t, nil

		// FrameMsg is sent when the progress bar wants to animate itself
	case progress.FrameMsg:
		var progressModel tea.Model

		progressModel, cmd := t.progress.Update(msg)
		t.progress, _ = progressModel.(progress.Model)

		return t, cmd
	}

	slog.Debug(spew.Sdump(msg))

	return t, nil
}
