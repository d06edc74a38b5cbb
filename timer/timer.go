// Package timer operates the session countdown and wires the activity
// monitor, the session accumulator, and the sync scheduler together
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	btimer "github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/gen2brain/beeep"
	"github.com/kballard/go-shellquote"

	"github.com/devscope/tracker/api"
	"github.com/devscope/tracker/config"
	"github.com/devscope/tracker/monitor"
	"github.com/devscope/tracker/session"
	"github.com/devscope/tracker/store"
	"github.com/devscope/tracker/syncer"
)

const (
	padding  = 2
	maxWidth = 80
)

// Timer runs tracking sessions and owns their lifecycle. It is a bubbletea
// model: all monitor checks, accumulator transitions, and sync ticks happen
// on its single event loop.
type Timer struct {
	Opts *config.Config

	acc   *session.Accumulator
	mon   *monitor.Monitor
	sched *syncer.Scheduler
	db    store.DB

	clock    btimer.Model
	progress progress.Model
	help     help.Model

	reflectForm *huh.Form
	completed   *session.Session
	mood        string
	note        string

	current            session.Name
	waitForNextSession bool
}

// New creates a timer for the given configuration. The sync scheduler is
// only attached when syncing is enabled and a backend URL is configured;
// tracking works fully offline without it.
func New(db store.DB, cfg *config.Config) (*Timer, error) {
	t := &Timer{
		Opts:     cfg,
		db:       db,
		acc:      session.NewAccumulator(),
		progress: progress.New(progress.WithDefaultGradient()),
		help:     help.New(),
		current:  session.Focus,
	}

	mon, err := monitor.New(
		monitor.Config{
			IdleThreshold: cfg.Tracker.IdleThreshold,
			PollInterval:  cfg.Tracker.PollInterval,
		},
		t.acc.OnTransition,
	)
	if err != nil {
		return nil, err
	}

	t.mon = mon

	if cfg.Sync.Enabled && cfg.Sync.APIBaseURL != "" {
		client, err := api.NewClient(cfg.Sync.APIBaseURL, cfg.Sync.APIToken)
		if err != nil {
			return nil, err
		}

		t.sched = syncer.New(
			client,
			db,
			syncer.WithInterval(cfg.Sync.Interval),
			syncer.WithRetention(cfg.Sync.Retention),
		)
	} else {
		slog.Info("sync disabled, sessions are tracked locally only")
	}

	return t, nil
}

// newSession starts a session of the given type in the accumulator and
// resets the monitor so stale idle state never leaks across sessions.
func (t *Timer) newSession(name session.Name) error {
	planned := t.Opts.Sessions.Durations[name]

	_, err := t.acc.Start(name, planned, t.Opts.Sessions.Tags)
	if err != nil {
		return err
	}

	t.current = name
	t.mon.Reset()
	t.clock = btimer.New(planned)

	return nil
}

// nextSession retrieves the name of the next session.
func (t *Timer) nextSession(current session.Name) session.Name {
	if current == session.Focus {
		return session.Break
	}

	return session.Focus
}

// completeSession finalizes the running session when the planned duration
// elapses. The final payload is queued before the reflection form opens, so
// an abandoned form never loses the session.
func (t *Timer) completeSession() error {
	sess, err := t.acc.Finalize()
	if err != nil {
		return err
	}

	t.archive(sess)
	t.handOff(sess, nil)

	if sess.Name == session.Focus {
		t.completed = sess
		t.reflectForm = t.newReflectionForm()
	}

	return nil
}

// cancelSession ends the running session prematurely. The final payload is
// still queued; cancelled time is data, not garbage.
func (t *Timer) cancelSession() {
	sess, err := t.acc.Cancel()
	if err != nil {
		return
	}

	t.archive(sess)
	t.handOff(sess, nil)
}

// handOff queues the final payload for a concluded session and notifies the
// external collaborators (notification, session command).
func (t *Timer) handOff(sess *session.Session, meta map[string]any) {
	if t.sched != nil {
		t.sched.OnSessionFinalized(sess, meta)
	}

	if sess.Status == session.StatusCompleted {
		t.notify(sess)

		if err := t.runSessionCmd(t.Opts.System.SessionCmd); err != nil {
			slog.Error("session command failed", slog.Any("error", err))
		}
	}
}

// annotate queues a follow-up payload carrying the reflection answers for
// the session whose final payload was already recorded.
func (t *Timer) annotate() {
	if t.sched == nil || t.completed == nil {
		return
	}

	t.sched.Annotate(t.completed, t.reflectionMeta())
}

// archive saves a concluded session to the local store.
func (t *Timer) archive(sess *session.Session) {
	if err := t.db.SaveSession(sess); err != nil {
		slog.Error("archiving session failed",
			slog.String("session_id", sess.ID),
			slog.Any("error", err),
		)
	}
}

// notify sends a desktop notification announcing the end of a session.
func (t *Timer) notify(sess *session.Session) {
	if !t.Opts.Notification.Enabled {
		return
	}

	title := "Focus session complete"
	msg := "It's time to take a well-deserved break!"

	if sess.Name == session.Break {
		title = "Break is over"
		msg = "It's time to refocus and get back to work!"
	}

	if err := beeep.Notify(title, msg, ""); err != nil {
		slog.Error("desktop notification failed", slog.Any("error", err))
	}
}

// runSessionCmd executes the user's configured post-session command.
func (t *Timer) runSessionCmd(sessionCmd string) error {
	if sessionCmd == "" {
		return nil
	}

	cmdSlice, err := shellquote.Split(sessionCmd)
	if err != nil {
		return fmt.Errorf("unable to parse session cmd option: %w", err)
	}

	if len(cmdSlice) == 0 {
		return nil
	}

	cmd := exec.Command(cmdSlice[0], cmdSlice[1:]...)

	return cmd.Run()
}

// newReflectionForm builds the post-session mood capture form. Its answers
// travel with the final sync payload as metadata.
func (t *Timer) newReflectionForm() *huh.Form {
	t.mood = ""
	t.note = ""

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How did this session feel?").
				Options(
					huh.NewOption("Focused", "focused"),
					huh.NewOption("Neutral", "neutral"),
					huh.NewOption("Distracted", "distracted"),
				).
				Value(&t.mood),
			huh.NewInput().
				Title("Anything worth noting?").
				Value(&t.note),
		),
	)
}

// reflectionMeta converts the reflection answers into payload metadata.
func (t *Timer) reflectionMeta() map[string]any {
	meta := make(map[string]any)

	if t.mood != "" {
		meta["mood"] = t.mood
	}

	if t.note != "" {
		meta["note"] = t.note
	}

	return meta
}

// syncTick queues a snapshot of the running session when a periodic sync is
// due and returns a command that flushes the queue in the background.
func (t *Timer) syncTick() tea.Cmd {
	if t.sched == nil || !t.sched.Due() {
		return nil
	}

	if snap, ok := t.acc.Snapshot(); ok {
		t.sched.OnTick(snap)
	}

	return t.flushCmd()
}

// flushCmd marks the pending payloads inflight and returns a command that
// delivers them off the event loop. The countdown, the idle check, and
// input handling keep running while a flush is in flight; the result comes
// back as a message and is folded in by Update.
func (t *Timer) flushCmd() tea.Cmd {
	if t.sched == nil {
		return nil
	}

	payloads, ok := t.sched.BeginFlush()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		return t.sched.Deliver(context.Background(), payloads)
	}
}

// remaining returns the time left on the countdown clock.
func (t *Timer) remaining() time.Duration {
	return t.clock.Timeout
}
