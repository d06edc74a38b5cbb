package timer

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/pterm/pterm"
	bolt "go.etcd.io/bbolt"

	"github.com/devscope/tracker/config"
	"github.com/devscope/tracker/internal/timeutil"
	"github.com/devscope/tracker/monitor"
	"github.com/devscope/tracker/session"
)

// Status represents the status of a running timer. It is written to a well
// known file on every tick so other processes (status bars, prompts) can
// read it without touching the database.
type Status struct {
	EndTime       time.Time     `json:"end_date"`
	Name          session.Name  `json:"name"`
	State         monitor.State `json:"state"`
	Tags          []string      `json:"tags"`
	ActiveMinutes int           `json:"active_minutes"`
	IdleMinutes   int           `json:"idle_minutes"`
}

// writeStatusFile persists the current timer status to the filesystem.
func (t *Timer) writeStatusFile() error {
	snap, ok := t.acc.Snapshot()
	if !ok {
		return nil
	}

	s := Status{
		EndTime:       time.Now().Add(t.remaining()),
		Name:          snap.Name,
		State:         t.mon.State(),
		Tags:          snap.Tags,
		ActiveMinutes: snap.ActiveMinutes,
		IdleMinutes:   snap.IdleMinutes,
	}

	statusFile, err := os.Create(config.StatusFilePath())
	if err != nil {
		return err
	}

	defer func() {
		ferr := statusFile.Close()
		if ferr != nil {
			err = ferr
		}
	}()

	b, err := json.Marshal(s)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(statusFile)

	_, err = writer.Write(b)
	if err != nil {
		return err
	}

	return writer.Flush()
}

func (t *Timer) removeStatusFile() error {
	return os.Remove(config.StatusFilePath())
}

// ReportStatus prints the status of the currently running timer from the
// status file. A failed exclusive open of the database is the signal that a
// timer is active in another process.
func (t *Timer) ReportStatus() error {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(config.DBFilePath(), fileMode, &bolt.Options{
		Timeout: 100 * time.Millisecond,
	})
	// The database is free, so no timer is running
	if err == nil {
		return db.Close()
	}

	if !errors.Is(err, bolt.ErrTimeout) {
		return err
	}

	fileBytes, err := os.ReadFile(config.StatusFilePath())
	if err != nil {
		// missing file should not return an error
		return nil
	}

	var s Status

	err = json.Unmarshal(fileBytes, &s)
	if err != nil {
		return err
	}

	remainder := time.Until(s.EndTime)
	if remainder < 0 {
		return nil
	}

	m, sec := timeutil.SecsToMinsAndSecs(remainder.Seconds())

	text := "[Focus]"
	if s.Name == session.Break {
		text = "[Break]"
	}

	if s.State == monitor.StateIdle {
		text += " (idle)"
	}

	pterm.Printfln(
		"%s: %02d:%02d remaining, %dm active, %dm idle",
		text,
		m,
		sec,
		s.ActiveMinutes,
		s.IdleMinutes,
	)

	return nil
}
