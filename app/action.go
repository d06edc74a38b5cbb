package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/devscope/tracker/api"
	"github.com/devscope/tracker/config"
	"github.com/devscope/tracker/internal/log"
	"github.com/devscope/tracker/internal/ui"
	"github.com/devscope/tracker/session"
	"github.com/devscope/tracker/stats"
	"github.com/devscope/tracker/store"
	"github.com/devscope/tracker/syncer"
	"github.com/devscope/tracker/timer"
)

const (
	envNoColor         = "NO_COLOR"
	envDevScopeNoColor = "DEVSCOPE_NO_COLOR"
)

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}

	return ""
}

func sessionHelper(
	ctx *cli.Context,
) ([]*session.Session, store.DB, error) {
	conf := config.Filter(ctx)

	db, err := store.NewClient(config.DBFilePath())
	if err != nil {
		return nil, nil, err
	}

	sessions, err := db.GetSessions(conf.StartTime, conf.EndTime, conf.Tags)
	if err != nil {
		return nil, nil, err
	}

	return sessions, db, nil
}

// editConfigAction handles the edit-config command which opens the config
// file in the user's default text editor.
func editConfigAction(ctx *cli.Context) error {
	defaultEditor := "nano"

	if runtime.GOOS == "windows" {
		defaultEditor = "C:\\Windows\\system32\\notepad.exe"
	}

	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		defaultEditor,
	)

	cfg := config.Tracker(ctx)

	cmd := exec.Command(editor, cfg.System.ConfigPath)

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

// listAction handles the list command and prints a table of all the sessions
// started within a time period.
func listAction(ctx *cli.Context) error {
	sessions, db, err := sessionHelper(ctx)
	if err != nil {
		return err
	}

	defer db.Close()

	if ctx.Bool("json") {
		b, err := json.Marshal(sessions)
		if err != nil {
			return err
		}

		pterm.Println(string(b))

		return nil
	}

	listSessions(sessions)

	return nil
}

// listSessions prints out a table of archived sessions.
func listSessions(sessions []*session.Session) {
	data := [][]string{
		{"#", "START", "END", "TYPE", "STATUS", "ACTIVE", "IDLE", "TAGS"},
	}

	for i, sess := range sessions {
		data = append(data, []string{
			fmt.Sprintf("%d", i+1),
			sess.StartTime.Format("Jan 02 2006 03:04 PM"),
			sess.EndTime.Format("03:04 PM"),
			string(sess.Name),
			string(sess.Status),
			fmt.Sprintf("%dm", sess.ActiveMinutes(sess.EndTime)),
			fmt.Sprintf("%dm", sess.IdleMinutes(sess.EndTime)),
			fmt.Sprintf("%v", sess.Tags),
		})
	}

	ui.PrintTable(data, os.Stdout)
}

// statsAction computes the stats for the specified time period.
func statsAction(ctx *cli.Context) error {
	sessions, db, err := sessionHelper(ctx)
	if err != nil {
		return err
	}

	defer db.Close()

	s := &stats.Stats{
		Opts: config.Filter(ctx),
	}

	s.Compute(sessions)

	if ctx.Bool("json") {
		b, err := s.ToJSON()
		if err != nil {
			return err
		}

		fmt.Println(string(b))

		return nil
	}

	s.Print(os.Stdout)

	return nil
}

// statusAction handles the status command and prints the status of the
// currently running timer.
func statusAction(_ *cli.Context) error {
	t := &timer.Timer{}

	return t.ReportStatus()
}

// syncAction drains the offline queue against the configured backend.
func syncAction(ctx *cli.Context) error {
	cfg := config.Tracker(ctx)

	if !cfg.Sync.Enabled || cfg.Sync.APIBaseURL == "" {
		pterm.Warning.Println(
			"syncing is not configured, set sync.api_url in the config file",
		)

		return nil
	}

	client, err := api.NewClient(cfg.Sync.APIBaseURL, cfg.Sync.APIToken)
	if err != nil {
		return err
	}

	db, err := store.NewClient(cfg.System.DBPath)
	if err != nil {
		return err
	}

	defer db.Close()

	s := syncer.New(
		client,
		db,
		syncer.WithInterval(cfg.Sync.Interval),
		syncer.WithRetention(cfg.Sync.Retention),
	)

	delivered, pending := s.DrainQueue(ctx.Context)

	if pending > 0 {
		pterm.Warning.Printfln(
			"delivered %d payloads, %d still pending",
			delivered,
			pending,
		)

		return nil
	}

	pterm.Success.Printfln("delivered %d payloads, queue is empty", delivered)

	return nil
}

// queueAction prints the contents of the offline sync queue.
func queueAction(ctx *cli.Context) error {
	db, err := store.NewClient(config.DBFilePath())
	if err != nil {
		return err
	}

	defer db.Close()

	payloads, err := db.ListPayloads()
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		b, err := json.Marshal(payloads)
		if err != nil {
			return err
		}

		pterm.Println(string(b))

		return nil
	}

	if len(payloads) == 0 {
		pterm.Info.Println("the sync queue is empty")
		return nil
	}

	data := [][]string{
		{"QUEUED AT", "TYPE", "ACTIVE", "IDLE", "FINAL", "SYNCED"},
	}

	for _, p := range payloads {
		synced := "no"
		if p.Synced {
			synced = p.SyncedAt.Format(time.DateTime)
		}

		data = append(data, []string{
			p.QueuedAt.Format(time.DateTime),
			string(p.ActivityType),
			fmt.Sprintf("%dm", p.ActiveMinutes),
			fmt.Sprintf("%dm", p.IdleMinutes),
			fmt.Sprintf("%t", p.Final),
			synced,
		})
	}

	ui.PrintTable(data, os.Stdout)

	return nil
}

// defaultAction starts an interactive tracking session.
func defaultAction(ctx *cli.Context) error {
	cfg := config.Tracker(ctx)

	ui.DarkTheme = cfg.Display.DarkTheme

	db, err := store.NewClient(cfg.System.DBPath)
	if err != nil {
		return err
	}

	defer db.Close()

	t, err := timer.New(db, cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(t)

	_, err = p.Run()

	return err
}

func beforeAction(ctx *cli.Context) error {
	// Override the default help template
	cli.AppHelpTemplate = helpText()

	config.InitializePaths()

	log.Init(config.LogFilePath())

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	// Disable colour output if NO_COLOR is set
	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	// Disable colour output if DEVSCOPE_NO_COLOR is set
	if _, exists := os.LookupEnv(envDevScopeNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	return nil
}
