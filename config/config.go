// Package config is responsible for setting the program config from
// the config file and command-line arguments
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/devscope/tracker/session"
)

type (
	// Config holds all configuration settings.
	Config struct {
		Sessions     SessionsConfig
		Tracker      TrackerConfig
		Sync         SyncConfig
		Notification NotificationConfig
		Display      DisplayConfig
		System       SystemConfig
	}

	// SessionsConfig holds session-related settings.
	SessionsConfig struct {
		Durations      map[session.Name]time.Duration
		Tags           []string
		AutoStartBreak bool
	}

	// TrackerConfig holds the activity monitor timing parameters.
	TrackerConfig struct {
		IdleThreshold time.Duration
		PollInterval  time.Duration
	}

	// SyncConfig holds settings for the sync scheduler and API client.
	SyncConfig struct {
		APIBaseURL string
		APIToken   string
		Interval   time.Duration
		Retention  time.Duration
		Enabled    bool
	}

	// NotificationConfig holds notification settings.
	NotificationConfig struct {
		Enabled bool
	}

	// DisplayConfig holds display-related settings.
	DisplayConfig struct {
		DarkTheme      bool
		TwentyFourHour bool
	}

	// SystemConfig holds system-related settings.
	SystemConfig struct {
		ConfigPath string
		DBPath     string
		StatusPath string
		LogPath    string
		SessionCmd string
	}

	// Option is a function that modifies Config.
	Option func(*Config) error
)

const Version = "v0.3.1"

var (
	configDir      = "devscope"
	configFileName = "config.yml"
	dbFileName     = "devscope.db"
	statusFileName = "status.json"
	logFileName    = "devscope.log"
	dbFilePath     string
	configFilePath string
	statusFilePath string
	logFilePath    string
)

var (
	trackerCfg  *Config
	trackerOnce sync.Once
)

func Dir() string {
	return configDir
}

func DBFilePath() string {
	return dbFilePath
}

func StatusFilePath() string {
	return statusFilePath
}

func LogFilePath() string {
	return logFilePath
}

func ConfigFilePath() string {
	return configFilePath
}

// InitializePaths resolves the XDG locations for the config file, the
// database, the status file, and the log file.
func InitializePaths() {
	env := strings.TrimSpace(os.Getenv("DEVSCOPE_ENV"))
	if env != "" {
		configFileName = fmt.Sprintf("config_%s.yml", env)
		dbFileName = fmt.Sprintf("devscope_%s.db", env)
		statusFileName = fmt.Sprintf("status_%s.json", env)
		logFileName = fmt.Sprintf("devscope_%s.log", env)
	}

	var err error

	relPath := filepath.Join(configDir, configFileName)

	configFilePath, err = xdg.ConfigFile(relPath)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	dataDir, err := xdg.DataFile(configDir)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	dbFilePath = filepath.Join(dataDir, dbFileName)

	statusFilePath = filepath.Join(dataDir, statusFileName)

	logFilePath = filepath.Join(dataDir, "log", logFileName)
}

// New creates a new Config, applies options, and validates the result.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		Sessions: SessionsConfig{
			Durations: make(map[session.Name]time.Duration),
		},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errConfigValidation.Wrap(err)
	}

	return cfg, nil
}

// Tracker initializes and returns the tracker configuration from the config
// file and command-line arguments. The initialization is done just once no
// matter how many times it is called.
func Tracker(ctx *cli.Context) *Config {
	trackerOnce.Do(func() {
		InitializePaths()

		cfg, err := New(
			WithViperConfig(configFilePath),
			WithCliOverrides(ctx),
		)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}

		cfg.System.ConfigPath = configFilePath
		cfg.System.DBPath = dbFilePath
		cfg.System.StatusPath = statusFilePath
		cfg.System.LogPath = logFilePath

		trackerCfg = cfg
	})

	return trackerCfg
}

// WithCliOverrides returns an Option that overrides file-based settings with
// command-line arguments.
func WithCliOverrides(ctx *cli.Context) Option {
	return func(c *Config) error {
		if ctx == nil {
			return nil
		}

		if tagArg := ctx.String("tag"); tagArg != "" {
			tags := strings.Split(tagArg, ",")
			for i := range tags {
				tags[i] = strings.TrimSpace(tags[i])
			}

			c.Sessions.Tags = tags
		}

		if ctx.Uint("work") > 0 {
			c.Sessions.Durations[session.Focus] = time.Duration(
				ctx.Uint("work"),
			) * time.Minute
		}

		if ctx.Uint("break") > 0 {
			c.Sessions.Durations[session.Break] = time.Duration(
				ctx.Uint("break"),
			) * time.Minute
		}

		if ctx.Bool("disable-notification") {
			c.Notification.Enabled = false
		}

		if ctx.Bool("no-sync") {
			c.Sync.Enabled = false
		}

		if cmd := ctx.String("session-cmd"); cmd != "" {
			c.System.SessionCmd = cmd
		}

		return nil
	}
}
