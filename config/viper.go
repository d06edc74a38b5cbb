package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/devscope/tracker/session"
)

// viperKeys defines the mapping between config keys and their Viper
// counterparts.
const (
	keyFocusDuration  = "focus.duration"
	keyBreakDuration  = "break.duration"
	keyAutoStartBreak = "focus.auto_start_break"
	keyIdleThreshold  = "tracker.idle_threshold"
	keyPollInterval   = "tracker.poll_interval"
	keySyncEnabled    = "sync.enabled"
	keySyncInterval   = "sync.interval"
	keySyncRetention  = "sync.retention"
	keyAPIBaseURL     = "sync.api_url"
	keyAPIToken       = "sync.api_token"
	keyNotifications  = "notifications.enabled"
	keySessionCmd     = "settings.cmd"
	keyTwentyFourHour = "settings.24hr_clock"
	keyDarkTheme      = "display.dark_theme"
)

// WithViperConfig returns an Option that loads configuration from the YAML
// config file, writing a default file on first run.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setViperDefaults(v)

		err := v.ReadInConfig()
		if err == nil {
			return loadViperConfig(v, c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return errReadConfig.Wrap(err)
		}

		if err := v.WriteConfig(); err != nil {
			return errWriteConfig.Wrap(err)
		}

		return loadViperConfig(v, c)
	}
}

func setViperDefaults(v *viper.Viper) {
	v.SetDefault(keyFocusDuration, "25m")
	v.SetDefault(keyBreakDuration, "5m")
	v.SetDefault(keyAutoStartBreak, true)
	v.SetDefault(keyIdleThreshold, "30s")
	v.SetDefault(keyPollInterval, "5s")
	v.SetDefault(keySyncEnabled, true)
	v.SetDefault(keySyncInterval, "5m")
	v.SetDefault(keySyncRetention, "168h")
	v.SetDefault(keyAPIBaseURL, "")
	v.SetDefault(keyAPIToken, "")
	v.SetDefault(keyNotifications, true)
	v.SetDefault(keySessionCmd, "")
	v.SetDefault(keyTwentyFourHour, false)
	v.SetDefault(keyDarkTheme, true)
}

// loadViperConfig loads configuration from Viper into the Config struct.
func loadViperConfig(v *viper.Viper, c *Config) error {
	durations := map[session.Name]string{
		session.Focus: v.GetString(keyFocusDuration),
		session.Break: v.GetString(keyBreakDuration),
	}

	for name, s := range durations {
		d, err := parseDuration(s)
		if err != nil {
			return err
		}

		c.Sessions.Durations[name] = d
	}

	c.Sessions.AutoStartBreak = v.GetBool(keyAutoStartBreak)

	var err error

	if c.Tracker.IdleThreshold, err = parseDuration(
		v.GetString(keyIdleThreshold),
	); err != nil {
		return err
	}

	if c.Tracker.PollInterval, err = parseDuration(
		v.GetString(keyPollInterval),
	); err != nil {
		return err
	}

	if c.Sync.Interval, err = parseDuration(
		v.GetString(keySyncInterval),
	); err != nil {
		return err
	}

	if c.Sync.Retention, err = parseDuration(
		v.GetString(keySyncRetention),
	); err != nil {
		return err
	}

	c.Sync.Enabled = v.GetBool(keySyncEnabled)
	c.Sync.APIBaseURL = v.GetString(keyAPIBaseURL)
	c.Sync.APIToken = v.GetString(keyAPIToken)
	c.Notification.Enabled = v.GetBool(keyNotifications)
	c.System.SessionCmd = v.GetString(keySessionCmd)
	c.Display.TwentyFourHour = v.GetBool(keyTwentyFourHour)
	c.Display.DarkTheme = v.GetBool(keyDarkTheme)

	return nil
}

// parseDuration parses duration strings, accepting a bare number as minutes.
func parseDuration(s string) (time.Duration, error) {
	dur, err := time.ParseDuration(s)
	if err == nil {
		return dur, nil
	}

	mins, err := time.ParseDuration(s + "m")
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	return mins, nil
}
