package config

import (
	"net/url"
	"time"

	"github.com/devscope/tracker/session"
)

var (
	// Minimum and maximum duration constraints.
	minSessionDuration = 1 * time.Minute
	maxSessionDuration = 720 * time.Minute // 12 hours

	minPollInterval = 1 * time.Second
	minSyncInterval = 30 * time.Second
)

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if err := c.validateSessions(); err != nil {
		return err
	}

	if err := c.validateTracker(); err != nil {
		return err
	}

	return c.validateSync()
}

func (c *Config) validateSessions() error {
	for _, name := range []session.Name{session.Focus, session.Break} {
		d := c.Sessions.Durations[name]

		if d < minSessionDuration || d > maxSessionDuration {
			return errInvalidDuration.Fmt(
				name,
				minSessionDuration,
				maxSessionDuration,
			)
		}
	}

	if c.Sessions.Durations[session.Break] >= c.Sessions.Durations[session.Focus] {
		return errBreakTooLong.Fmt(
			c.Sessions.Durations[session.Break],
			c.Sessions.Durations[session.Focus],
		)
	}

	return nil
}

// validateTracker rejects a degenerate monitor configuration: the idle
// threshold must exceed the poll interval, otherwise detection lag swallows
// the threshold itself.
func (c *Config) validateTracker() error {
	if c.Tracker.PollInterval < minPollInterval {
		return errPollTooShort.Fmt(c.Tracker.PollInterval, minPollInterval)
	}

	if c.Tracker.IdleThreshold <= c.Tracker.PollInterval {
		return errThresholdTooLow.Fmt(
			c.Tracker.IdleThreshold,
			c.Tracker.PollInterval,
		)
	}

	return nil
}

func (c *Config) validateSync() error {
	if !c.Sync.Enabled {
		return nil
	}

	if c.Sync.Interval < minSyncInterval {
		return errSyncIntervalTooShort.Fmt(c.Sync.Interval, minSyncInterval)
	}

	if c.Sync.Retention <= 0 {
		return errInvalidRetention.Fmt(c.Sync.Retention)
	}

	if c.Sync.APIBaseURL != "" {
		if _, err := url.ParseRequestURI(c.Sync.APIBaseURL); err != nil {
			return errInvalidAPIURL.Fmt(c.Sync.APIBaseURL)
		}
	}

	return nil
}
