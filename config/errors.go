package config

import "github.com/devscope/tracker/internal/apperr"

var (
	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errConfigValidation = &apperr.Error{
		Message: "config validation error",
	}

	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing default config failed",
	}

	errInvalidDuration = &apperr.Error{
		Message: "%s duration must be between %v and %v",
	}

	errBreakTooLong = &apperr.Error{
		Message: "break duration (%v) must be less than focus duration (%v)",
	}

	errPollTooShort = &apperr.Error{
		Message: "poll interval (%v) must be at least %v",
	}

	errThresholdTooLow = &apperr.Error{
		Message: "idle threshold (%v) must be greater than the poll interval (%v)",
	}

	errSyncIntervalTooShort = &apperr.Error{
		Message: "sync interval (%v) must be at least %v",
	}

	errInvalidRetention = &apperr.Error{
		Message: "sync retention (%v) must be greater than zero",
	}

	errInvalidAPIURL = &apperr.Error{
		Message: "invalid API base URL: %s",
	}
)
