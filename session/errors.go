package session

import "github.com/devscope/tracker/internal/apperr"

var (
	errSessionRunning = &apperr.Error{
		Message: "a session is already in progress",
	}

	errNoSessionRunning = &apperr.Error{
		Message: "no session is in progress",
	}

	errNotPaused = &apperr.Error{
		Message: "the current session is not paused",
	}
)
