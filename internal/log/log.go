// Package log configures the process-wide structured logger
package log

import (
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 5
	maxBackups = 3
	maxAgeDays = 28
)

// Init routes slog output to a rotated log file. The TUI owns the terminal,
// so nothing is ever logged to stdout or stderr.
func Init(path string) {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}

	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("DEVSCOPE_DEBUG"), "true") {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	slog.SetDefault(slog.New(h))
}
