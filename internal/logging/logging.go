package logging

import (
	"github.com/pion/logging"
)

var loggerFactory = logging.NewDefaultLoggerFactory()

// NewLogger returns a leveled logger for scope.
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}

// SetDebug raises the default level of every scope created afterwards to Debug.
// Scopes configured through PION_LOG_* env vars keep their level.
func SetDebug(debug bool) {
	if debug {
		loggerFactory.DefaultLogLevel = logging.LogLevelDebug
	}
}
