package logger

import corelogger "github.com/kilianp07/mgdispatch/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards every message.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// SetLevel sets the minimum level of every logger in the process. Unknown
// levels are reported and leave the current level unchanged.
func SetLevel(level string) error {
	return setGlobalLevel(level)
}
