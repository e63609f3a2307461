package ember

import (
	loglvl "github.com/nabbar/golib/logger/level"
)

// Level re-exports nabbar-golib's leveled-logging vocabulary so callers
// configuring ErrorLog don't need to import the library directly.
type Level = loglvl.Level

const (
	WarnLevel  = loglvl.WarnLevel
	ErrorLevel = loglvl.ErrorLevel
	InfoLevel  = loglvl.InfoLevel
)

// ErrorLogFunc is the operator-facing diagnostics hook: protocol errors
// are logged at WarnLevel, internal failures at ErrorLevel with the
// originating error attached for a trace.
type ErrorLogFunc func(msg string, level Level, err error)
