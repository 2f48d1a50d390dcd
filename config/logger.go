package config

import (
	"io"
	"log"
	"os"
)

const LogFlags = log.Ldate | log.Ltime | log.LUTC

// Logger implements eviction.Logger over the teacher's AccessLogger/
// ErrorLogger pair: info lines go to the access stream, warn/error to the
// error stream, debug is dropped (the collector's per-tenant skip messages
// are the engine's debug lines; Collector.DumpCandidates is a separate hook
// that callers wire up themselves).
type Logger struct {
	Access *log.Logger
	Error  *log.Logger
}

func (l *Logger) Debugf(format string, args ...interface{}) {}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Access.Printf("[INFO] "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Error.Printf("[WARN] "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error.Printf("[ERROR] "+format, args...)
}

// setLogger constructs AccessLogger/ErrorLogger the way the teacher's
// Config.setLogger does: plain log.New handles on stdout/stderr, with
// timestamps chosen by LogTimezone ("UTC", "local", or "none" for no
// timestamps) and access logging silenced entirely when AccessLogLevel is
// "none".
func (c *Config) setLogger() {
	flags := LogFlags
	switch c.LogTimezone {
	case "local":
		flags = log.Ldate | log.Ltime
	case "none":
		flags = 0
	}

	access := log.New(os.Stdout, "", flags)
	errLog := log.New(os.Stderr, "", flags)

	if c.AccessLogLevel == "none" {
		access.SetOutput(io.Discard)
	}

	c.AccessLogger = &Logger{Access: access, Error: errLog}
	c.ErrorLogger = &Logger{Access: errLog, Error: errLog}
}
