package eviction

// Logger is the leveled logging capability the engine uses. It is
// satisfied by config.Logger (a thin wrapper around two *log.Logger
// handles, matching the teacher's config/logger.go split of
// AccessLogger/ErrorLogger), and by NopLogger in tests.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NopLogger discards everything. Useful as a zero value substitute in
// tests that don't care about log output.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...interface{}) {}
func (NopLogger) Infof(string, ...interface{})  {}
func (NopLogger) Warnf(string, ...interface{})  {}
func (NopLogger) Errorf(string, ...interface{}) {}
