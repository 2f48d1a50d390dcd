package eviction

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

var errTestMockProbe = errors.New("mock statvfs failure")

var timeZero = time.Unix(0, 0)

// recordingLogger captures formatted log lines by level, for assertions
// that don't want to depend on exact wording.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	infos []string
}

func (l *recordingLogger) Debugf(format string, args ...interface{}) {}

func (l *recordingLogger) Infof(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {}

func (l *recordingLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

// setPerLayerTimeoutForTest overrides the package-level PerLayerTimeout for
// the duration of a test that needs to exercise the timeout path without
// actually waiting 5 real seconds.
func setPerLayerTimeoutForTest(t *testing.T, d time.Duration) {
	t.Helper()
	PerLayerTimeout = d
}
