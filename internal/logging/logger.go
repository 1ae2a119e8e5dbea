// Package logging provides file-backed session logging for long-running
// components. Each service run writes to its own session file so that
// concurrent tooling never interleaves logs; when the log directory is
// unavailable the logger falls back to stderr instead of failing the run.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Logger wraps a session-scoped log file.
type Logger struct {
	component string
	sessionID string
	file      *os.File
	logger    *log.Logger
	closeOnce sync.Once
}

// New creates a logger writing to <dir>/<session-id>.log. On any setup
// failure it returns a stderr logger along with the error so the caller
// can keep going.
func New(dir, component string) (*Logger, error) {
	sessionID := uuid.New().String()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fallback(component, sessionID), err
	}
	path := filepath.Join(dir, sessionID+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fallback(component, sessionID), err
	}
	return &Logger{
		component: component,
		sessionID: sessionID,
		file:      f,
		logger:    log.New(f, "", log.LstdFlags|log.Lmicroseconds),
	}, nil
}

func fallback(component, sessionID string) *Logger {
	return &Logger{
		component: component,
		sessionID: sessionID,
		logger:    log.New(os.Stderr, "", log.LstdFlags),
	}
}

// SessionID returns this run's session identifier.
func (l *Logger) SessionID() string { return l.sessionID }

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.logger.Printf("[%s] INFO %s", l.component, fmt.Sprintf(format, args...))
}

// Errorf logs an error message.
func (l *Logger) Errorf(format string, args ...any) {
	l.logger.Printf("[%s] ERROR %s", l.component, fmt.Sprintf(format, args...))
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
