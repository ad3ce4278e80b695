package server

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultSessionTimeout is how long an idle HTTP session is kept.
const DefaultSessionTimeout = 24 * time.Hour

// ErrUnknownSession is returned for session ids this manager never issued
// or has already expired.
var ErrUnknownSession = errors.New("unknown session id")

// sessionInfo tracks session metadata for cleanup
type sessionInfo struct {
	lastAccess time.Time
	terminated bool
}

// SessionIDManager issues and tracks streamable HTTP session ids. Ids are
// ULIDs so they sort by creation time in logs. It satisfies the mcp-go
// SessionIdManager interface.
type SessionIDManager struct {
	sessions       map[string]*sessionInfo
	mu             sync.Mutex
	cleanupTicker  *time.Ticker
	cleanupDone    chan struct{}
	stopOnce       sync.Once
	sessionTimeout time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// NewSessionIDManager creates a new session ID manager with default logger
func NewSessionIDManager() *SessionIDManager {
	return NewSessionIDManagerWithLogger(DefaultSessionTimeout, slog.Default())
}

// NewSessionIDManagerWithLogger creates a new session ID manager with custom timeout and logger
func NewSessionIDManagerWithLogger(timeout time.Duration, logger *slog.Logger) *SessionIDManager {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}

	interval := 10 * time.Minute
	if timeout < interval {
		interval = timeout
	}

	m := &SessionIDManager{
		sessions:       make(map[string]*sessionInfo),
		cleanupTicker:  time.NewTicker(interval),
		cleanupDone:    make(chan struct{}),
		sessionTimeout: timeout,
		now:            time.Now,
		logger:         logger,
	}

	go m.cleanupLoop()

	return m
}

// Generate issues a new session id.
func (m *SessionIDManager) Generate() string {
	id := ulid.Make().String()

	m.mu.Lock()
	m.sessions[id] = &sessionInfo{lastAccess: m.now()}
	m.mu.Unlock()

	m.logger.Debug("session started", "session_id", id)
	return id
}

// Validate reports whether id is a live session. A terminated session is
// reported as such without an error.
func (m *SessionIDManager) Validate(id string) (isTerminated bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.sessions[id]
	if !ok {
		return false, ErrUnknownSession
	}
	if info.terminated {
		return true, nil
	}
	info.lastAccess = m.now()
	return false, nil
}

// Terminate ends a session. Clients may always terminate their own.
func (m *SessionIDManager) Terminate(id string) (isNotAllowed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info, ok := m.sessions[id]; ok {
		info.terminated = true
		info.lastAccess = m.now()
		m.logger.Debug("session terminated", "session_id", id)
	}
	return false, nil
}

// ListSessions returns all live session IDs
func (m *SessionIDManager) ListSessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make([]string, 0, len(m.sessions))
	for id, info := range m.sessions {
		if !info.terminated {
			sessions = append(sessions, id)
		}
	}
	return sessions
}

// cleanup drops sessions idle for longer than the timeout, terminated
// ones included, and returns how many were removed.
func (m *SessionIDManager) cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	expired := 0
	for id, info := range m.sessions {
		if now.Sub(info.lastAccess) > m.sessionTimeout {
			delete(m.sessions, id)
			expired++
		}
	}
	return expired
}

func (m *SessionIDManager) cleanupLoop() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if n := m.cleanup(); n > 0 {
				m.logger.Info("Cleaned up expired sessions", "count", n)
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop stops the session cleanup goroutine
func (m *SessionIDManager) Stop() {
	m.stopOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
}
