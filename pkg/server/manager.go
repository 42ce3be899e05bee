package server

import (
	"context"
	"sync"
	"time"

	"github.com/weframe/weframe-server/pkg/logger"
)

// Manager is the directory of active sessions keyed by room id, with a
// periodic idle-expiry sweep.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	broadcastBufferSize int
	sessionMaxDuration   time.Duration
}

// NewManager creates an empty session directory.
func NewManager(broadcastBufferSize int, sessionMaxDuration time.Duration) *Manager {
	return &Manager{
		sessions:             make(map[string]*Session),
		broadcastBufferSize:  broadcastBufferSize,
		sessionMaxDuration:   sessionMaxDuration,
	}
}

// GetOrCreate looks up an existing session or lazily constructs one.
// The manager's own mutex, not the session's, guards the map
// lookup-or-insert, so two simultaneous joins to a new room cannot race
// each other's session creation. Client registration is not part of
// this call: it happens afterwards in Session.Join, under the session's
// own lock.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}

	s := NewSession(id, Metadata{
		Name:        id,
		CreatedAt:   time.Now(),
		MaxDuration: m.sessionMaxDuration,
	}, m.broadcastBufferSize)
	m.sessions[id] = s
	return s
}

// Get returns an existing session without creating one.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CleanupInactive drops any session whose last activity is older than
// idleTTL, killing it so connected goroutines observe closure.
func (m *Manager) CleanupInactive(idleTTL time.Duration) {
	now := time.Now()
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity()) > idleTTL {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		logger.Info("manager: expiring idle session %s", s.ID())
		s.Kill()
	}
}

// StartSweeper runs CleanupInactive on interval until ctx is canceled.
func (m *Manager) StartSweeper(ctx context.Context, idleTTL, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupInactive(idleTTL)
		}
	}
}

// Shutdown kills every active session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.Kill()
	}
}
