// Package session owns the per-operator state: the scoped token gate, the
// consent ledger and the audit log. Nothing here is shared across sessions.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/org/vitalguard/internal/audit"
	"github.com/org/vitalguard/internal/auth"
	"github.com/org/vitalguard/internal/consent"
)

// Session is the state of one operator. Callers hold Lock for the duration
// of a user action so actions apply one at a time.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time
	Gateway   *auth.Gateway
	Consent   *consent.Ledger
	Audit     *audit.Log

	lastSeen time.Time
}

// New creates a session with a fresh id and empty state.
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Gateway:   auth.NewGateway(),
		Consent:   consent.NewLedger(),
		Audit:     audit.NewLog(),
		lastSeen:  now,
	}
}

// Lock serialises user actions on the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Manager creates and looks up sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewManager creates a Manager. Sessions idle longer than idleTTL are
// dropped on the next lookup; 0 keeps them forever.
func NewManager(idleTTL time.Duration) *Manager {
	return &Manager{sessions: map[string]*Session{}, idleTTL: idleTTL, now: time.Now}
}

// Get returns the session with id, or false when unknown or expired.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	s, ok := m.sessions[id]
	if ok {
		s.lastSeen = m.now().UTC()
	}
	return s, ok
}

// Create registers a new session.
func (m *Manager) Create() *Session {
	s := New()
	m.mu.Lock()
	defer m.mu.Unlock()
	s.lastSeen = m.now().UTC()
	m.sessions[s.ID] = s
	return s
}

// GetOrCreate returns the session for id, creating a new one when id is
// empty or unknown. created reports which happened.
func (m *Manager) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.Create(), true
}

// Delete drops a session. Unknown ids are ignored.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	return len(m.sessions)
}

// IDs returns live session ids in ascending order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) expireLocked() {
	if m.idleTTL <= 0 {
		return
	}
	cutoff := m.now().UTC().Add(-m.idleTTL)
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
