package presence

import (
	"sync"
	"time"
)

// Registry tracks which users hold live socket connections. It is
// populated on connect, cleared on disconnect and reconciled periodically
// against the users collection. The process-wide in-memory implementation
// below is rebuilt from scratch on restart; a multi-instance deployment
// would have to swap in a shared store behind this same interface.
type Registry interface {
	// Register records a connection. Returns true when it is the user's
	// first live connection (offline -> online edge).
	Register(userID, connID string) bool
	// Unregister drops a connection. Returns true when it was the user's
	// last live connection (online -> offline edge).
	Unregister(userID, connID string) bool
	IsOnline(userID string) bool
	Online() []string
}

type Memory struct {
	mu    sync.RWMutex
	conns map[string]map[string]time.Time // userID -> connID -> connected at
}

func NewMemory() *Memory {
	return &Memory{conns: make(map[string]map[string]time.Time)}
}

func (m *Memory) Register(userID, connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.conns[userID]
	if !ok {
		set = make(map[string]time.Time)
		m.conns[userID] = set
	}
	set[connID] = time.Now()
	return !ok
}

func (m *Memory) Unregister(userID, connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.conns[userID]
	if !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(m.conns, userID)
		return true
	}
	return false
}

func (m *Memory) IsOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns[userID]) > 0
}

func (m *Memory) Online() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.conns))
	for id := range m.conns {
		out = append(out, id)
	}
	return out
}
