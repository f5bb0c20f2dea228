package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	logger   *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a memory store that drops expired sessions every
// cleanupInterval. A non-positive interval disables the sweeper.
func NewMemoryStore(cleanupInterval time.Duration, logger *zap.Logger) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]*Session),
		logger:   logger.Named("session-memory"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go store.cleanupExpired(cleanupInterval)
	} else {
		close(store.done)
	}

	return store
}

// Get returns a copy of the stored session
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	if s.Expired(time.Now()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	return s.Clone(), nil
}

// Save stores a copy of s
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = s.Clone()
	m.mu.Unlock()
	return nil
}

// Delete removes a session
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Ping always succeeds
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored sessions, expired ones included
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the sweeper and waits for it to exit
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
	return nil
}

// cleanupExpired removes expired sessions periodically
func (m *MemoryStore) cleanupExpired(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			removed := m.sweep(now)
			if removed > 0 {
				m.logger.Debug("Cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

func (m *MemoryStore) sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
