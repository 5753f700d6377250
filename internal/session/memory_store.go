package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process fallback when Redis is not configured. It
// enforces the same TTL semantics: a background sweep evicts idle sessions
// so the map stays bounded by active conversations.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a memory store and starts its eviction sweep.
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	ms := &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go ms.sweep(cleanupInterval)
	return ms
}

func (ms *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.evictExpired()
		case <-ms.stop:
			return
		}
	}
}

func (ms *MemoryStore) evictExpired() {
	cutoff := time.Now().Add(-ms.ttl)

	ms.mu.Lock()
	defer ms.mu.Unlock()
	for id, s := range ms.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(ms.sessions, id)
		}
	}
}

// Get loads a session, treating anything past its TTL as gone even if the
// sweep has not run yet.
func (ms *MemoryStore) Get(_ context.Context, conversationID string) (*Session, error) {
	ms.mu.RLock()
	s, ok := ms.sessions[conversationID]
	ms.mu.RUnlock()

	if !ok || time.Since(s.LastActivity) > ms.ttl {
		return nil, ErrNotFound
	}

	copied := *s
	return &copied, nil
}

// Save stores the session and refreshes its activity timestamp.
func (ms *MemoryStore) Save(_ context.Context, s *Session) error {
	s.LastActivity = time.Now()
	copied := *s

	ms.mu.Lock()
	ms.sessions[s.ConversationID] = &copied
	ms.mu.Unlock()
	return nil
}

// Delete removes a session.
func (ms *MemoryStore) Delete(_ context.Context, conversationID string) error {
	ms.mu.Lock()
	delete(ms.sessions, conversationID)
	ms.mu.Unlock()
	return nil
}

// Close stops the eviction sweep.
func (ms *MemoryStore) Close() error {
	ms.stopOnce.Do(func() { close(ms.stop) })
	return nil
}
