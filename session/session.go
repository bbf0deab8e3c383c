// Package session holds per-browser login state. A session is an opaque
// uuid id mapping to the logged-in user's id, username and avatar, with
// a fixed time-to-live. The id travels in a signed cookie (see cookie.go);
// the payload stays server side, in memory or in redis.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xianrendesu-max/threts/model"
)

// TTL matches the browser cookie lifetime.
const TTL = 24 * time.Hour

// Store is the server-side session state.
type Store interface {
	// Create stores the user under a fresh session id and returns the id.
	Create(ctx context.Context, user model.SessionUser) (string, error)

	// Get returns the user for an active session, or ok=false when the
	// id is unknown or the session expired.
	Get(ctx context.Context, id string) (model.SessionUser, bool, error)

	// Destroy removes the session. Destroying an unknown id is not an
	// error, logout is idempotent.
	Destroy(ctx context.Context, id string) error
}

type memoryEntry struct {
	user      model.SessionUser
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory, for development and
// tests. Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu  sync.Mutex
	ttl time.Duration

	sessions map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithTTL(TTL)
}

func NewMemoryStoreWithTTL(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, sessions: map[string]memoryEntry{}}
}

func (m *MemoryStore) Create(_ context.Context, user model.SessionUser) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.sessions[id] = memoryEntry{user: user, expiresAt: time.Now().Add(m.ttl)}
	return id, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (model.SessionUser, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return model.SessionUser{}, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.sessions, id)
		return model.SessionUser{}, false, nil
	}
	return entry.user, true, nil
}

func (m *MemoryStore) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}
