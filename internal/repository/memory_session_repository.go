package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guardia/roster-control-service/internal/domain"
)

// MemorySessionRepository is the in-memory SessionRepository implementation.
// Sessions are lost on restart, by design.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewMemorySessionRepository creates an empty in-memory repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create stores a new session.
func (r *MemorySessionRepository) Create(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return fmt.Errorf("create session %s: %w", session.ID, domain.ErrInvalidInput)
	}

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Checked == nil {
		session.Checked = make(map[string]bool)
	}
	r.sessions[session.ID] = session
	return nil
}

// Get returns the session with the given ID.
func (r *MemorySessionRepository) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.NewNotFoundError("session", id.String())
	}
	return session, nil
}

// View applies fn to the session under the read lock. Mutations race with
// concurrent readers; use Update for those.
func (r *MemorySessionRepository) View(_ context.Context, id uuid.UUID, fn func(*Session) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.NewNotFoundError("session", id.String())
	}
	return fn(session)
}

// Update applies fn to the session under the lock.
func (r *MemorySessionRepository) Update(_ context.Context, id uuid.UUID, fn func(*Session) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.NewNotFoundError("session", id.String())
	}
	if err := fn(session); err != nil {
		return err
	}
	session.UpdatedAt = time.Now()
	return nil
}

// Delete removes the session.
func (r *MemorySessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return domain.NewNotFoundError("session", id.String())
	}
	delete(r.sessions, id)
	return nil
}

// Count returns the number of live sessions.
func (r *MemorySessionRepository) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
