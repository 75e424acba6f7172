// Package session holds the in-process upload session table. Sessions are
// created on upload, read on report generation, and never evicted; the store
// lives for the process lifetime.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clearviewfp/report-engine/internal/domain"
)

// ErrNotFound indicates an unknown session ID.
var ErrNotFound = errors.New("session not found")

// Store is the session table. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.UploadSession
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*domain.UploadSession),
	}
}

// NewID returns a fresh session identifier. IDs are time-derived so they sort
// by creation order, with a random suffix to keep them unique.
func NewID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// Create registers a new session for the given files and returns it.
func (s *Store) Create(files []domain.FileDescriptor) *domain.UploadSession {
	sess := &domain.UploadSession{
		ID:        NewID(),
		CreatedAt: time.Now().UTC(),
		Files:     files,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the session with the given ID.
func (s *Store) Get(id string) (*domain.UploadSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

// SetSummary attaches the aggregated summary to a session.
func (s *Store) SetSummary(id string, summary *domain.ExtractionSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sess.Summary = summary
	return nil
}

// List returns all sessions ordered by creation time, oldest first.
func (s *Store) List() []*domain.UploadSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.UploadSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of live sessions. The table grows without bound
// over the process lifetime, so operators watch this.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
