package memory

import (
	"context"
	"sync"

	"github.com/viant/flagly/service/store"
)

// Service is the in-memory snapshot store. It keeps snapshots mapped by
// project and is safe for concurrent use. Persistence policy (when to save,
// how to react to failures) lives with the poller.
type Service struct {
	mu      sync.RWMutex
	records map[string]*store.Snapshot
}

// Ensure Service implements store.Service
var _ store.Service = (*Service)(nil)

// New creates a new in-memory snapshot store.
func New() *Service {
	return &Service{records: make(map[string]*store.Snapshot)}
}

// Save stores or overwrites the snapshot for its project.
func (s *Service) Save(_ context.Context, snapshot *store.Snapshot) error {
	if snapshot == nil {
		return store.ErrNilSnapshot
	}
	if snapshot.Project == "" {
		return store.ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[snapshot.Project] = snapshot
	return nil
}

// Load returns the snapshot for a project.
func (s *Service) Load(_ context.Context, project string) (*store.Snapshot, error) {
	if project == "" {
		return nil, store.ErrInvalidKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.records[project]
	if !ok {
		return nil, store.ErrNotFound
	}
	return snapshot, nil
}

// Delete removes the snapshot for a project.
func (s *Service) Delete(_ context.Context, project string) error {
	if project == "" {
		return store.ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, project)
	return nil
}

// List returns all stored snapshots.
func (s *Service) List(_ context.Context) ([]*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*store.Snapshot, 0, len(s.records))
	for _, snapshot := range s.records {
		out = append(out, snapshot)
	}
	return out, nil
}
