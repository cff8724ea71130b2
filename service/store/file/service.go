package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/flagly/service/store"
)

// Service implements a filesystem-based snapshot store. Snapshots live as
// JSON documents named {project}.json under the base URL, which may use any
// scheme afs supports.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

// Ensure Service implements store.Service
var _ store.Service = (*Service)(nil)

// Save persists a snapshot to the filesystem
func (s *Service) Save(ctx context.Context, snapshot *store.Snapshot) error {
	if snapshot == nil {
		return store.ErrNilSnapshot
	}
	if snapshot.Project == "" {
		return store.ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	location := s.snapshotURL(snapshot.Project)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save snapshot to %s: %w", location, err)
	}
	return nil
}

// Load retrieves a snapshot from the filesystem
func (s *Service) Load(ctx context.Context, project string) (*store.Snapshot, error) {
	if project == "" {
		return nil, store.ErrInvalidKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	location := s.snapshotURL(project)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check if snapshot exists: %w", err)
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot store.Snapshot
	if err = json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot data: %w", err)
	}
	return &snapshot, nil
}

// Delete removes a snapshot from the filesystem
func (s *Service) Delete(ctx context.Context, project string) error {
	if project == "" {
		return store.ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	location := s.snapshotURL(project)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check if snapshot exists: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	if err = s.fs.Delete(ctx, location); err != nil {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// List returns all snapshots under the base URL
func (s *Service) List(ctx context.Context) ([]*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot files: %w", err)
	}

	var snapshots []*store.Snapshot
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		if !strings.HasSuffix(object.Name(), ".json") {
			continue
		}

		data, err := s.fs.Download(ctx, object)
		if err != nil {
			// Log error but continue processing other files
			log.Printf("error reading snapshot file %s: %v", object.URL(), err)
			continue
		}

		var snapshot store.Snapshot
		if err = json.Unmarshal(data, &snapshot); err != nil {
			log.Printf("error unmarshaling snapshot from %s: %v", object.URL(), err)
			continue
		}
		snapshots = append(snapshots, &snapshot)
	}
	return snapshots, nil
}

// snapshotURL returns the storage location for a project
func (s *Service) snapshotURL(project string) string {
	return url.Join(s.baseURL, fmt.Sprintf("%s.json", project))
}

// New creates a new filesystem snapshot store
func New(baseURL string) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	return &Service{baseURL: baseURL, fs: afs.New()}, nil
}
