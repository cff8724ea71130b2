// Package store persists fetched feature flow snapshots so that an engine
// can come back up with the last known assignments before its first poll
// completes, and so operators can inspect what a given instance last saw.
package store

import (
	"context"
	"errors"
	"time"
)

// Snapshot captures one successfully fetched feature->flow assignment set
// for a project. Loaded snapshots are shared values; callers must treat them
// as read-only.
type Snapshot struct {
	ID        string            `json:"id,omitempty"`
	Project   string            `json:"project"`
	Flows     map[string]string `json:"flows"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// Service is the snapshot persistence contract, keyed by project.
type Service interface {
	Save(ctx context.Context, snapshot *Snapshot) error

	Load(ctx context.Context, project string) (*Snapshot, error)

	Delete(ctx context.Context, project string) error

	List(ctx context.Context) ([]*Snapshot, error)
}

// Common, reusable store errors.  Using sentinel variables allows callers to
// reliably detect error conditions via errors.Is/As instead of brittle string
// comparisons.

var (
	// ErrNotFound is returned when no snapshot exists for the requested
	// project.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidKey indicates that the supplied project key is empty or
	// otherwise invalid.
	ErrInvalidKey = errors.New("store: invalid project")

	// ErrNilSnapshot is returned when the caller attempts to persist a nil
	// pointer.
	ErrNilSnapshot = errors.New("store: nil snapshot")
)
