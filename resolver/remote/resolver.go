package remote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bufbuild/httplb"
	"github.com/viant/flagly/model/feature"
	"github.com/viant/flagly/resolver"
	"github.com/viant/flagly/service/event"
	"github.com/viant/flagly/service/secret"
	"github.com/viant/flagly/service/store"
	"github.com/viant/flagly/service/store/file"
	"github.com/viant/flagly/stats"
)

// generation is one immutable feature->flow assignment set; the whole value
// is replaced on every successful poll, never mutated in place.
type generation struct {
	flows     map[string]string
	fetchedAt time.Time
}

// Resolver serves flows from a background-refreshed cache.
type Resolver struct {
	config      Config
	transport   Doer
	ownedClient *httplb.Client
	secrets     *secret.Service
	snapshots   store.Service
	events      *event.Service
	changes     *event.Publisher[Change]
	listener    func(Update)
	stats       *stats.Stats
	apiKey      string

	current  atomic.Pointer[generation]
	done     chan struct{}
	stopped  chan struct{}
	cancel   context.CancelFunc
	shutdown sync.Once
}

var _ resolver.Resolver = (*Resolver)(nil)

// New validates config, resolves credentials, optionally bootstraps the
// cache from a snapshot store and starts the poll worker. The returned
// resolver serves resolver.Default for every feature until the first
// successful poll lands.
func New(config Config, options ...Option) (*Resolver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.Init()

	ret := &Resolver{
		config:  config,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	ret.current.Store(&generation{flows: map[string]string{}})
	for _, option := range options {
		option(ret)
	}

	ctx := context.Background()
	if err := ret.init(ctx); err != nil {
		return nil, err
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	ret.cancel = cancel
	go ret.pollLoop(workerCtx)
	return ret, nil
}

func (r *Resolver) init(ctx context.Context) error {
	if r.secrets == nil {
		r.secrets = secret.New()
	}
	apiKey, err := r.secrets.APIKey(ctx, r.config.Auth)
	if err != nil {
		return fmt.Errorf("failed to resolve API key: %w", err)
	}
	r.apiKey = apiKey

	if r.snapshots == nil && r.config.SnapshotURL != "" {
		snapshots, err := file.New(r.config.SnapshotURL)
		if err != nil {
			return fmt.Errorf("failed to open snapshot store: %w", err)
		}
		r.snapshots = snapshots
	}
	if r.events != nil {
		changes, err := event.PublisherOf[Change](r.events)
		if err != nil {
			return fmt.Errorf("failed to create change publisher: %w", err)
		}
		r.changes = changes
	}
	if r.transport == nil {
		client := httplb.NewClient(httplb.WithDefaultTimeout(time.Duration(r.config.Timeout) * time.Millisecond))
		r.transport = client
		r.ownedClient = client
	}
	r.bootstrap(ctx)
	return nil
}

// bootstrap seeds the cache with the last persisted generation, if any.
func (r *Resolver) bootstrap(ctx context.Context) {
	if r.snapshots == nil || r.config.Project == "" {
		return
	}
	snapshot, err := r.snapshots.Load(ctx, r.config.Project)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("failed to load snapshot for %v: %v", r.config.Project, err)
		}
		return
	}
	flows := make(map[string]string, len(snapshot.Flows))
	for feature, flow := range snapshot.Flows {
		flows[feature] = flow
	}
	r.current.Store(&generation{flows: flows, fetchedAt: snapshot.FetchedAt})
}

// Resolve returns the flow assigned to feature by the current generation,
// or resolver.Default when the feature is unknown. The context and feature
// context are accepted for interface symmetry and reserved for targeting.
func (r *Resolver) Resolve(ctx context.Context, feature string, fctx *feature.Context) string {
	current := r.current.Load()
	if flow, ok := current.flows[feature]; ok {
		return flow
	}
	return resolver.Default
}

// Snapshot returns a copy of the current generation.
func (r *Resolver) Snapshot() map[string]string {
	current := r.current.Load()
	flows := make(map[string]string, len(current.flows))
	for feature, flow := range current.flows {
		flows[feature] = flow
	}
	return flows
}

// Shutdown stops the poll worker and waits for it to exit. Safe to call
// more than once.
func (r *Resolver) Shutdown() {
	r.shutdown.Do(func() {
		close(r.done)
		r.cancel()
		<-r.stopped
		if r.ownedClient != nil {
			_ = r.ownedClient.Close()
		}
	})
}
