package remote

import (
	"net/http"

	"github.com/viant/flagly/service/event"
	"github.com/viant/flagly/service/secret"
	"github.com/viant/flagly/service/store"
	"github.com/viant/flagly/stats"
)

// Doer issues a single HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option customises a Resolver
type Option func(r *Resolver)

// WithTransport replaces the default HTTP client
func WithTransport(transport Doer) Option {
	return func(r *Resolver) {
		r.transport = transport
	}
}

// WithSecrets sets the secret service resolving the API key
func WithSecrets(secrets *secret.Service) Option {
	return func(r *Resolver) {
		r.secrets = secrets
	}
}

// WithStore sets the snapshot store used to bootstrap the cache and to
// persist each successfully fetched generation
func WithStore(snapshots store.Service) Option {
	return func(r *Resolver) {
		r.snapshots = snapshots
	}
}

// WithEvents publishes a Change event for every observed flow transition
func WithEvents(events *event.Service) Option {
	return func(r *Resolver) {
		r.events = events
	}
}

// WithListener invokes listener after every successful poll, on the poll
// worker goroutine
func WithListener(listener func(Update)) Option {
	return func(r *Resolver) {
		r.listener = listener
	}
}

// WithStats records poll counters on the supplied tracker
func WithStats(tracker *stats.Stats) Option {
	return func(r *Resolver) {
		r.stats = tracker
	}
}
