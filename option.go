package flagly

import (
	"github.com/viant/afs/storage"
	"github.com/viant/flagly/registry"
	"github.com/viant/flagly/resolver"
	"github.com/viant/flagly/resolver/remote"
	"github.com/viant/flagly/service/dispatcher"
	"github.com/viant/flagly/service/event"
	"github.com/viant/flagly/service/meta"
	"github.com/viant/flagly/service/store"
	"github.com/viant/flagly/stats"
	"github.com/viant/flagly/tracing"
	"github.com/viant/x"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the engine Service.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithConfigURL points at a configuration document loaded through the meta
// service; relative URLs are joined with the meta base URL.
func WithConfigURL(URL string) Option {
	return func(s *Service) {
		s.configURL = URL
	}
}

// WithMetaService sets the meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithMetaBaseURL sets the meta base URL
func WithMetaBaseURL(url string) Option {
	return func(s *Service) {
		s.metaBaseURL = url
	}
}

// WithMetaFsOptions with meta file system options
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithResolver sets an explicit resolution strategy, bypassing the provider
// selected by config. The override layer still decorates it.
func WithResolver(aResolver resolver.Resolver) Option {
	return func(s *Service) {
		s.resolver = aResolver
	}
}

// WithTransport replaces the HTTP client the server provider polls with.
func WithTransport(transport remote.Doer) Option {
	return func(s *Service) {
		s.transport = transport
	}
}

// WithHandlerSources adds handler discovery sources drained once during
// construction.
func WithHandlerSources(sources ...registry.HandlerSource) Option {
	return func(s *Service) {
		s.sources = append(s.sources, sources...)
	}
}

// WithBindings registers handler bindings during construction.
func WithBindings(bindings ...registry.Binding) Option {
	return func(s *Service) {
		s.bindings = append(s.bindings, bindings...)
	}
}

// WithTypes adds Go types usable as declared handler inputs and outputs.
func WithTypes(goTypes ...*x.Type) Option {
	return func(s *Service) {
		s.goTypes = append(s.goTypes, goTypes...)
	}
}

// WithDispatchListener sets the listener invoked after every dispatch.
func WithDispatchListener(listener dispatcher.Listener) Option {
	return func(s *Service) {
		s.listener = listener
	}
}

// WithEventService sets the change event service; the caller keeps ownership
// and Shutdown leaves it running.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.events = service
	}
}

// WithSnapshotStore sets the store the server provider bootstraps from and
// persists fetched generations to.
func WithSnapshotStore(snapshots store.Service) Option {
	return func(s *Service) {
		s.snapshots = snapshots
	}
}

// WithStats sets the counter tracker shared by the poller and dispatcher.
func WithStats(tracker *stats.Stats) Option {
	return func(s *Service) {
		s.stats = tracker
	}
}

// WithDispatcherOptions lets the caller supply additional options passed to
// dispatcher.New (e.g. a routing policy).
func WithDispatcherOptions(options ...dispatcher.Option) Option {
	return func(s *Service) {
		s.dispatcherOptions = append(s.dispatcherOptions, options...)
	}
}

// WithTracing configures OpenTelemetry tracing for the engine. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
