package flagly

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/flagly/model/feature"
	"github.com/viant/flagly/model/types"
	"github.com/viant/flagly/registry"
	"github.com/viant/flagly/resolver"
	"github.com/viant/flagly/resolver/override"
	"github.com/viant/flagly/resolver/remote"
	"github.com/viant/flagly/resolver/static"
	"github.com/viant/flagly/service/dispatcher"
	"github.com/viant/flagly/service/event"
	"github.com/viant/flagly/service/messaging"
	"github.com/viant/flagly/service/messaging/fs"
	"github.com/viant/flagly/service/meta"
	"github.com/viant/flagly/service/store"
	"github.com/viant/flagly/stats"
	"github.com/viant/x"
)

// Service wires one engine instance: configuration, the handler registry,
// the resolver selected by config and the dispatcher routing calls through
// them.
type Service struct {
	config        *Config
	configURL     string
	metaService   *meta.Service
	metaBaseURL   string
	metaFsOptions []storage.Option

	registry *registry.Service
	goTypes  []*x.Type
	bindings []registry.Binding
	sources  []registry.HandlerSource

	resolver       resolver.Resolver
	remoteResolver *remote.Resolver
	transport      remote.Doer
	snapshots      store.Service

	events      *event.Service
	ownedEvents bool

	dispatcher        *dispatcher.Service
	dispatcherOptions []dispatcher.Option
	listener          dispatcher.Listener
	stats             *stats.Stats
	client            *Client

	shutdown sync.Once
}

// New builds an engine from the supplied options. Construction fails on an
// invalid or unloadable configuration, an unknown provider, a malformed
// override expression or an unresolvable API key; with the server provider a
// successful New has already started the poll worker.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(context.Background()); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(ctx context.Context) error {
	if err := s.ensureBaseSetup(ctx); err != nil {
		return err
	}
	if err := s.ensureResolver(); err != nil {
		return err
	}
	options := append([]dispatcher.Option{
		dispatcher.WithResolver(s.resolver),
		dispatcher.WithRegistry(s.registry),
		dispatcher.WithListener(s.listener),
		dispatcher.WithStats(s.stats),
	}, s.dispatcherOptions...)
	aDispatcher, err := dispatcher.New(options...)
	if err != nil {
		s.stop()
		return err
	}
	s.dispatcher = aDispatcher
	s.client = NewClient(s.resolver)
	return nil
}

func (s *Service) ensureBaseSetup(ctx context.Context) error {
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}
	if s.config == nil {
		if s.configURL != "" {
			config := &Config{}
			if err := s.metaService.Load(ctx, s.configURL, config); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			s.config = config
		} else {
			s.config = DefaultConfig()
		}
	}
	s.config.Init()
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if s.stats == nil {
		s.stats = stats.New(s.config.project())
	}
	if s.registry == nil {
		s.registry = registry.New()
	}
	for _, goType := range s.goTypes {
		s.registry.Types().Register(goType)
	}
	for _, binding := range s.bindings {
		s.registry.RegisterBinding(binding)
	}
	for _, source := range s.sources {
		for _, binding := range source.Handlers() {
			s.registry.RegisterBinding(binding)
		}
	}
	if s.events == nil && s.config.Events.Vendor != "" {
		events, err := s.newEventService()
		if err != nil {
			return err
		}
		s.events = events
		s.ownedEvents = true
	}
	return nil
}

func (s *Service) newEventService() (*event.Service, error) {
	vendor := messaging.Vendor(s.config.Events.Vendor)
	if vendor != "fs" {
		return event.New(vendor)
	}
	baseURL := s.config.Events.URL
	return event.New(vendor, event.WithNewFsQueueConfig(func(name string) fs.Config {
		config := fs.DefaultConfig()
		config.BaseURL = url.Join(baseURL, name)
		return config
	}))
}

// ensureResolver builds the provider selected by config unless an explicit
// resolver was supplied, then decorates it with the override layer so that
// policy pins, configured overrides and the FLAGLY_FLAGS expression are
// consulted ahead of the provider.
func (s *Service) ensureResolver() error {
	delegate := s.resolver
	if delegate == nil {
		switch s.config.Source.Provider {
		case ProviderLocal:
			delegate = static.New(s.config.Flags)
		case ProviderServer:
			options := []remote.Option{remote.WithStats(s.stats)}
			if s.transport != nil {
				options = append(options, remote.WithTransport(s.transport))
			}
			if s.snapshots != nil {
				options = append(options, remote.WithStore(s.snapshots))
			}
			if s.events != nil {
				options = append(options, remote.WithEvents(s.events))
			}
			remoteResolver, err := remote.New(*s.config.Source.Server, options...)
			if err != nil {
				return err
			}
			s.remoteResolver = remoteResolver
			delegate = remoteResolver
		}
	}
	overriding, err := override.New(delegate,
		override.WithExpression(s.config.Overrides),
		override.WithEnv(OverridesEnvKey))
	if err != nil {
		s.stop()
		return err
	}
	s.resolver = overriding
	return nil
}

// Register binds a handler to a (feature, flow) pair; a repeated
// registration replaces the previous handler.
func (s *Service) Register(feature, flow string, handler types.Handler) {
	s.registry.Register(feature, flow, handler)
}

// RegisterTypes adds Go types usable as declared handler inputs and outputs.
func (s *Service) RegisterTypes(goTypes ...*x.Type) {
	for i := range goTypes {
		s.registry.Types().Register(goTypes[i])
	}
}

// Dispatch routes one call: it resolves the flow for feature, invokes the
// bound handler or falls through to defaultHandler when none is bound. This
// is the entry point an interception layer calls around feature gated
// methods.
func (s *Service) Dispatch(ctx context.Context, feature string, fctx *feature.Context, input, output interface{}, defaultHandler types.Handler) error {
	return s.dispatcher.Dispatch(ctx, feature, fctx, input, output, defaultHandler)
}

// Client returns the read-only flow check facade.
func (s *Service) Client() *Client {
	return s.client
}

// Dispatcher returns the dispatch engine.
func (s *Service) Dispatcher() *dispatcher.Service {
	return s.dispatcher
}

// Registry returns the handler registry.
func (s *Service) Registry() *registry.Service {
	return s.registry
}

// Resolver returns the active resolver, including the override layer.
func (s *Service) Resolver() resolver.Resolver {
	return s.resolver
}

// Events returns the change event service, or nil when none is configured.
func (s *Service) Events() *event.Service {
	return s.events
}

// Stats returns a copy of the engine counters.
func (s *Service) Stats() stats.Snapshot {
	return s.stats.Snapshot()
}

// Shutdown stops the poll worker and any engine owned event listeners. Safe
// to call more than once.
func (s *Service) Shutdown(ctx context.Context) error {
	s.stop()
	return nil
}

func (s *Service) stop() {
	s.shutdown.Do(func() {
		if s.remoteResolver != nil {
			s.remoteResolver.Shutdown()
		}
		if s.ownedEvents && s.events != nil {
			s.events.Shutdown()
		}
	})
}
