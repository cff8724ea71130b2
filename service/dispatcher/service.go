// Package dispatcher implements the dispatch decision: resolve the flow
// assigned to a feature, look up the (feature, flow) handler and invoke it,
// or fall through to the caller-supplied default behaviour when no handler
// is bound. The registry treats "default" like any other flow name, so an
// explicitly registered default handler is routed, not fallen through.
package dispatcher

import (
	"context"
	"fmt"
	"reflect"

	"github.com/viant/flagly/model/feature"
	"github.com/viant/flagly/model/types"
	"github.com/viant/flagly/policy"
	"github.com/viant/flagly/registry"
	"github.com/viant/flagly/resolver"
	"github.com/viant/flagly/stats"
	"github.com/viant/flagly/tracing"
	"github.com/viant/structology/conv"
)

// Listener is invoked once a dispatch completes, whether it took a handler
// or the fallthrough path and regardless of the outcome error. Implementations
// can log, collect metrics or perform any other side-effects they require.
type Listener func(feature, flow string, matched bool, input, output interface{})

// Service selects and invokes flow handlers.
type Service struct {
	resolver  resolver.Resolver
	registry  *registry.Service
	converter *conv.Converter
	listener  Listener
	policy    *policy.Policy
	stats     *stats.Stats
}

// Option customises the dispatcher.
type Option func(*Service)

// WithResolver sets the flow resolver.
func WithResolver(aResolver resolver.Resolver) Option {
	return func(s *Service) {
		s.resolver = aResolver
	}
}

// WithRegistry sets the handler registry.
func WithRegistry(aRegistry *registry.Service) Option {
	return func(s *Service) {
		s.registry = aRegistry
	}
}

// WithListener sets the listener invoked after every dispatch. Passing nil
// disables the callback entirely.
func WithListener(listener Listener) Option {
	return func(s *Service) {
		s.listener = listener
	}
}

// WithPolicy sets the engine level routing policy; a policy carried by the
// dispatch context further restricts it per call.
func WithPolicy(aPolicy *policy.Policy) Option {
	return func(s *Service) {
		s.policy = aPolicy
	}
}

// WithStats records dispatch counters on the supplied tracker.
func WithStats(tracker *stats.Stats) Option {
	return func(s *Service) {
		s.stats = tracker
	}
}

// New creates a dispatcher.
func New(options ...Option) (*Service, error) {
	convOptions := conv.DefaultOptions()
	convOptions.ClonePointerData = true
	convOptions.IgnoreUnmapped = true
	convOptions.AccessUnexported = true

	ret := &Service{converter: conv.NewConverter(convOptions)}
	for _, option := range options {
		option(ret)
	}
	if ret.resolver == nil {
		return nil, fmt.Errorf("resolver was empty")
	}
	if ret.registry == nil {
		return nil, fmt.Errorf("registry was empty")
	}
	return ret, nil
}

// Dispatch resolves the flow for feature and routes the call to the bound
// handler; without a binding it invokes defaultHandler with the original,
// untouched input and output. A nil defaultHandler makes the miss a no-op.
// Handler and fallthrough errors are returned as-is, so callers can match
// them with errors.Is against their own sentinel values.
func (s *Service) Dispatch(ctx context.Context, feature string, fctx *feature.Context, input, output interface{}, defaultHandler types.Handler) error {
	ctx, span := tracing.StartSpan(ctx, "flagly.dispatch", "INTERNAL")
	flow := resolver.Default
	if s.routable(ctx, feature) {
		flow = s.resolver.Resolve(ctx, feature, fctx)
		if binding, ok := s.registry.Binding(feature, flow); ok {
			return s.route(ctx, span, binding, feature, flow, input, output)
		}
	}
	s.record(ctx, stats.Delta{Dispatched: 1, FellThrough: 1})
	span.WithAttributes(map[string]string{"flagly.feature": feature, "flagly.flow": flow, "flagly.matched": "false"})
	var err error
	if defaultHandler != nil {
		err = defaultHandler(ctx, input, output)
	}
	if s.listener != nil {
		s.listener(feature, flow, false, input, output)
	}
	tracing.EndSpan(span, err)
	return err
}

// route invokes the bound handler with coerced input and output.
func (s *Service) route(ctx context.Context, span *tracing.Span, binding *registry.Binding, feature, flow string, input, output interface{}) error {
	span.WithAttributes(map[string]string{"flagly.feature": feature, "flagly.flow": flow, "flagly.matched": "true"})
	typedInput, err := s.typed(binding.Input, input)
	if err != nil {
		err = fmt.Errorf("failed to convert input for %v/%v: %w", feature, flow, err)
		s.record(ctx, stats.Delta{Dispatched: 1})
		tracing.EndSpan(span, err)
		return err
	}
	typedOutput := output
	if binding.Output != nil && output == nil {
		typedOutput = newInstancePtr(binding.Output)
	}

	err = binding.Handler(ctx, typedInput, typedOutput)
	s.record(ctx, stats.Delta{Dispatched: 1, Routed: 1})
	if s.listener != nil {
		s.listener(feature, flow, true, typedInput, typedOutput)
	}
	tracing.EndSpan(span, err)
	return err
}

// routable combines the engine policy with any policy riding in the context.
func (s *Service) routable(ctx context.Context, feature string) bool {
	if !s.policy.IsRoutable(feature) {
		return false
	}
	return policy.FromContext(ctx).IsRoutable(feature)
}

// typed coerces value to the declared binding input type. Values already of
// the handler-facing type pass through; anything else is cloned into a
// freshly allocated instance. A nil declared type leaves the value untouched.
func (s *Service) typed(target reflect.Type, value interface{}) (interface{}, error) {
	if target == nil {
		return value, nil
	}
	if value != nil && reflect.TypeOf(value) == handlerType(target) {
		return value, nil
	}
	instance := newInstancePtr(target)
	if value != nil {
		if err := s.converter.Convert(value, instance); err != nil {
			return nil, err
		}
	}
	if target.Kind() == reflect.Slice {
		instance = reflect.ValueOf(instance).Elem().Interface()
	}
	return instance, nil
}

// handlerType is the type a handler receives for a declared binding type:
// slices travel by value, everything else as a pointer to the element.
func handlerType(target reflect.Type) reflect.Type {
	if target.Kind() == reflect.Slice || target.Kind() == reflect.Ptr {
		return target
	}
	return reflect.PtrTo(target)
}

func (s *Service) record(ctx context.Context, delta stats.Delta) {
	s.stats.Update(delta)
	stats.UpdateCtx(ctx, delta)
}

// newInstancePtr creates a new instance pointer of the given type.
func newInstancePtr(t reflect.Type) interface{} {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return reflect.New(t).Interface()
}
