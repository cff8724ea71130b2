package registry

import (
	"reflect"
	"sort"
	"sync"

	"github.com/viant/flagly/model/types"
	"github.com/viant/x"
)

// Binding associates a handler with a (feature, flow) pair. Input and Output
// optionally declare the handler's IO types so the dispatcher can coerce
// loosely typed payloads; InputType and OutputType name registered types and
// are resolved against the type registry when the reflect counterparts are
// left nil.
type Binding struct {
	Feature    string
	Flow       string
	Handler    types.Handler
	Input      reflect.Type
	Output     reflect.Type
	InputType  string
	OutputType string
}

// Signature returns the binding's declared handler signature.
func (b *Binding) Signature() types.Signature {
	return types.Signature{Feature: b.Feature, Flow: b.Flow, Input: b.Input, Output: b.Output}
}

// HandlerSource supplies handler bindings at startup; the facade drains all
// configured sources once while the engine is being built, before any
// dispatch can observe the registry.
type HandlerSource interface {
	Handlers() []Binding
}

// Service is the handler registry. It maps feature keys to their flow
// handler sets; registration happens during startup, after which lookups are
// lock cheap, constant time and free of side effects.
type Service struct {
	types    *Types
	features map[string]map[string]*Binding
	mux      sync.RWMutex
}

func (s *Service) Types() *Types {
	return s.types
}

// Register binds a handler to a (feature, flow) pair. Registering the same
// pair again replaces the previous handler; the last registration wins.
func (s *Service) Register(feature, flow string, handler types.Handler) {
	s.RegisterBinding(Binding{Feature: feature, Flow: flow, Handler: handler})
}

// RegisterBinding registers a handler binding, resolving named IO types
// against the type registry.
func (s *Service) RegisterBinding(binding Binding) {
	if binding.Input == nil && binding.InputType != "" {
		if xType := s.types.Lookup(binding.InputType); xType != nil {
			binding.Input = xType.Type
		}
	}
	if binding.Output == nil && binding.OutputType != "" {
		if xType := s.types.Lookup(binding.OutputType); xType != nil {
			binding.Output = xType.Type
		}
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	flows, ok := s.features[binding.Feature]
	if !ok {
		flows = make(map[string]*Binding)
		s.features[binding.Feature] = flows
	}
	flows[binding.Flow] = &binding
}

// Lookup returns the handler bound to a (feature, flow) pair; absence is a
// normal outcome, not an error.
func (s *Service) Lookup(feature, flow string) (types.Handler, bool) {
	binding, ok := s.Binding(feature, flow)
	if !ok {
		return nil, false
	}
	return binding.Handler, true
}

// Handler returns the handler bound to a (feature, flow) pair or an error
// naming the missing binding. Use Lookup on the dispatch path, where absence
// falls through; Handler suits startup checks of mandatory flows.
func (s *Service) Handler(feature, flow string) (types.Handler, error) {
	handler, ok := s.Lookup(feature, flow)
	if !ok {
		return nil, types.NewHandlerNotFoundError(feature, flow)
	}
	return handler, nil
}

// Binding returns the full binding for a (feature, flow) pair.
func (s *Service) Binding(feature, flow string) (*Binding, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	flows, ok := s.features[feature]
	if !ok {
		return nil, false
	}
	binding, ok := flows[flow]
	return binding, ok
}

// Flows returns the sorted flow names registered for a feature.
func (s *Service) Flows(feature string) []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	flows, ok := s.features[feature]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(flows))
	for name := range flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signatures returns the declared signature of every registered binding,
// ordered by feature then flow.
func (s *Service) Signatures() types.Signatures {
	s.mux.RLock()
	defer s.mux.RUnlock()
	var ret types.Signatures
	for _, flows := range s.features {
		for _, binding := range flows {
			ret = append(ret, binding.Signature())
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Feature != ret[j].Feature {
			return ret[i].Feature < ret[j].Feature
		}
		return ret[i].Flow < ret[j].Flow
	})
	return ret
}

// Size returns the total number of registered bindings.
func (s *Service) Size() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	total := 0
	for _, flows := range s.features {
		total += len(flows)
	}
	return total
}

// New creates a handler registry, seeding the type registry with the
// supplied Go types.
func New(goTypes ...*x.Type) *Service {
	ret := &Service{
		types:    NewTypes(),
		features: make(map[string]map[string]*Binding),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
