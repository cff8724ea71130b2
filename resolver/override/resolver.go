// Package override decorates any resolver with pinned flow assignments
// sourced from policy contexts, configuration expressions or environment
// variables. It exists so that an operator can force a flow during an
// incident, or a developer can try a flow locally, without touching the
// control plane.
package override

import (
	"context"
	"fmt"
	"os"

	"github.com/viant/flagly/model/feature"
	"github.com/viant/flagly/policy"
	"github.com/viant/flagly/resolver"
)

// Resolver consults, in order: per-call policy pins, packaged overrides and
// finally the delegate resolver.
type Resolver struct {
	delegate    resolver.Resolver
	overrides   map[string]string
	expressions []string
	envKeys     []string
}

// Option customises an override resolver.
type Option func(*Resolver)

// WithExpression adds a feature=flow[,feature=flow...] expression parsed at
// construction.
func WithExpression(expression string) Option {
	return func(r *Resolver) {
		if expression != "" {
			r.expressions = append(r.expressions, expression)
		}
	}
}

// WithEnv adds an environment variable whose value is read once at
// construction and parsed as an override expression.
func WithEnv(key string) Option {
	return func(r *Resolver) {
		r.envKeys = append(r.envKeys, key)
	}
}

// WithPairs adds already parsed override pairs.
func WithPairs(pairs ...Pair) Option {
	return func(r *Resolver) {
		for _, pair := range pairs {
			r.overrides[pair.Feature] = pair.Flow
		}
	}
}

// New creates an override resolver decorating delegate. A malformed override
// expression is a construction error; an engine never starts with a half
// understood override set.
func New(delegate resolver.Resolver, options ...Option) (*Resolver, error) {
	ret := &Resolver{
		delegate:  delegate,
		overrides: map[string]string{},
	}
	for _, option := range options {
		option(ret)
	}
	for _, key := range ret.envKeys {
		if value := os.Getenv(key); value != "" {
			ret.expressions = append(ret.expressions, value)
		}
	}
	for _, expression := range ret.expressions {
		pairs, err := Parse([]byte(expression))
		if err != nil {
			return nil, fmt.Errorf("invalid override expression %q: %w", expression, err)
		}
		for _, pair := range pairs {
			ret.overrides[pair.Feature] = pair.Flow
		}
	}
	return ret, nil
}

// Overrides returns a copy of the effective packaged overrides.
func (r *Resolver) Overrides() map[string]string {
	out := make(map[string]string, len(r.overrides))
	for feature, flow := range r.overrides {
		out[feature] = flow
	}
	return out
}

// Resolve implements resolver.Resolver.
func (r *Resolver) Resolve(ctx context.Context, feature string, fctx *feature.Context) string {
	if p := policy.FromContext(ctx); p != nil {
		if flow, ok := p.PinnedFlow(ctx, feature); ok {
			return flow
		}
	}
	if flow, ok := r.overrides[feature]; ok {
		return flow
	}
	if r.delegate == nil {
		return resolver.Default
	}
	return r.delegate.Resolve(ctx, feature, fctx)
}
