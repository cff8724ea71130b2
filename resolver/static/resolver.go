// Package static resolves flows from a fixed in-process assignment map,
// typically sourced from configuration. It is the zero-infrastructure
// provider: no remote calls, no refresh, no mutation after construction.
package static

import (
	"context"
	"strings"

	"github.com/viant/flagly/model/feature"
	"github.com/viant/flagly/resolver"
)

// Resolver serves feature flows from an immutable map.
type Resolver struct {
	flows map[string]string
}

// New creates a static resolver; the supplied map is copied so later caller
// mutations cannot leak into resolutions.
func New(flows map[string]string) *Resolver {
	owned := make(map[string]string, len(flows))
	for feature, flow := range flows {
		owned[feature] = flow
	}
	return &Resolver{flows: owned}
}

// Resolve returns the assigned flow for a feature. Absent or blank
// assignments resolve to the default flow; surrounding whitespace is
// trimmed off configured values.
func (r *Resolver) Resolve(ctx context.Context, feature string, fctx *feature.Context) string {
	flow, ok := r.flows[feature]
	if !ok {
		return resolver.Default
	}
	flow = strings.TrimSpace(flow)
	if flow == "" {
		return resolver.Default
	}
	return flow
}
