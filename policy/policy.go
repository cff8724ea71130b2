// Package policy provides a simple, optional routing control layer that can
// be attached to a dispatch call via context.  It is deliberately decoupled
// from the rest of flagly so that using it is entirely opt-in; engines that
// do not embed the Policy in their context keep the original "route"
// behaviour.

package policy

import (
	"context"
)

// Routing modes recognised by the engine.
const (
	ModeRoute = "route" // resolve and dispatch normally (default)
	ModeDeny  = "deny"  // force the fallthrough path for every feature
)

// PinFunc is invoked for features without a static pin. Returning a flow and
// true pins the feature for this call; returning false defers to the
// configured resolver. Implementations MAY mutate the policy (for example,
// caching a decision as a static pin after the first call).
type PinFunc func(ctx context.Context, feature string, p *Policy) (string, bool)

// Policy represents the routing overrides for the current call or request.
//
//   - Mode controls the high-level behaviour (route / deny).
//   - Pins force specific flows regardless of what the resolver would say.
//   - BlockList forces the fallthrough path for the listed features.
//   - Pin is only consulted for features without a static pin.
//
// A nil *Policy means "route everything normally" and is therefore the
// zero-cost default.
type Policy struct {
	Mode      string            // route / deny          (default = route)
	Pins      map[string]string // feature -> forced flow
	BlockList []string          // features that always fall through
	Pin       PinFunc           // dynamic pins, optional
}

// ---------------------------------------------------------------------------
// Config <-> Policy converters (Config is a serialisable subset used when a
// Policy with PinFunc cannot be persisted).
// ---------------------------------------------------------------------------

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Mode      string            `json:"mode,omitempty" yaml:"mode,omitempty"`
	Pins      map[string]string `json:"pins,omitempty" yaml:"pins,omitempty"`
	BlockList []string          `json:"block,omitempty" yaml:"block,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	pins := make(map[string]string, len(p.Pins))
	for feature, flow := range p.Pins {
		pins[feature] = flow
	}
	return &Config{
		Mode:      p.Mode,
		Pins:      pins,
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy (without
// PinFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	pins := make(map[string]string, len(c.Pins))
	for feature, flow := range c.Pins {
		pins[feature] = flow
	}
	return &Policy{
		Mode:      c.Mode,
		Pins:      pins,
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// PinnedFlow returns the flow this policy forces for a feature, consulting
// static pins first and the PinFunc second. Feature keys match by exact,
// case-sensitive comparison.
func (p *Policy) PinnedFlow(ctx context.Context, feature string) (string, bool) {
	if p == nil {
		return "", false
	}
	if flow, ok := p.Pins[feature]; ok {
		return flow, true
	}
	if p.Pin != nil {
		return p.Pin(ctx, feature, p)
	}
	return "", false
}

// IsRoutable reports whether a feature may take a registered handler. Deny
// mode and block-listed features always fall through.
func (p *Policy) IsRoutable(feature string) bool {
	if p == nil {
		return true
	}
	if p.Mode == ModeDeny {
		return false
	}
	for _, blocked := range p.BlockList {
		if feature == blocked {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts (*Policy, ok).
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
