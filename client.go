package flagly

import (
	"context"

	"github.com/viant/flagly/model/feature"
	"github.com/viant/flagly/resolver"
)

// Client is a read-only facade over the active resolver for ad-hoc flow
// checks outside the dispatch path. It holds no state beyond the resolver
// reference and is safe for unlimited concurrent reuse.
type Client struct {
	resolver resolver.Resolver
}

// NewClient creates a client over the supplied resolver.
func NewClient(aResolver resolver.Resolver) *Client {
	return &Client{resolver: aResolver}
}

// Flow returns the flow currently assigned to feature. A nil feature context
// stands in for the empty context.
func (c *Client) Flow(ctx context.Context, feature string, fctx *feature.Context) string {
	if c == nil || c.resolver == nil {
		return resolver.Default
	}
	return c.resolver.Resolve(ctx, feature, fctx)
}

// IsEnabled reports whether feature currently resolves to flow; the
// comparison is exact and case sensitive.
func (c *Client) IsEnabled(ctx context.Context, feature, flow string, fctx *feature.Context) bool {
	return c.Flow(ctx, feature, fctx) == flow
}
