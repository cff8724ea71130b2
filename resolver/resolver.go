package resolver

import (
	"context"

	"github.com/viant/flagly/model/feature"
)

// Default is the reserved flow a resolver returns whenever no explicit
// assignment exists for a feature. Handlers are never registered under it;
// dispatching the default flow takes the fallthrough path.
const Default = "default"

// Resolver maps a feature key to the currently active flow. Implementations
// answer from local state only: a resolution never performs I/O, never blocks
// beyond map access and never fails. When a flow cannot be determined the
// result is Default.
//
// The feature context is part of the contract so that attribute aware
// strategies can plug in without a signature change; the built-in resolvers
// ignore it.
type Resolver interface {
	Resolve(ctx context.Context, feature string, fctx *feature.Context) string
}

// Func adapts an ordinary function to the Resolver interface.
type Func func(ctx context.Context, feature string, fctx *feature.Context) string

func (f Func) Resolve(ctx context.Context, feature string, fctx *feature.Context) string {
	return f(ctx, feature, fctx)
}
