// Package flagly routes execution to one of several named behavioural
// variants ("flows") of a logical capability ("feature"), driven by a
// resolved flow value sourced from static configuration or a background
// polled remote control plane.
//
// The engine is built around a few small pieces:
//
//   - registry   – (feature, flow) -> handler bindings, populated at startup
//   - resolver   – strategy answering "which flow is active" (static, remote)
//   - dispatcher – resolves, routes to the bound handler or falls through
//   - client     – read-only flow checks outside the dispatch path
//
// Flagly is designed to be embedded in host applications. End-users
// typically interact with the engine via the high-level Service façade
// exposed by the root package:
//
//	srv, err := flagly.New(
//		flagly.WithConfig(&flagly.Config{Flags: map[string]string{"payment_flow": "v2"}}),
//	)
//	srv.Register("payment_flow", "v2", payV2)
//	err = srv.Dispatch(ctx, "payment_flow", fctx, input, output, payLegacy)
//
// A feature with no registered handler for its resolved flow falls through
// to the caller supplied default behaviour; absence is a normal outcome, not
// an error. For more details see the README and individual sub-packages.
package flagly
