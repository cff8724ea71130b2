// Package registry provides the run-time registries binding (feature, flow)
// pairs to handlers and naming the user-defined Go types used as handler
// inputs and outputs.
//
// The registries are normally populated through the public APIs under the
// root flagly package, therefore most applications do not need to import
// this package directly.
package registry
