// Package model contains the in-memory representation of feature routing
// building blocks shared across the flagly engine.
//
// The `feature` sub-package holds the immutable evaluation context passed to
// resolvers, and the `types` sub-package holds the handler contracts bound by
// the registry. The root model package simply aggregates those building
// blocks so that they can be referenced from other parts of the code base
// with a single import.
package model
