package types

import (
	"context"
	"reflect"
)

// Handler is a function bound to a (feature, flow) pair. The dispatcher
// invokes it with the caller supplied input and output holders; the same
// shape serves as the fallthrough invocation when no handler is bound.
type Handler func(ctx context.Context, input, output interface{}) error

type Signatures []Signature

func (s Signatures) Lookup(feature, flow string) *Signature {
	for i := range s {
		sig := &s[i]
		if sig.Feature == feature && sig.Flow == flow {
			return sig
		}
	}
	return nil
}

// Signature	handler signature
type Signature struct {
	Feature string
	Flow    string
	Input   reflect.Type
	Output  reflect.Type
}
