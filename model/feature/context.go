package feature

import "sort"

// Context carries optional contextual attributes describing a dispatch call
// site, i.e. user or tenant identifiers. It is an immutable value bag:
// resolvers may consult it but can never mutate it, and the zero generation
// of a builder is never shared.
type Context struct {
	values map[string]interface{}
}

// Pair is a single contextual attribute.
type Pair struct {
	Key   string
	Value interface{}
}

// Get returns the value for a key and whether it was present.
func (c *Context) Get(key string) (interface{}, bool) {
	if c == nil || c.values == nil {
		return nil, false
	}
	value, ok := c.values[key]
	return value, ok
}

// Value returns the value for a key or nil when absent.
func (c *Context) Value(key string) interface{} {
	value, _ := c.Get(key)
	return value
}

// Keys returns a sorted copy of all attribute keys.
func (c *Context) Keys() []string {
	if c == nil || len(c.values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.values))
	for key := range c.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of attributes.
func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}

// Builder accumulates attributes for a Context.
type Builder struct {
	values map[string]interface{}
}

// NewContext creates a context builder.
func NewContext() *Builder {
	return &Builder{values: map[string]interface{}{}}
}

// With adds an attribute, overwriting any previous value for the key.
func (b *Builder) With(key string, value interface{}) *Builder {
	b.values[key] = value
	return b
}

// Build returns an immutable context; the builder can be reused afterwards
// without affecting already built contexts.
func (b *Builder) Build() *Context {
	values := make(map[string]interface{}, len(b.values))
	for k, v := range b.values {
		values[k] = v
	}
	return &Context{values: values}
}

// ContextOf builds a context from ordered pairs; a later pair overwrites an
// earlier one with the same key.
func ContextOf(pairs ...Pair) *Context {
	builder := NewContext()
	for _, pair := range pairs {
		builder.With(pair.Key, pair.Value)
	}
	return builder.Build()
}
