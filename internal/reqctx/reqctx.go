// Package reqctx carries per-request key-value state through the execution
// pipeline without relying on goroutine affinity.
package reqctx

import "context"

// Map is the per-request context map. It is built at transport ingress and
// treated as immutable afterward; With copies instead of mutating.
type Map struct {
	values map[any]any
}

// New returns an empty Map.
func New() *Map { return &Map{values: map[any]any{}} }

// With returns a copy of m with key set to value. m is unchanged.
func (m *Map) With(key, value any) *Map {
	next := make(map[any]any, len(m.values)+1)
	for k, v := range m.values {
		next[k] = v
	}
	next[key] = value
	return &Map{values: next}
}

// Value returns the value stored under key, or nil.
func (m *Map) Value(key any) any {
	if m == nil {
		return nil
	}
	return m.values[key]
}

type ctxKey struct{}

// NewContext returns a copy of parent carrying m.
func NewContext(parent context.Context, m *Map) context.Context {
	return context.WithValue(parent, ctxKey{}, m)
}

// FromContext extracts the request Map from ctx. It returns nil if the
// request did not pass through the transport layer.
func FromContext(ctx context.Context) *Map {
	m, _ := ctx.Value(ctxKey{}).(*Map)
	return m
}
