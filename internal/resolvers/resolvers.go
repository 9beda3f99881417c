// Package resolvers provides an in-process executor.Runtime backed by
// registered Go functions. Fields resolve either synchronously or through
// depth-wise batches, keyed by "ObjectType.field".
package resolvers

import (
	"context"
	"fmt"
	"sync"

	executor "github.com/hanpama/gqlbridge/internal/executor"
	schema "github.com/hanpama/gqlbridge/internal/schema"
)

// Func resolves one field value.
type Func func(ctx context.Context, source any, args map[string]any) (any, error)

// BatchFunc resolves one depth's worth of tasks for a single field. It must
// return one result per input, in input order.
type BatchFunc func(ctx context.Context, sources []any, args []map[string]any) ([]any, []error)

// TypeFunc resolves the concrete object type name for an abstract-typed value.
type TypeFunc func(value any) (string, error)

// ScalarFunc serializes a custom scalar value to a JSON-safe Go value.
type ScalarFunc func(value any) (any, error)

// Map is a registry of field resolvers implementing executor.Runtime.
// Register everything before serving; registration is not synchronized with
// in-flight execution.
type Map struct {
	fields  map[string]Func
	batches map[string]BatchFunc
	types   map[string]TypeFunc
	scalars map[string]ScalarFunc
}

// NewMap creates an empty registry.
func NewMap() *Map {
	return &Map{
		fields:  map[string]Func{},
		batches: map[string]BatchFunc{},
		types:   map[string]TypeFunc{},
		scalars: map[string]ScalarFunc{},
	}
}

func fieldKey(objectType, field string) string { return objectType + "." + field }

// Field registers a synchronous resolver for ObjectType.field.
func (m *Map) Field(objectType, field string, fn Func) *Map {
	m.fields[fieldKey(objectType, field)] = fn
	return m
}

// Batch registers a batched resolver for ObjectType.field. Batched fields are
// resolved asynchronously, once per execution depth.
func (m *Map) Batch(objectType, field string, fn BatchFunc) *Map {
	m.batches[fieldKey(objectType, field)] = fn
	return m
}

// Type registers a concrete-type resolver for an interface or union type.
func (m *Map) Type(abstractType string, fn TypeFunc) *Map {
	m.types[abstractType] = fn
	return m
}

// Scalar registers a serializer for a custom scalar type.
func (m *Map) Scalar(name string, fn ScalarFunc) *Map {
	m.scalars[name] = fn
	return m
}

// Annotate marks batch-registered fields as async on the schema so the
// executor queues them for depth-wise batching. Call after building the
// schema and before execution.
func (m *Map) Annotate(s *schema.Schema) {
	for _, t := range s.Types {
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			continue
		}
		for _, f := range t.Fields {
			if _, ok := m.batches[fieldKey(t.Name, f.Name)]; ok {
				f.Async = true
			}
		}
	}
}

// ResolveSync implements executor.Runtime. Unregistered fields fall back to
// projecting the field out of a map source, like a plain property read.
func (m *Map) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	if fn, ok := m.fields[fieldKey(objectType, field)]; ok {
		return fn(ctx, source, args)
	}
	if src, ok := source.(map[string]any); ok {
		return src[field], nil
	}
	return nil, nil
}

// BatchResolveAsync implements executor.Runtime. Tasks are grouped by
// (objectType, field) in first-appearance order; groups run concurrently and
// results are mapped back to input order.
func (m *Map) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	if len(tasks) == 0 {
		return nil
	}
	type group struct {
		key     string
		indices []int
	}
	groups := make([]group, 0)
	indexByKey := make(map[string]int)
	for i, t := range tasks {
		key := fieldKey(t.ObjectType, t.Field)
		if gi, ok := indexByKey[key]; ok {
			groups[gi].indices = append(groups[gi].indices, i)
		} else {
			indexByKey[key] = len(groups)
			groups = append(groups, group{key: key, indices: []int{i}})
		}
	}

	results := make([]executor.AsyncResolveResult, len(tasks))
	var wg sync.WaitGroup
	for _, g := range groups {
		wg.Add(1)
		go func(g group) {
			defer wg.Done()
			sources := make([]any, len(g.indices))
			argList := make([]map[string]any, len(g.indices))
			for i, idx := range g.indices {
				sources[i] = tasks[idx].Source
				argList[i] = tasks[idx].Args
			}
			values, errs := m.resolveGroup(ctx, g.key, sources, argList)
			for i, idx := range g.indices {
				r := executor.AsyncResolveResult{}
				if i < len(values) {
					r.Value = values[i]
				}
				if i < len(errs) && errs[i] != nil {
					r.Value = nil
					r.Error = errs[i]
				}
				results[idx] = r
			}
		}(g)
	}
	wg.Wait()
	return results
}

func (m *Map) resolveGroup(ctx context.Context, key string, sources []any, argList []map[string]any) ([]any, []error) {
	if fn, ok := m.batches[key]; ok {
		return fn(ctx, sources, argList)
	}
	values := make([]any, len(sources))
	errs := make([]error, len(sources))
	fn, ok := m.fields[key]
	if !ok {
		for i := range errs {
			errs[i] = fmt.Errorf("no resolver registered for %s", key)
		}
		return values, errs
	}
	for i := range sources {
		values[i], errs[i] = fn(ctx, sources[i], argList[i])
	}
	return values, errs
}

// ResolveType implements executor.Runtime. Without a registered TypeFunc it
// reads the value's __typename entry.
func (m *Map) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if fn, ok := m.types[abstractType]; ok {
		return fn(value)
	}
	if src, ok := value.(map[string]any); ok {
		if name, ok := src["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve concrete type for %s", abstractType)
}

// ResolveUnionConcreteValue implements executor.Runtime.
func (m *Map) ResolveUnionConcreteValue(ctx context.Context, unionTypeName string, value any) (any, error) {
	return value, nil
}

// ResolveInterfaceConcreteValue implements executor.Runtime.
func (m *Map) ResolveInterfaceConcreteValue(ctx context.Context, interfaceTypeName string, value any) (any, error) {
	return value, nil
}

// SerializeLeafValue implements executor.Runtime. Custom scalars go through
// their registered serializer; everything else passes through unchanged.
func (m *Map) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	if fn, ok := m.scalars[scalarOrEnumTypeName]; ok {
		return fn(value)
	}
	return value, nil
}
