// Package resolve adapts plain synchronous exception-resolution logic to the
// executor's deferred ExceptionResolver contract.
//
// An Adapter wraps one of two synchronous strategies: a single-error function
// or a multiple-errors function. The multiple-errors path defaults to calling
// the single-error path and wrapping its result as a one-element list, so
// callers provide exactly one of the two. The adapter can additionally restore
// goroutine-ambient ("thread-local") state captured at transport ingress
// around the synchronous call, with teardown guaranteed on every exit path.
package resolve

import (
	"context"

	ambient "github.com/hanpama/gqlbridge/internal/ambient"
	executor "github.com/hanpama/gqlbridge/internal/executor"
	reqctx "github.com/hanpama/gqlbridge/internal/reqctx"
	task "github.com/hanpama/gqlbridge/internal/task"
)

// ContextBridge restores and tears down ambient state around a synchronous
// resolution call. The snapshot is opaque to this package; it is produced by
// Lookup from the per-request context map and handed back unchanged.
//
// Reset must be safe to call after a partially failed Restore: the adapter
// always attempts teardown once Lookup has run, best effort, rather than skip
// it when Restore panics part-way through installing values.
type ContextBridge interface {
	// Lookup extracts the ambient snapshot from the per-request context map.
	// A nil or snapshot-less map yields a snapshot whose Restore is a no-op.
	Lookup(m *reqctx.Map) any
	// Restore installs the snapshot's values on the calling goroutine.
	Restore(snapshot any)
	// Reset removes the values installed by the matching Restore call.
	Reset(snapshot any)
}

// SingleErrorFunc resolves a raised error to one GraphQL error. Returning
// (nil, nil) means this resolver has no opinion and the executor should try
// the next one. A non-nil error is a resolution failure, surfaced on the
// deferred computation's failure channel.
type SingleErrorFunc func(raised error, env *executor.FieldEnvironment) (*executor.GraphQLError, error)

// MultipleErrorsFunc resolves a raised error to one or more GraphQL errors.
// A nil slice means no opinion; an empty non-nil slice is never returned by
// the adapter's default behavior and implementations must not return one.
type MultipleErrorsFunc func(raised error, env *executor.FieldEnvironment) ([]executor.GraphQLError, error)

// Adapter implements executor.ExceptionResolver over a synchronous strategy.
//
// The zero value resolves nothing. Configure it before concurrent use begins;
// after that the adapter is safe for unbounded concurrent invocation, each
// invocation owning its own snapshot lifecycle.
type Adapter struct {
	single SingleErrorFunc
	multi  MultipleErrorsFunc

	// threadLocalContextAware is written only during setup, before the
	// adapter is shared across goroutines, so reads are race-free without
	// synchronization.
	threadLocalContextAware bool
	bridge                  ContextBridge
}

// From builds an Adapter whose single-error strategy is fn. The
// multiple-errors path keeps its default single-to-list behavior.
func From(fn SingleErrorFunc) *Adapter {
	return &Adapter{single: fn, bridge: ambient.DefaultBridge}
}

// FromMultiple builds an Adapter whose multiple-errors strategy is fn. The
// single-error path is never consulted.
func FromMultiple(fn MultipleErrorsFunc) *Adapter {
	return &Adapter{multi: fn, bridge: ambient.DefaultBridge}
}

// SetThreadLocalContextAware marks whether ambient state from the transport
// goroutine should be restored while this adapter's strategy runs. Off by
// default. Call during setup only; the flag is read on every resolution
// without locking.
func (a *Adapter) SetThreadLocalContextAware(aware bool) {
	a.threadLocalContextAware = aware
}

// IsThreadLocalContextAware reports whether ambient state is restored for
// this adapter.
func (a *Adapter) IsThreadLocalContextAware() bool {
	return a.threadLocalContextAware
}

// SetContextBridge replaces the bridge used to restore ambient state.
// Intended for tests and embedders with their own ambient mechanism.
func (a *Adapter) SetContextBridge(b ContextBridge) {
	a.bridge = b
}

// ResolveException implements executor.ExceptionResolver. The returned
// Deferred does no work, and touches no ambient state, until it is awaited.
// The synchronous strategy then runs on the awaiting goroutine; the adapter
// deliberately does not offload it, since doing so would break ambient
// restoration and change the scheduling contract for strategies that block.
func (a *Adapter) ResolveException(raised error, env *executor.FieldEnvironment) *task.Deferred[[]executor.GraphQLError] {
	return task.Defer(func(context.Context) ([]executor.GraphQLError, error) {
		return a.resolveInternal(raised, env)
	})
}

func (a *Adapter) resolveInternal(raised error, env *executor.FieldEnvironment) ([]executor.GraphQLError, error) {
	if !a.threadLocalContextAware || a.bridge == nil {
		return a.resolveToMultipleErrors(raised, env)
	}
	snapshot := a.bridge.Lookup(env.ReqContext)
	// Teardown is deferred before Restore so it still runs, best effort,
	// when Restore fails part-way. It runs exactly once per invocation on
	// every exit path, before any strategy failure propagates.
	defer a.bridge.Reset(snapshot)
	a.bridge.Restore(snapshot)
	return a.resolveToMultipleErrors(raised, env)
}

func (a *Adapter) resolveToMultipleErrors(raised error, env *executor.FieldEnvironment) ([]executor.GraphQLError, error) {
	if a.multi != nil {
		return a.multi(raised, env)
	}
	single, err := a.resolveToSingleError(raised, env)
	if err != nil {
		return nil, err
	}
	if single == nil {
		return nil, nil
	}
	return []executor.GraphQLError{*single}, nil
}

func (a *Adapter) resolveToSingleError(raised error, env *executor.FieldEnvironment) (*executor.GraphQLError, error) {
	if a.single != nil {
		return a.single(raised, env)
	}
	return nil, nil
}
