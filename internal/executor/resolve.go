package executor

import (
	"context"

	eventbus "github.com/hanpama/gqlbridge/internal/eventbus"
	events "github.com/hanpama/gqlbridge/internal/events"
	reqctx "github.com/hanpama/gqlbridge/internal/reqctx"
	task "github.com/hanpama/gqlbridge/internal/task"
)

// FieldEnvironment is the read-only view of the field whose resolution raised.
// It is owned by the executor; exception resolvers must not mutate it.
type FieldEnvironment struct {
	// ObjectType is the parent GraphQL object type name. Abstract-type
	// resolution failures carry the abstract type name instead; leaf
	// serialization failures leave it empty.
	ObjectType string
	// Field is the GraphQL field name being resolved.
	Field string
	// Source is the parent object value (nil for root fields).
	Source any
	// Args are the coerced field arguments.
	Args map[string]any
	// Path is the response path of the field.
	Path Path
	// Context is the request context the executor is running under.
	Context context.Context
	// ReqContext is the per-request context map built at transport ingress.
	// May be nil when execution was started outside a transport.
	ReqContext *reqctx.Map
}

// ExceptionResolver turns an error raised while resolving a single field into
// zero or more client-facing GraphQL errors.
//
// The returned Deferred must not start work before it is awaited. Awaiting it
// yields either a non-empty error list, or nil to signal "no opinion" so the
// executor tries the next resolver in its chain. An Await failure is fatal for
// the whole chain: the executor stops trying further resolvers and degrades
// the field to a single located error.
type ExceptionResolver interface {
	ResolveException(err error, env *FieldEnvironment) *task.Deferred[[]GraphQLError]
}

// resolveFieldError drives the exception-resolver chain for a raised field
// error and appends the outcome to the execution state's error list. The
// chain is tried in order until a resolver returns a non-empty list. If no
// resolver has an opinion, or a resolver itself fails, the raw error message
// is recorded at the field's path.
func resolveFieldError(state *executionState, raised error, env *FieldEnvironment) {
	eventbus.Publish(state.context, events.ResolveErrorStart{
		ObjectType: env.ObjectType,
		Field:      env.Field,
		Err:        raised,
	})
	resolved := false
	defer func() {
		eventbus.Publish(state.context, events.ResolveErrorFinish{
			ObjectType: env.ObjectType,
			Field:      env.Field,
			Resolved:   resolved,
		})
	}()

	for _, r := range state.resolvers {
		errs, err := r.ResolveException(raised, env).Await(state.context)
		if err != nil {
			// Resolver failure short-circuits the chain; the field degrades
			// to a single located error carrying the resolver's failure.
			state.addError(err.Error(), env.Path)
			return
		}
		if len(errs) > 0 {
			state.errors = append(state.errors, errs...)
			resolved = true
			return
		}
	}
	state.addError(raised.Error(), env.Path)
}
