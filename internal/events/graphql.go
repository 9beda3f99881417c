package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// ResolveErrorStart is emitted when a raised field error enters the
// exception-resolver chain.
type ResolveErrorStart struct {
	ObjectType string
	Field      string
	Err        error
}

// ResolveErrorFinish is emitted after the chain ran. Resolved reports whether
// some resolver produced client-facing errors for the raised error.
type ResolveErrorFinish struct {
	ObjectType string
	Field      string
	Resolved   bool
}
