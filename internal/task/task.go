// Package task provides a single-shot deferred computation.
//
// A Deferred is constructed without starting any work. Work begins only when
// Await is called; the wrapped function runs at most once and its outcome is
// memoized for subsequent Awaits. A Deferred that is never awaited never runs,
// which lets callers attach it to a larger pipeline that may be dropped before
// it starts.
package task

import (
	"context"
	"sync"
)

// Deferred is a lazy computation yielding a value of type T or an error.
type Deferred[T any] struct {
	fn   func(context.Context) (T, error)
	once sync.Once
	val  T
	err  error
}

// Defer wraps fn without invoking it.
func Defer[T any](fn func(context.Context) (T, error)) *Deferred[T] {
	return &Deferred[T]{fn: fn}
}

// Resolved returns a Deferred already holding v.
func Resolved[T any](v T) *Deferred[T] {
	d := &Deferred[T]{}
	d.once.Do(func() { d.val = v })
	return d
}

// Failed returns a Deferred already holding err.
func Failed[T any](err error) *Deferred[T] {
	d := &Deferred[T]{}
	d.once.Do(func() { d.err = err })
	return d
}

// Await drives the computation. The wrapped function runs on the calling
// goroutine the first time Await is called; later calls return the memoized
// outcome. If ctx is already done before the first Await, the function does
// not run and ctx.Err() is returned without being memoized, so a later Await
// with a live context still runs it.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	default:
	}
	d.once.Do(func() {
		if d.fn != nil {
			d.val, d.err = d.fn(ctx)
		}
	})
	return d.val, d.err
}
