package ambient

import (
	"github.com/timandy/routine"
)

// ThreadLocalAccessor is an Accessor over goroutine-local storage. Transport
// middleware sets a value with Set on its own goroutine; Capture picks it up
// at ingress and the Bridge re-installs it around resolution logic running
// elsewhere.
type ThreadLocalAccessor struct {
	name  string
	store routine.ThreadLocal[any]
	set   routine.ThreadLocal[bool]
}

// NewThreadLocalAccessor creates an accessor with its own backing storage and
// registers it with the default registry.
func NewThreadLocalAccessor(name string) *ThreadLocalAccessor {
	a := &ThreadLocalAccessor{
		name:  name,
		store: routine.NewThreadLocal[any](),
		set:   routine.NewThreadLocal[bool](),
	}
	Register(a)
	return a
}

// Name implements Accessor.
func (a *ThreadLocalAccessor) Name() string { return a.name }

// Extract implements Accessor.
func (a *ThreadLocalAccessor) Extract() (any, bool) {
	if !a.set.Get() {
		return nil, false
	}
	return a.store.Get(), true
}

// Install implements Accessor.
func (a *ThreadLocalAccessor) Install(value any) {
	a.store.Set(value)
	a.set.Set(true)
}

// Clear implements Accessor.
func (a *ThreadLocalAccessor) Clear() {
	a.store.Remove()
	a.set.Remove()
}

// Set stores value for the calling goroutine. Transport code calls this
// before the request's snapshot is captured.
func (a *ThreadLocalAccessor) Set(value any) { a.Install(value) }

// Value reads the value for the calling goroutine, nil when unset.
func (a *ThreadLocalAccessor) Value() any {
	v, _ := a.Extract()
	return v
}
