// Package ambient captures goroutine-ambient ("thread-local") state set by
// transport code into the per-request context map, and restores it later on
// whatever goroutine drives resolution.
//
// Transport middleware sets ambient values through registered Accessors. At
// ingress the server calls Capture on the transport goroutine and stores the
// resulting Snapshot in the request's context map under a reserved key. The
// Bridge then installs and tears down those values around synchronous
// resolution logic that expects to see them ambiently.
package ambient

import (
	"sync"

	reqctx "github.com/hanpama/gqlbridge/internal/reqctx"
)

// Accessor extracts and installs one named ambient value on the calling
// goroutine. Implementations must be safe for concurrent use from different
// goroutines; the per-goroutine value itself is never shared.
type Accessor interface {
	// Name identifies the accessor, for diagnostics only.
	Name() string
	// Extract reads the ambient value on the calling goroutine. ok is false
	// when no value is set, in which case Restore skips this accessor.
	Extract() (value any, ok bool)
	// Install sets the ambient value on the calling goroutine.
	Install(value any)
	// Clear removes the ambient value from the calling goroutine.
	Clear()
}

// Registry holds the accessors consulted by Capture. Register everything
// before serving begins; registration during concurrent captures is safe but
// an in-flight request only sees accessors registered before its ingress.
type Registry struct {
	mu        sync.RWMutex
	accessors []Accessor
}

// Register appends a to the registry.
func (r *Registry) Register(a Accessor) {
	r.mu.Lock()
	r.accessors = append(r.accessors, a)
	r.mu.Unlock()
}

// Capture reads every registered accessor on the calling goroutine and
// returns a snapshot of the values that were present.
func (r *Registry) Capture() *Snapshot {
	r.mu.RLock()
	accessors := r.accessors
	r.mu.RUnlock()
	s := &Snapshot{}
	for _, a := range accessors {
		if v, ok := a.Extract(); ok {
			s.entries = append(s.entries, snapshotEntry{accessor: a, value: v})
		}
	}
	return s
}

// Snapshot is a set of ambient values captured on one goroutine. It is owned
// by a single request invocation and never shared across concurrent
// invocations; resolvers treat it as an opaque handle.
type Snapshot struct {
	entries []snapshotEntry
}

type snapshotEntry struct {
	accessor Accessor
	value    any
}

// restore installs the captured values on the calling goroutine.
func (s *Snapshot) restore() {
	for _, e := range s.entries {
		e.accessor.Install(e.value)
	}
}

// reset clears the captured values from the calling goroutine.
func (s *Snapshot) reset() {
	for _, e := range s.entries {
		e.accessor.Clear()
	}
}

type snapshotKey struct{}

// WithSnapshot stores s in the request context map under the reserved slot.
func WithSnapshot(m *reqctx.Map, s *Snapshot) *reqctx.Map {
	return m.With(snapshotKey{}, s)
}

// SnapshotFrom extracts the stored snapshot, or nil if none was captured.
func SnapshotFrom(m *reqctx.Map) *Snapshot {
	s, _ := m.Value(snapshotKey{}).(*Snapshot)
	return s
}

// Bridge restores and tears down captured ambient state. It satisfies the
// resolver adapter's ContextBridge contract; snapshots travel through it as
// opaque values. Restore and Reset with a missing or foreign snapshot are
// no-ops, so Reset stays safe to attempt after a failed Restore.
type Bridge struct{}

// Lookup extracts the snapshot from the per-request context map.
func (Bridge) Lookup(m *reqctx.Map) any {
	if s := SnapshotFrom(m); s != nil {
		return s
	}
	return nil
}

// Restore installs the snapshot's values on the calling goroutine.
func (Bridge) Restore(snapshot any) {
	if s, ok := snapshot.(*Snapshot); ok && s != nil {
		s.restore()
	}
}

// Reset removes the values installed by the matching Restore call.
func (Bridge) Reset(snapshot any) {
	if s, ok := snapshot.(*Snapshot); ok && s != nil {
		s.reset()
	}
}

// DefaultRegistry is the registry used by Capture and by accessors created
// with NewThreadLocalAccessor.
var DefaultRegistry = &Registry{}

// DefaultBridge is the bridge over DefaultRegistry snapshots.
var DefaultBridge = Bridge{}

// Register adds a to the default registry.
func Register(a Accessor) { DefaultRegistry.Register(a) }

// Capture snapshots the default registry on the calling goroutine.
func Capture() *Snapshot { return DefaultRegistry.Capture() }
