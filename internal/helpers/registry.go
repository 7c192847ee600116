package helpers

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"
)

// Context is what a helper sees of the evaluation it runs in.
type Context interface {
	// Locale returns the active locale code.
	Locale() string

	// Lookup returns a bound variable.
	Lookup(name string) (any, bool)
}

// Func transforms a resolved placeholder value. Values are
// *dataset.Projection, *dataset.Vector, *dataset.Namespace or ir.Value.
type Func func(ctx Context, value any) (any, error)

// ErrFrozen is returned when registering into a snapshot.
var ErrFrozen = errors.New("helper registry is a read-only snapshot")

var namePattern = regexp.MustCompile(`^\w+$`)

// Registry maps helper names to functions. Lookups happen at interpolation
// time, so a helper registered after an engine was built is still visible
// to it. A Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	funcs  map[string]Func
	frozen bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// NewBuiltinRegistry creates a Registry holding the builtin helpers.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for name, fn := range builtins {
		r.funcs[name] = fn
	}
	return r
}

// Register binds name to fn, replacing any previous binding. Names must be
// word characters only, since that is all a placeholder can spell.
func (r *Registry) Register(name string, fn Func) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid helper name %q", name)
	}
	if fn == nil {
		return fmt.Errorf("helper %q: nil function", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	r.funcs[name] = fn
	return nil
}

// Lookup returns the helper bound to name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Snapshot returns a read-only copy. Later registrations on r are not
// visible through the copy.
func (r *Registry) Snapshot() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &Registry{funcs: make(map[string]Func, len(r.funcs)), frozen: true}
	for name, fn := range r.funcs {
		out.funcs[name] = fn
	}
	return out
}

var defaultRegistry = NewBuiltinRegistry()

// Default returns the process-wide registry shared by every engine that is
// not given its own.
func Default() *Registry {
	return defaultRegistry
}

// Register binds name in the process-wide registry.
func Register(name string, fn Func) error {
	return defaultRegistry.Register(name, fn)
}

// Lookup reads the process-wide registry.
func Lookup(name string) (Func, bool) {
	return defaultRegistry.Lookup(name)
}
