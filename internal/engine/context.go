package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/narrate/internal/dataset"
	"github.com/roach88/narrate/internal/expr"
	"github.com/roach88/narrate/internal/helpers"
	"github.com/roach88/narrate/internal/interp"
	"github.com/roach88/narrate/internal/ir"
)

// Kind tags a context entry.
type Kind int

const (
	KindProjection Kind = iota + 1
	KindVector
	KindNamespace
	KindScalar
	KindInjected
)

func (k Kind) String() string {
	switch k {
	case KindProjection:
		return "projection"
	case KindVector:
		return "vector"
	case KindNamespace:
		return "namespace"
	case KindScalar:
		return "scalar"
	case KindInjected:
		return "injected"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entry is one named binding of a Context.
type Entry struct {
	Name  string
	Kind  Kind
	Value any
}

func kindOf(v any) Kind {
	switch v.(type) {
	case *dataset.Projection:
		return KindProjection
	case *dataset.Vector:
		return KindVector
	case *dataset.Namespace:
		return KindNamespace
	default:
		return KindScalar
	}
}

// Context is one scope of bindings. Each gated branch evaluates in a child
// scope, so its bindings are visible to it and its descendants only.
// Lookups fall through to the parent scope.
type Context struct {
	parent  *Context
	names   []string
	entries map[string]Entry

	locale   string
	eval     *expr.Evaluator
	registry *helpers.Registry
}

var (
	_ expr.Scope      = (*Context)(nil)
	_ helpers.Context = (*Context)(nil)
	_ interp.Env      = (*Context)(nil)
)

func newContext(locale string, ev *expr.Evaluator, registry *helpers.Registry) *Context {
	return &Context{
		entries:  make(map[string]Entry),
		locale:   locale,
		eval:     ev,
		registry: registry,
	}
}

func (c *Context) child() *Context {
	return &Context{
		parent:   c,
		entries:  make(map[string]Entry),
		locale:   c.locale,
		eval:     c.eval,
		registry: c.registry,
	}
}

// bind sets name in this scope. Rebinding keeps the original position.
func (c *Context) bind(name string, kind Kind, value any) {
	if _, exists := c.entries[name]; !exists {
		c.names = append(c.names, name)
	}
	c.entries[name] = Entry{Name: name, Kind: kind, Value: value}
}

// Entry returns the innermost binding of name.
func (c *Context) Entry(name string) (Entry, bool) {
	for s := c; s != nil; s = s.parent {
		if e, ok := s.entries[name]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// Lookup returns the value bound to name in this scope or an enclosing one.
func (c *Context) Lookup(name string) (any, bool) {
	e, ok := c.Entry(name)
	return e.Value, ok
}

// Entries returns this scope's own bindings in binding order.
func (c *Context) Entries() []Entry {
	out := make([]Entry, len(c.names))
	for i, name := range c.names {
		out[i] = c.entries[name]
	}
	return out
}

// Names returns every visible name, outermost scope first, without
// duplicates.
func (c *Context) Names() []string {
	var scopes []*Context
	for s := c; s != nil; s = s.parent {
		scopes = append(scopes, s)
	}
	slices.Reverse(scopes)

	var out []string
	for _, s := range scopes {
		for _, name := range s.names {
			if !slices.Contains(out, name) {
				out = append(out, name)
			}
		}
	}
	return out
}

// Locale returns the active locale code.
func (c *Context) Locale() string {
	return c.locale
}

// ResolvePath resolves an accessor path against this scope.
func (c *Context) ResolvePath(path string) (any, error) {
	return c.eval.ResolvePath(c, path)
}

// Helper returns the helper bound to name at call time.
func (c *Context) Helper(name string) (helpers.Func, bool) {
	return c.registry.Lookup(name)
}

// buildData turns rows into the data namespace. With one value column every
// other column becomes a projection keyed by its plural. With several, each
// value column gets its own namespace of projections. Every value column
// also binds its plural to a vector of its values.
func buildData(rows ir.Rows, valueColumns []string, locale string, plural func(string) string) (*dataset.Namespace, error) {
	cols := rows.Columns()
	var missing []string
	for _, vc := range valueColumns {
		if !slices.Contains(cols, vc) {
			missing = append(missing, vc)
		}
	}
	if len(missing) > 0 {
		return nil, missingColumnsError(missing)
	}

	var others []string
	for _, c := range cols {
		if !slices.Contains(valueColumns, c) {
			others = append(others, c)
		}
	}

	ns := dataset.NewNamespace()
	origin := make(map[string]string)
	set := func(ns *dataset.Namespace, origin map[string]string, name, col string, member any) error {
		if prev, ok := origin[name]; ok {
			return ambiguousNameError(name, prev, col)
		}
		origin[name] = col
		ns.Set(name, member)
		return nil
	}

	projections := func(vc string) (*dataset.Namespace, map[string]string, error) {
		sub := dataset.NewNamespace()
		subOrigin := make(map[string]string)
		for _, other := range others {
			if err := set(sub, subOrigin, plural(other), other, dataset.Project(rows, other, vc, locale)); err != nil {
				return nil, nil, err
			}
		}
		return sub, subOrigin, nil
	}

	if len(valueColumns) == 1 {
		sub, subOrigin, err := projections(valueColumns[0])
		if err != nil {
			return nil, err
		}
		ns, origin = sub, subOrigin
	} else {
		for _, vc := range valueColumns {
			if plural(vc) == vc {
				return nil, pluralColumnError(vc)
			}
			sub, _, err := projections(vc)
			if err != nil {
				return nil, err
			}
			if err := set(ns, origin, vc, vc, sub); err != nil {
				return nil, err
			}
		}
	}

	for _, vc := range valueColumns {
		if err := set(ns, origin, plural(vc), vc, dataset.NewVector(rows.Column(vc), locale)); err != nil {
			return nil, err
		}
	}
	return ns, nil
}

// injectable converts a parameter into a context value. Stores and scalars
// pass through; Go scalars become ir values; slices of scalars become
// vectors.
func injectable(v any, locale string) (any, error) {
	switch x := v.(type) {
	case *dataset.Projection, *dataset.Vector, *dataset.Namespace, ir.Value:
		return v, nil
	case []any:
		items := make([]ir.Value, len(x))
		for i, item := range x {
			val, err := ir.FromGo(item)
			if err != nil {
				return nil, err
			}
			items[i] = val
		}
		return dataset.NewVector(items, locale), nil
	case []string:
		items := make([]ir.Value, len(x))
		for i, s := range x {
			items[i] = ir.String(s)
		}
		return dataset.NewVector(items, locale), nil
	}
	return ir.FromGo(v)
}
