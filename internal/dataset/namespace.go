package dataset

import (
	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/locale"
)

// Namespace is an ordered name → member mapping. Members are *Projection,
// *Vector, *Namespace or ir.Value. With several value columns, each column's
// projections live in their own Namespace.
type Namespace struct {
	names   []string
	members map[string]any
}

// NewNamespace creates an empty Namespace.
func NewNamespace() *Namespace {
	return &Namespace{members: make(map[string]any)}
}

// Set binds name to member. Rebinding keeps the original position.
func (n *Namespace) Set(name string, member any) {
	if _, exists := n.members[name]; !exists {
		n.names = append(n.names, name)
	}
	n.members[name] = member
}

// Get returns the member bound to name.
func (n *Namespace) Get(name string) (any, bool) {
	if n == nil {
		return nil, false
	}
	m, ok := n.members[name]
	return m, ok
}

// Has reports whether name is bound.
func (n *Namespace) Has(name string) bool {
	_, ok := n.Get(name)
	return ok
}

// Names returns member names in binding order.
func (n *Namespace) Names() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.names...)
}

// Len returns the number of members.
func (n *Namespace) Len() int {
	if n == nil {
		return 0
	}
	return len(n.names)
}

// Projection returns the member bound to name if it is a *Projection.
func (n *Namespace) Projection(name string) (*Projection, bool) {
	m, _ := n.Get(name)
	p, ok := m.(*Projection)
	return p, ok
}

// Vector returns the member bound to name if it is a *Vector.
func (n *Namespace) Vector(name string) (*Vector, bool) {
	m, _ := n.Get(name)
	v, ok := m.(*Vector)
	return v, ok
}

// Namespace returns the member bound to name if it is a nested *Namespace.
func (n *Namespace) Namespace(name string) (*Namespace, bool) {
	m, _ := n.Get(name)
	ns, ok := m.(*Namespace)
	return ns, ok
}

// Clone returns a shallow copy. Members are immutable, so sharing them is safe.
func (n *Namespace) Clone() *Namespace {
	out := NewNamespace()
	for _, name := range n.Names() {
		out.Set(name, n.members[name])
	}
	return out
}

// String lists the member names like a Vector would.
func (n *Namespace) String() string {
	names := make([]ir.Value, 0, n.Len())
	for _, name := range n.Names() {
		names = append(names, ir.String(name))
	}
	return (&Vector{items: names, locale: locale.Default}).String()
}
