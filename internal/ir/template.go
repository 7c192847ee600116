package ir

// TextKey is the reserved Branch key holding a Leaf.
const TextKey = "text"

// Node is a sealed interface for template tree nodes: Leaf or *Branch.
type Node interface {
	node()
}

// EntryValue is a sealed interface for the values a Branch entry may hold:
// Expr, Literal, *Branch or Leaf (only under TextKey).
type EntryValue interface {
	entryValue()
}

// Leaf maps a locale code to the raw, un-interpolated text for that locale.
type Leaf map[string]string

func (Leaf) node()       {}
func (Leaf) entryValue() {}

// Text returns the text for a locale, and whether it is present and non-empty.
func (l Leaf) Text(locale string) (string, bool) {
	s, ok := l[locale]
	return s, ok && s != ""
}

// Expr is an expression string whose result is bound to the entry key.
type Expr string

func (Expr) entryValue() {}

// Literal is a scalar bound to the entry key as-is.
type Literal struct {
	Value Value
}

func (Literal) entryValue() {}

// Entry is one key of a Branch. For nested branches Key is the gating condition.
type Entry struct {
	Key   string
	Value EntryValue
}

// Branch is an ordered list of entries. Authored order is significant: it is
// the order in which variables are bound and text is emitted.
type Branch struct {
	Entries []Entry
}

func (*Branch) node()       {}
func (*Branch) entryValue() {}

// NewBranch creates a Branch from entries in authored order.
func NewBranch(entries ...Entry) *Branch {
	return &Branch{Entries: entries}
}

// E is a shorthand for building an Entry.
// Example: NewBranch(E("best", Expr("names.max.key")), E(TextKey, Leaf{"en": "{{best}}"}))
func E(key string, value EntryValue) Entry {
	return Entry{Key: key, Value: value}
}

// Lit is a shorthand for a Literal entry value built from a Go scalar.
func Lit(v any) Literal {
	return Literal{Value: MustFromGo(v)}
}

// IsEmpty reports whether the branch has no entries.
func (b *Branch) IsEmpty() bool {
	return b == nil || len(b.Entries) == 0
}

// Get returns the first entry value stored under key.
func (b *Branch) Get(key string) (EntryValue, bool) {
	if b == nil {
		return nil, false
	}
	for _, e := range b.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Walk visits the branch and all nested branches depth-first, pre-order.
// The path holds the gating conditions leading to each branch.
func (b *Branch) Walk(fn func(path []string, br *Branch) error) error {
	return b.walk(nil, fn)
}

func (b *Branch) walk(path []string, fn func([]string, *Branch) error) error {
	if b == nil {
		return nil
	}
	if err := fn(path, b); err != nil {
		return err
	}
	for _, e := range b.Entries {
		child, ok := e.Value.(*Branch)
		if !ok {
			continue
		}
		next := append(append([]string(nil), path...), e.Key)
		if err := child.walk(next, fn); err != nil {
			return err
		}
	}
	return nil
}
