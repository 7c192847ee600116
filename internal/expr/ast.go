package expr

import "github.com/roach88/narrate/internal/ir"

// Node is a parsed expression. It is a sealed interface; the variants are
// Literal, *Path, *Compare, *And, *Or and *Not.
type Node interface {
	exprNode()
}

// Literal is a constant scalar.
type Literal struct {
	Value ir.Value
}

func (Literal) exprNode() {}

// Segment is one step of a Path: a context lookup (the head) or an
// operation, optionally called with arguments and followed by indexes.
type Segment struct {
	Name    string
	Call    bool   // written with parentheses, even if empty
	Args    []Node // Literal or *Path
	Indexes []int
}

// Path is an accessor chain such as names.sort[0].key. Text is the exact
// source text, used in error messages.
type Path struct {
	Text     string
	Segments []Segment
}

func (*Path) exprNode() {}

// CompareOp is a relational operator.
type CompareOp string

const (
	OpEq CompareOp = "=="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Compare applies a relational operator to two operands.
type Compare struct {
	Op          CompareOp
	Left, Right Node
}

func (*Compare) exprNode() {}

// And is logical conjunction.
type And struct {
	Left, Right Node
}

func (*And) exprNode() {}

// Or is logical disjunction.
type Or struct {
	Left, Right Node
}

func (*Or) exprNode() {}

// Not is logical negation.
type Not struct {
	X Node
}

func (*Not) exprNode() {}

// Paths returns every operand path in n in source order. Paths used as
// operation arguments are resolved as part of their enclosing path and are
// not listed.
func Paths(n Node) []*Path {
	var out []*Path
	var visit func(Node)
	visit = func(n Node) {
		switch x := n.(type) {
		case *Path:
			out = append(out, x)
		case *Compare:
			visit(x.Left)
			visit(x.Right)
		case *And:
			visit(x.Left)
			visit(x.Right)
		case *Or:
			visit(x.Left)
			visit(x.Right)
		case *Not:
			visit(x.X)
		}
	}
	visit(n)
	return out
}
