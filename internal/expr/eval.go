package expr

import (
	"errors"
	"fmt"

	"github.com/roach88/narrate/internal/dataset"
	"github.com/roach88/narrate/internal/ir"
)

// Scope resolves the head identifier of a path. Values are *dataset.Projection,
// *dataset.Vector, *dataset.Namespace or ir.Value.
type Scope interface {
	Lookup(name string) (any, bool)
}

// Evaluator evaluates paths, conditions and assignment expressions against a
// Scope. It holds no per-evaluation state besides its parse cache.
type Evaluator struct {
	cache *Cache
}

// NewEvaluator creates an Evaluator. A nil cache uses DefaultCache().
func NewEvaluator(cache *Cache) *Evaluator {
	if cache == nil {
		cache = DefaultCache()
	}
	return &Evaluator{cache: cache}
}

// Cache returns the parse cache in use.
func (e *Evaluator) Cache() *Cache {
	return e.cache
}

// ResolvePath resolves an accessor-only path. Every failure, including a
// syntax error, is a *PathResolutionError naming text, except a
// *dataset.DivisionError which is returned as is.
func (e *Evaluator) ResolvePath(scope Scope, text string) (any, error) {
	p, err := e.cache.ParsePath(text)
	if err != nil {
		return nil, &PathResolutionError{Path: text, Err: err}
	}
	return Resolve(scope, p)
}

// Condition evaluates text as a boolean condition. Every path is resolved
// before anything is compared; a syntax error, an unresolvable path or an
// invalid comparison is a *ConditionParseError naming text.
func (e *Evaluator) Condition(scope Scope, text string) (bool, error) {
	n, err := e.cache.Parse(text)
	if err != nil {
		return false, &ConditionParseError{Condition: text, Err: err}
	}
	v, err := evalResolved(scope, n)
	if err != nil {
		return false, &ConditionParseError{Condition: text, Err: err}
	}
	return truthy(v), nil
}

// Eval evaluates an assignment expression. A bare path resolves like
// ResolvePath and a bare literal yields its value; anything else is evaluated
// like Condition and yields an ir.Bool.
func (e *Evaluator) Eval(scope Scope, text string) (any, error) {
	n, err := e.cache.Parse(text)
	if err != nil {
		return nil, &PathResolutionError{Path: text, Err: err}
	}
	switch x := n.(type) {
	case *Path:
		return Resolve(scope, x)
	case Literal:
		return x.Value, nil
	}
	ok, err := e.Condition(scope, text)
	if err != nil {
		return nil, err
	}
	return ir.Bool(ok), nil
}

// Resolve walks a parsed path: the head is looked up in scope, each later
// segment invokes a whitelisted operation, and any step yielding no value
// fails the whole path.
func Resolve(scope Scope, p *Path) (any, error) {
	v, err := resolve(scope, p)
	if err != nil {
		var divErr *dataset.DivisionError
		if errors.As(err, &divErr) {
			return nil, err
		}
		return nil, &PathResolutionError{Path: p.Text, Err: err}
	}
	return v, nil
}

func resolve(scope Scope, p *Path) (any, error) {
	head := p.Segments[0]
	cur, ok := scope.Lookup(head.Name)
	if !ok || absent(cur) {
		return nil, fmt.Errorf("%q: %w", head.Name, ErrAbsent)
	}
	cur, err := applyIndexes(cur, head)
	if err != nil {
		return nil, err
	}

	for _, seg := range p.Segments[1:] {
		args := make([]any, len(seg.Args))
		for i, a := range seg.Args {
			if args[i], err = evalArg(scope, a); err != nil {
				return nil, err
			}
		}
		cur, err = invoke(cur, seg, args)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", seg.Name, err)
		}
		if absent(cur) {
			return nil, fmt.Errorf("%q: %w", seg.Name, ErrAbsent)
		}
		if cur, err = applyIndexes(cur, seg); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func applyIndexes(cur any, seg Segment) (any, error) {
	for _, i := range seg.Indexes {
		next, err := index(cur, i)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", seg.Name, i, err)
		}
		if absent(next) {
			return nil, fmt.Errorf("%s[%d]: %w", seg.Name, i, ErrAbsent)
		}
		cur = next
	}
	return cur, nil
}

func evalArg(scope Scope, a Node) (any, error) {
	switch x := a.(type) {
	case Literal:
		return x.Value, nil
	case *Path:
		return Resolve(scope, x)
	default:
		return nil, fmt.Errorf("unsupported argument %T", a)
	}
}

func absent(v any) bool {
	if v == nil {
		return true
	}
	if val, ok := v.(ir.Value); ok {
		return ir.IsMissing(val)
	}
	return false
}

// evalResolved resolves every operand path of n first and only then
// evaluates the tree, so an unresolvable path fails the condition even when
// it sits behind a short-circuiting operator.
func evalResolved(scope Scope, n Node) (any, error) {
	paths := Paths(n)
	values := make(map[*Path]any, len(paths))
	for _, p := range paths {
		v, err := Resolve(scope, p)
		if err != nil {
			return nil, err
		}
		values[p] = v
	}
	return eval(n, values)
}

func eval(n Node, values map[*Path]any) (any, error) {
	switch x := n.(type) {
	case Literal:
		return x.Value, nil
	case *Path:
		return values[x], nil
	case *Not:
		v, err := eval(x.X, values)
		if err != nil {
			return nil, err
		}
		return ir.Bool(!truthy(v)), nil
	case *And:
		l, err := eval(x.Left, values)
		if err != nil {
			return nil, err
		}
		r, err := eval(x.Right, values)
		if err != nil {
			return nil, err
		}
		return ir.Bool(truthy(l) && truthy(r)), nil
	case *Or:
		l, err := eval(x.Left, values)
		if err != nil {
			return nil, err
		}
		r, err := eval(x.Right, values)
		if err != nil {
			return nil, err
		}
		return ir.Bool(truthy(l) || truthy(r)), nil
	case *Compare:
		l, err := eval(x.Left, values)
		if err != nil {
			return nil, err
		}
		r, err := eval(x.Right, values)
		if err != nil {
			return nil, err
		}
		return compare(x.Op, l, r)
	default:
		return nil, fmt.Errorf("unsupported expression %T", n)
	}
}

func compare(op CompareOp, l, r any) (ir.Value, error) {
	lv, lok := l.(ir.Value)
	rv, rok := r.(ir.Value)
	if !lok || !rok {
		return nil, fmt.Errorf("cannot compare %s %s %s", kindOf(l), op, kindOf(r))
	}

	switch op {
	case OpEq:
		return ir.Bool(ir.Equal(lv, rv)), nil
	case OpNe:
		return ir.Bool(!ir.Equal(lv, rv)), nil
	}

	if !ir.Comparable(lv, rv) {
		return nil, fmt.Errorf("cannot order %q %s %q", ir.Text(lv), op, ir.Text(rv))
	}
	c := ir.Compare(lv, rv)
	switch op {
	case OpLt:
		return ir.Bool(c < 0), nil
	case OpLe:
		return ir.Bool(c <= 0), nil
	case OpGt:
		return ir.Bool(c > 0), nil
	case OpGe:
		return ir.Bool(c >= 0), nil
	}
	return nil, fmt.Errorf("unknown operator %s", op)
}

// truthy: false, nil and Missing are false; every other value is true.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	if val, ok := v.(ir.Value); ok {
		return ir.Truthy(val)
	}
	return true
}
