package expr

import (
	"fmt"

	"github.com/roach88/narrate/internal/dataset"
	"github.com/roach88/narrate/internal/ir"
)

// op is one whitelisted operation. arity is the exact number of arguments.
type op[T any] struct {
	arity int
	fn    func(recv T, args []any) (any, error)
}

func nullary[T any](fn func(T) (any, error)) op[T] {
	return op[T]{fn: func(recv T, _ []any) (any, error) { return fn(recv) }}
}

func unary[T any](fn func(T, ir.Value) any) op[T] {
	return op[T]{arity: 1, fn: func(recv T, args []any) (any, error) {
		v, err := scalarArg(args[0])
		if err != nil {
			return nil, err
		}
		return fn(recv, v), nil
	}}
}

func optional(v ir.Value, ok bool) (any, error) {
	if !ok {
		return nil, ErrAbsent
	}
	return v, nil
}

var projectionOps = map[string]op[*dataset.Projection]{
	"key":         nullary(func(p *dataset.Projection) (any, error) { return optional(p.Key()) }),
	"value":       nullary(func(p *dataset.Projection) (any, error) { return optional(p.Value()) }),
	"keys":        nullary(func(p *dataset.Projection) (any, error) { return p.Keys(), nil }),
	"values":      nullary(func(p *dataset.Projection) (any, error) { return p.Values(), nil }),
	"uniq":        nullary(func(p *dataset.Projection) (any, error) { return p.Uniq(), nil }),
	"group_count": nullary(func(p *dataset.Projection) (any, error) { return p.GroupCount(), nil }),
	"count":       nullary(func(p *dataset.Projection) (any, error) { return ir.Number(p.Count()), nil }),
	"max":         nullary(func(p *dataset.Projection) (any, error) { return p.Max(), nil }),
	"min":         nullary(func(p *dataset.Projection) (any, error) { return p.Min(), nil }),
	"sort":        nullary(func(p *dataset.Projection) (any, error) { return p.Sort(), nil }),
	"first":       nullary(func(p *dataset.Projection) (any, error) { return p.First(), nil }),
	"second":      nullary(func(p *dataset.Projection) (any, error) { return p.Second(), nil }),
	"third":       nullary(func(p *dataset.Projection) (any, error) { return p.Third(), nil }),
	"fourth":      nullary(func(p *dataset.Projection) (any, error) { return p.Fourth(), nil }),
	"last":        nullary(func(p *dataset.Projection) (any, error) { return p.Last(), nil }),

	"pluck_by_value": unary(func(p *dataset.Projection, v ir.Value) any { return p.PluckByValue(v) }),
	"eq":             unary(func(p *dataset.Projection, v ir.Value) any { return p.Eq(v) }),
	"eql":            unary(func(p *dataset.Projection, v ir.Value) any { return p.Eql(v) }),
	"ne":             unary(func(p *dataset.Projection, v ir.Value) any { return p.Ne(v) }),
	"gt":             unary(func(p *dataset.Projection, v ir.Value) any { return p.Gt(v) }),
	"lt":             unary(func(p *dataset.Projection, v ir.Value) any { return p.Lt(v) }),
	"slice":          unary(func(p *dataset.Projection, v ir.Value) any { return p.Slice(v) }),

	"slice_from": {arity: 2, fn: func(p *dataset.Projection, args []any) (any, error) {
		other, ok := args[0].(*dataset.Projection)
		if !ok {
			return nil, fmt.Errorf("first argument must be a projection, got %s", kindOf(args[0]))
		}
		k, err := scalarArg(args[1])
		if err != nil {
			return nil, err
		}
		return p.SliceFrom(other, k)
	}},
}

var vectorOps = map[string]op[*dataset.Vector]{
	"key":   nullary(func(v *dataset.Vector) (any, error) { return optional(v.Key()) }),
	"value": nullary(func(v *dataset.Vector) (any, error) { return optional(v.Value()) }),
	"count": nullary(func(v *dataset.Vector) (any, error) { return ir.Number(v.Count()), nil }),
	"sum":   nullary(func(v *dataset.Vector) (any, error) { return v.Sum() }),
	"mean":  nullary(func(v *dataset.Vector) (any, error) { return v.Mean() }),
	"first": nullary(func(v *dataset.Vector) (any, error) { return optional(v.First()) }),
	"last":  nullary(func(v *dataset.Vector) (any, error) { return optional(v.Last()) }),
	"max":   nullary(func(v *dataset.Vector) (any, error) { return optional(v.Max()) }),
	"min":   nullary(func(v *dataset.Vector) (any, error) { return optional(v.Min()) }),
	"uniq":  nullary(func(v *dataset.Vector) (any, error) { return v.Uniq(), nil }),
}

// invoke applies one named step to recv. Only the tables above and
// namespace member lookup are reachable; there is no other dispatch.
func invoke(recv any, seg Segment, args []any) (any, error) {
	switch r := recv.(type) {
	case *dataset.Projection:
		return call(projectionOps, r, "projection", seg, args)
	case *dataset.Vector:
		return call(vectorOps, r, "vector", seg, args)
	case *dataset.Namespace:
		if seg.Call {
			return nil, &OperationError{Op: seg.Name, Receiver: "namespace", Msg: "members cannot be called"}
		}
		m, ok := r.Get(seg.Name)
		if !ok {
			return nil, ErrAbsent
		}
		return m, nil
	default:
		return nil, &OperationError{Op: seg.Name, Receiver: kindOf(recv), Msg: "no operations on this value"}
	}
}

func call[T any](table map[string]op[T], recv T, kind string, seg Segment, args []any) (any, error) {
	o, ok := table[seg.Name]
	if !ok {
		return nil, &OperationError{Op: seg.Name, Receiver: kind, Msg: "unknown operation"}
	}
	if len(args) != o.arity {
		return nil, &OperationError{
			Op:       seg.Name,
			Receiver: kind,
			Msg:      fmt.Sprintf("takes %d argument(s), got %d", o.arity, len(args)),
		}
	}
	return o.fn(recv, args)
}

// index applies one [i] step.
func index(recv any, i int) (any, error) {
	switch r := recv.(type) {
	case *dataset.Projection:
		return r.At(i), nil
	case *dataset.Vector:
		return optional(r.At(i))
	default:
		return nil, &OperationError{Op: fmt.Sprintf("[%d]", i), Receiver: kindOf(recv), Msg: "value cannot be indexed"}
	}
}

func scalarArg(a any) (ir.Value, error) {
	v, ok := a.(ir.Value)
	if !ok {
		return nil, fmt.Errorf("argument must be a scalar, got %s", kindOf(a))
	}
	return v, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case *dataset.Projection:
		return "projection"
	case *dataset.Vector:
		return "vector"
	case *dataset.Namespace:
		return "namespace"
	case ir.Value:
		return "scalar"
	case nil:
		return "nothing"
	default:
		return fmt.Sprintf("%T", v)
	}
}
