package dataset

import (
	"fmt"
	"slices"

	"github.com/roach88/narrate/internal/ir"
)

// Pair is one row of a Projection: the other column's cell and the value
// column's cell from the same row.
type Pair struct {
	Key   ir.Value
	Value ir.Value
}

// AlignmentError is returned by SliceFrom when two projections were not
// built from the same rows.
type AlignmentError struct {
	Len, OtherLen int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("projections are not row-aligned: %d pairs vs %d pairs", e.Len, e.OtherLen)
}

// Projection is a row-aligned sequence of (key, value) pairs. Every operation
// returns a new Projection or Vector; a Projection never changes once built.
type Projection struct {
	pairs  []Pair
	locale string
}

// NewProjection creates a Projection. The pairs slice is copied.
func NewProjection(pairs []Pair, loc string) *Projection {
	return &Projection{pairs: append([]Pair(nil), pairs...), locale: loc}
}

// Project builds the projection of column key against column value, one pair
// per row in row order.
func Project(rows ir.Rows, key, value, loc string) *Projection {
	pairs := make([]Pair, len(rows))
	for i, r := range rows {
		pairs[i] = Pair{Key: r.Value(key), Value: r.Value(value)}
	}
	return &Projection{pairs: pairs, locale: loc}
}

func (p *Projection) derive(pairs []Pair) *Projection {
	return &Projection{pairs: pairs, locale: p.locale}
}

func (p *Projection) vector(items []ir.Value) *Vector {
	return &Vector{items: items, locale: p.locale}
}

// Pairs returns a copy of the pairs.
func (p *Projection) Pairs() []Pair {
	return append([]Pair(nil), p.pairs...)
}

// Count returns the number of pairs.
func (p *Projection) Count() int {
	return len(p.pairs)
}

// Key returns the first pair's key.
func (p *Projection) Key() (ir.Value, bool) {
	if len(p.pairs) == 0 {
		return nil, false
	}
	return p.pairs[0].Key, true
}

// Value returns the first pair's value.
func (p *Projection) Value() (ir.Value, bool) {
	if len(p.pairs) == 0 {
		return nil, false
	}
	return p.pairs[0].Value, true
}

// Keys returns the first elements of all pairs.
func (p *Projection) Keys() *Vector {
	items := make([]ir.Value, len(p.pairs))
	for i, pr := range p.pairs {
		items[i] = pr.Key
	}
	return p.vector(items)
}

// Values returns the second elements of all pairs.
func (p *Projection) Values() *Vector {
	items := make([]ir.Value, len(p.pairs))
	for i, pr := range p.pairs {
		items[i] = pr.Value
	}
	return p.vector(items)
}

// Uniq returns the distinct keys in first-occurrence order.
func (p *Projection) Uniq() *Vector {
	return p.vector(uniq(p.Keys().items))
}

// GroupCount returns a projection of distinct key to occurrence count, in
// first-occurrence order.
func (p *Projection) GroupCount() *Projection {
	var out []Pair
	for _, pr := range p.pairs {
		idx := slices.IndexFunc(out, func(o Pair) bool { return ir.Equal(o.Key, pr.Key) })
		if idx < 0 {
			out = append(out, Pair{Key: pr.Key, Value: ir.Number(1)})
			continue
		}
		out[idx].Value = out[idx].Value.(ir.Number) + 1
	}
	return p.derive(out)
}

// At returns pair i as a Vector. Negative indexes count from the end. Out of
// range yields an empty Vector, which fails only when dereferenced.
func (p *Projection) At(i int) *Vector {
	if i < 0 {
		i += len(p.pairs)
	}
	if i < 0 || i >= len(p.pairs) {
		return p.vector(nil)
	}
	return NewPairVector(p.pairs[i], p.locale)
}

// First returns pair 0.
func (p *Projection) First() *Vector { return p.At(0) }

// Second returns pair 1.
func (p *Projection) Second() *Vector { return p.At(1) }

// Third returns pair 2.
func (p *Projection) Third() *Vector { return p.At(2) }

// Fourth returns pair 3.
func (p *Projection) Fourth() *Vector { return p.At(3) }

// Last returns the final pair.
func (p *Projection) Last() *Vector { return p.At(-1) }

// Max returns the pair with the largest value; the first one wins on ties.
func (p *Projection) Max() *Vector {
	return p.extreme(1)
}

// Min returns the pair with the smallest value; the first one wins on ties.
func (p *Projection) Min() *Vector {
	return p.extreme(-1)
}

func (p *Projection) extreme(sign int) *Vector {
	if len(p.pairs) == 0 {
		return p.vector(nil)
	}
	best := p.pairs[0]
	for _, pr := range p.pairs[1:] {
		if ir.Compare(pr.Value, best.Value)*sign > 0 {
			best = pr
		}
	}
	return NewPairVector(best, p.locale)
}

// Sort orders pairs ascending by value and then reverses the whole sequence,
// so the largest value comes first and equal values appear in reverse of
// their original order.
func (p *Projection) Sort() *Projection {
	out := p.Pairs()
	slices.SortStableFunc(out, func(a, b Pair) int {
		return ir.Compare(a.Value, b.Value)
	})
	slices.Reverse(out)
	return p.derive(out)
}

// PluckByValue keeps pairs whose value equals v.
func (p *Projection) PluckByValue(v ir.Value) *Projection {
	return p.filter(func(pr Pair) bool { return ir.Equal(pr.Value, v) })
}

// Eq keeps pairs whose value equals n.
func (p *Projection) Eq(n ir.Value) *Projection {
	return p.filter(func(pr Pair) bool { return ir.Equal(pr.Value, n) })
}

// Eql keeps pairs whose value equals n. It is an alias of Eq.
func (p *Projection) Eql(n ir.Value) *Projection {
	return p.Eq(n)
}

// Ne drops pairs whose value equals n.
func (p *Projection) Ne(n ir.Value) *Projection {
	return p.filter(func(pr Pair) bool { return !ir.Equal(pr.Value, n) })
}

// Gt keeps pairs whose value is greater than n. Values that cannot be
// ordered against n are dropped.
func (p *Projection) Gt(n ir.Value) *Projection {
	return p.filter(func(pr Pair) bool {
		return ir.Comparable(pr.Value, n) && ir.Compare(pr.Value, n) > 0
	})
}

// Lt keeps pairs whose value is less than n. Values that cannot be ordered
// against n are dropped.
func (p *Projection) Lt(n ir.Value) *Projection {
	return p.filter(func(pr Pair) bool {
		return ir.Comparable(pr.Value, n) && ir.Compare(pr.Value, n) < 0
	})
}

// Slice keeps pairs whose key equals k.
func (p *Projection) Slice(k ir.Value) *Projection {
	return p.filter(func(pr Pair) bool { return ir.Equal(pr.Key, k) })
}

// SliceFrom keeps the pairs of p at the positions where other's key equals
// k. Both projections must come from the same rows.
func (p *Projection) SliceFrom(other *Projection, k ir.Value) (*Projection, error) {
	if len(other.pairs) != len(p.pairs) {
		return nil, &AlignmentError{Len: len(p.pairs), OtherLen: len(other.pairs)}
	}
	var out []Pair
	for i, pr := range p.pairs {
		if ir.Equal(other.pairs[i].Key, k) {
			out = append(out, pr)
		}
	}
	return p.derive(out), nil
}

func (p *Projection) filter(keep func(Pair) bool) *Projection {
	var out []Pair
	for _, pr := range p.pairs {
		if keep(pr) {
			out = append(out, pr)
		}
	}
	return p.derive(out)
}

// String renders the pairs as "key: value" items joined like a Vector.
func (p *Projection) String() string {
	items := make([]ir.Value, len(p.pairs))
	for i, pr := range p.pairs {
		items[i] = ir.String(ir.Text(pr.Key) + ": " + ir.Text(pr.Value))
	}
	return p.vector(items).String()
}
