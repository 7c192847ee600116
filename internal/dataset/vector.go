package dataset

import (
	"fmt"
	"strings"

	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/locale"
)

// DivisionError is returned when an average is taken over no elements.
type DivisionError struct {
	Op string
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("division by zero: %s of an empty vector", e.Op)
}

// TypeError is returned when a numeric reduction meets a non-numeric element.
type TypeError struct {
	Op    string
	Index int
	Value ir.Value
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: element %d is not a number (%T)", e.Op, e.Index, e.Value)
}

// Vector is an ordered sequence of scalars. A two-element Vector also acts as
// a bound (key, value) pair. Vectors are immutable.
type Vector struct {
	items  []ir.Value
	locale string
}

// NewVector creates a Vector. The items slice is copied.
func NewVector(items []ir.Value, loc string) *Vector {
	return &Vector{items: append([]ir.Value(nil), items...), locale: loc}
}

// NewPairVector creates the two-element Vector for one (key, value) pair.
func NewPairVector(p Pair, loc string) *Vector {
	return &Vector{items: []ir.Value{p.Key, p.Value}, locale: loc}
}

// Items returns a copy of the elements.
func (v *Vector) Items() []ir.Value {
	return append([]ir.Value(nil), v.items...)
}

// Locale returns the locale used for rendering.
func (v *Vector) Locale() string {
	return v.locale
}

// Count returns the number of elements.
func (v *Vector) Count() int {
	return len(v.items)
}

// IsPair reports whether the Vector holds exactly one (key, value) pair.
func (v *Vector) IsPair() bool {
	return len(v.items) == 2
}

// Key returns the first element of a pair. ok is false for non-pairs.
func (v *Vector) Key() (ir.Value, bool) {
	if !v.IsPair() {
		return nil, false
	}
	return v.items[0], true
}

// Value returns the second element of a pair. ok is false for non-pairs.
func (v *Vector) Value() (ir.Value, bool) {
	if !v.IsPair() {
		return nil, false
	}
	return v.items[1], true
}

// At returns the element at i. Negative indexes count from the end.
func (v *Vector) At(i int) (ir.Value, bool) {
	if i < 0 {
		i += len(v.items)
	}
	if i < 0 || i >= len(v.items) {
		return nil, false
	}
	return v.items[i], true
}

// First returns the first element.
func (v *Vector) First() (ir.Value, bool) { return v.At(0) }

// Last returns the last element.
func (v *Vector) Last() (ir.Value, bool) { return v.At(-1) }

// Sum adds all elements. The sum of an empty Vector is 0.
func (v *Vector) Sum() (ir.Number, error) {
	var total float64
	for i, item := range v.items {
		f, ok := ir.Float(item)
		if !ok {
			return 0, &TypeError{Op: "sum", Index: i, Value: item}
		}
		total += f
	}
	return ir.Number(total), nil
}

// Mean returns Sum()/Count(), or a DivisionError when empty.
func (v *Vector) Mean() (ir.Number, error) {
	if len(v.items) == 0 {
		return 0, &DivisionError{Op: "mean"}
	}
	sum, err := v.Sum()
	if err != nil {
		return 0, err
	}
	return sum / ir.Number(len(v.items)), nil
}

// Max returns the largest element; the first one wins on ties.
func (v *Vector) Max() (ir.Value, bool) {
	return v.extreme(1)
}

// Min returns the smallest element; the first one wins on ties.
func (v *Vector) Min() (ir.Value, bool) {
	return v.extreme(-1)
}

func (v *Vector) extreme(sign int) (ir.Value, bool) {
	if len(v.items) == 0 {
		return nil, false
	}
	best := v.items[0]
	for _, item := range v.items[1:] {
		if ir.Compare(item, best)*sign > 0 {
			best = item
		}
	}
	return best, true
}

// Uniq returns the distinct elements in first-occurrence order.
func (v *Vector) Uniq() *Vector {
	return &Vector{items: uniq(v.items), locale: v.locale}
}

// String renders the elements as a sentence list: "", "A", "A and B",
// "A, B and C", with the conjunction taken from the locale.
func (v *Vector) String() string {
	switch len(v.items) {
	case 0:
		return ""
	case 1:
		return ir.Text(v.items[0])
	}
	parts := make([]string, len(v.items))
	for i, item := range v.items {
		parts[i] = ir.Text(item)
	}
	head := strings.Join(parts[:len(parts)-1], ", ")
	return head + " " + locale.Conjunction(v.locale) + " " + parts[len(parts)-1]
}

func uniq(items []ir.Value) []ir.Value {
	out := make([]ir.Value, 0, len(items))
	for _, item := range items {
		seen := false
		for _, o := range out {
			if ir.Equal(o, item) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, item)
		}
	}
	return out
}
