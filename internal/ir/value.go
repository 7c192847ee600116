package ir

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Value is a sealed interface for the scalar cell types a row may carry.
// Only String, Number, Bool and Missing implement it.
type Value interface {
	irValue()
}

// String is a text cell.
type String string

func (String) irValue() {}

// Number is a numeric cell. Integers and floats share one representation.
type Number float64

func (Number) irValue() {}

// Bool is a boolean cell.
type Bool bool

func (Bool) irValue() {}

// Missing marks an absent cell (null in JSON/YAML, empty in CSV, NaN).
type Missing struct{}

func (Missing) irValue() {}

// FromGo converts a Go scalar into a Value.
// time.Time becomes epoch seconds so that helpers like month can consume it.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Missing{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(val), nil
	case int8:
		return Number(val), nil
	case int16:
		return Number(val), nil
	case int32:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint:
		return Number(val), nil
	case uint8:
		return Number(val), nil
	case uint16:
		return Number(val), nil
	case uint32:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case float32:
		return numberOrMissing(float64(val)), nil
	case float64:
		return numberOrMissing(val), nil
	case time.Time:
		return Number(val.Unix()), nil
	default:
		return nil, fmt.Errorf("unsupported scalar type: %T", v)
	}
}

// MustFromGo is FromGo for literals known to be valid. It panics otherwise.
func MustFromGo(v any) Value {
	val, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return val
}

func numberOrMissing(f float64) Value {
	if math.IsNaN(f) {
		return Missing{}
	}
	return Number(f)
}

// Text renders a Value the way it appears inside a finding.
// Whole numbers print without a fractional part.
func Text(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Number:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Missing, nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// IsMissing reports whether v is absent.
func IsMissing(v Value) bool {
	switch v.(type) {
	case nil, Missing:
		return true
	}
	return false
}

// Equal reports whether two values are the same scalar.
// Values of different kinds are never equal.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Missing, nil:
		return IsMissing(b)
	}
	return false
}

// rank orders kinds for mixed-kind comparisons.
func rank(v Value) int {
	switch v.(type) {
	case Bool:
		return 1
	case Number:
		return 2
	case String:
		return 3
	default:
		return 0
	}
}

// Compare returns -1, 0 or +1. Numbers compare numerically, strings lexically,
// false sorts before true. Across kinds: Missing < Bool < Number < String.
func Compare(a, b Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case Number:
		y := b.(Number)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	case String:
		y := b.(String)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	case Bool:
		y := b.(Bool)
		if x != y {
			if !x {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Comparable reports whether a and b can be ordered by a relational operator.
func Comparable(a, b Value) bool {
	switch a.(type) {
	case Number:
		_, ok := b.(Number)
		return ok
	case String:
		_, ok := b.(String)
		return ok
	}
	return false
}

// Truthy follows the template language rule: false and Missing are false,
// every other scalar (including 0 and "") is true.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Missing, nil:
		return false
	}
	return true
}

// Float returns the numeric content of v.
func Float(v Value) (float64, bool) {
	n, ok := v.(Number)
	return float64(n), ok
}
