package helpers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/locale"
)

var builtins = map[string]Func{
	"round": roundHelper,
	"month": monthHelper,
}

func roundHelper(_ Context, value any) (any, error) {
	f, err := number("round", value)
	if err != nil {
		return nil, err
	}
	places := int32(1)
	if f < 1 {
		places = 2
	}
	r, err := Round(f, places)
	if err != nil {
		return nil, err
	}
	return ir.Number(r), nil
}

// Round rounds f half away from zero to the given decimal places. It works
// on the shortest decimal form of f, so 14.35 rounds to 14.4 even though its
// binary value is slightly below 14.35.
func Round(f float64, places int32) (float64, error) {
	d, _, err := apd.NewFromString(strconv.FormatFloat(f, 'f', -1, 64))
	if err != nil {
		return 0, fmt.Errorf("round %v: %w", f, err)
	}
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp

	var out apd.Decimal
	if _, err := c.Quantize(&out, d, -places); err != nil {
		return 0, fmt.Errorf("round %v: %w", f, err)
	}
	return out.Float64()
}

func monthHelper(ctx Context, value any) (any, error) {
	f, err := number("month", value)
	if err != nil {
		return nil, err
	}
	m := time.Unix(int64(f), 0).UTC().Month()
	return ir.String(locale.MonthName(m, ctx.Locale())), nil
}

func number(helper string, value any) (float64, error) {
	v, ok := value.(ir.Value)
	if !ok {
		return 0, fmt.Errorf("%s: expected a number, got %T", helper, value)
	}
	f, ok := ir.Float(v)
	if !ok {
		return 0, fmt.Errorf("%s: expected a number, got %q", helper, ir.Text(v))
	}
	return f, nil
}
