package testutil

import (
	"math"
	"time"

	"github.com/roach88/narrate/internal/ir"
)

// AppleRows is the single-value-column fixture: who collected how many apples.
func AppleRows() ir.Rows {
	return ir.Rows{
		ir.NewRecord(ir.F("name", "Bob"), ir.F("count", 4)),
		ir.NewRecord(ir.F("name", "Alan"), ir.F("count", 14)),
		ir.NewRecord(ir.F("name", "Jeff"), ir.F("count", 2)),
	}
}

// QuotaRows has two value columns, green_apple_count and red_apple_count.
func QuotaRows() ir.Rows {
	return ir.Rows{
		ir.NewRecord(ir.F("name", "Bob"), ir.F("green_apple_count", 4), ir.F("red_apple_count", 6)),
		ir.NewRecord(ir.F("name", "Alan"), ir.F("green_apple_count", 14), ir.F("red_apple_count", 10)),
		ir.NewRecord(ir.F("name", "Jeff"), ir.F("green_apple_count", 2), ir.F("red_apple_count", 15)),
	}
}

// HelperRows has fractional counts and a timestamp column for the round and
// month helpers. Every time is 1993-02-24 12:00 +09:00.
func HelperRows() ir.Rows {
	ts := time.Date(1993, 2, 24, 12, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	return ir.Rows{
		ir.NewRecord(ir.F("time", ts), ir.F("name", "Bob"), ir.F("count", 4.213432)),
		ir.NewRecord(ir.F("time", ts), ir.F("name", "Alan"), ir.F("count", 14.35)),
		ir.NewRecord(ir.F("time", ts), ir.F("name", "Jeff"), ir.F("count", 2.1)),
	}
}

// TreeRows is a flattened decision tree: each row is one split on the path
// to a node, with the node's behaviour_change score. The root row has no
// split, so its label, question and answer are missing.
func TreeRows() ir.Rows {
	row := func(id int, label, question, answer any, terminal bool, base, change float64) ir.Record {
		return ir.NewRecord(
			ir.F("node_id", id),
			ir.F("label", label),
			ir.F("question", question),
			ir.F("answer", answer),
			ir.F("is_terminal", terminal),
			ir.F("base_size", base),
			ir.F("behaviour_change", change),
		)
	}
	nan := math.NaN()
	return ir.Rows{
		row(0, nan, nan, nan, false, 250, 7.244),
		row(1, "gender", "gender", "Male", true, 100, 7.34),
		row(2, "gender", "gender", "Female", false, 150, 7.18),
		row(3, "region", "regUS", "North East", true, 117, 7.265),
		row(3, "region", "regUS", "Mid West", true, 117, 7.265),
		row(3, "region", "regUS", "South", true, 117, 7.265),
		row(3, "gender", "gender", "Female", true, 117, 7.265),
		row(4, "region", "regUS", "West", true, 33, 6.879),
		row(4, "gender", "gender", "Female", true, 33, 6.879),
	}
}
