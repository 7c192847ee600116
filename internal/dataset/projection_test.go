package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/narrate/internal/ir"
)

func appleRows() ir.Rows {
	return ir.Rows{
		ir.NewRecord(ir.F("name", "Bob"), ir.F("colour", "red"), ir.F("count", 4)),
		ir.NewRecord(ir.F("name", "Alan"), ir.F("colour", "green"), ir.F("count", 14)),
		ir.NewRecord(ir.F("name", "Jeff"), ir.F("colour", "red"), ir.F("count", 2)),
	}
}

func pairKeys(p *Projection) []ir.Value {
	return p.Keys().Items()
}

func TestProject(t *testing.T) {
	names := Project(appleRows(), "name", "count", "GB_en")

	require.Equal(t, 3, names.Count())
	assert.Equal(t, names.Keys().Count(), names.Values().Count())
	assert.Equal(t, strs("Bob", "Alan", "Jeff"), pairKeys(names))
	assert.Equal(t, nums(4, 14, 2), names.Values().Items())

	k, ok := names.Key()
	require.True(t, ok)
	assert.Equal(t, ir.String("Bob"), k)

	v, ok := names.Value()
	require.True(t, ok)
	assert.Equal(t, ir.Number(4), v)
}

func TestProject_MissingCell(t *testing.T) {
	rows := ir.Rows{
		ir.NewRecord(ir.F("name", "Bob"), ir.F("count", 1)),
		ir.NewRecord(ir.F("count", 2)),
	}
	names := Project(rows, "name", "count", "GB_en")

	require.Equal(t, 2, names.Count())
	assert.True(t, ir.IsMissing(names.At(1).Items()[0]))
}

func TestProjection_EmptyAccessors(t *testing.T) {
	p := NewProjection(nil, "GB_en")

	_, ok := p.Key()
	assert.False(t, ok)
	_, ok = p.Value()
	assert.False(t, ok)
	assert.Equal(t, 0, p.Max().Count())
	assert.Equal(t, "", p.String())
}

func TestProjection_Sort(t *testing.T) {
	p := NewProjection([]Pair{
		{Key: ir.String("a"), Value: ir.Number(2)},
		{Key: ir.String("b"), Value: ir.Number(5)},
		{Key: ir.String("c"), Value: ir.Number(2)},
		{Key: ir.String("d"), Value: ir.Number(1)},
		{Key: ir.String("e"), Value: ir.Number(5)},
	}, "GB_en")

	sorted := p.Sort()

	assert.Equal(t, strs("e", "b", "c", "a", "d"), pairKeys(sorted),
		"descending by value, ties in reverse of original order")
	assert.Equal(t, strs("a", "b", "c", "d", "e"), pairKeys(p), "receiver is unchanged")
}

func TestProjection_SortBestApples(t *testing.T) {
	best := Project(appleRows(), "name", "count", "GB_en").Sort().At(0)

	k, _ := best.Key()
	v, _ := best.Value()
	assert.Equal(t, ir.String("Alan"), k)
	assert.Equal(t, ir.Number(14), v)
}

func TestProjection_MaxMinTies(t *testing.T) {
	p := NewProjection([]Pair{
		{Key: ir.String("first"), Value: ir.Number(7)},
		{Key: ir.String("low1"), Value: ir.Number(1)},
		{Key: ir.String("second"), Value: ir.Number(7)},
		{Key: ir.String("low2"), Value: ir.Number(1)},
	}, "GB_en")

	k, _ := p.Max().Key()
	assert.Equal(t, ir.String("first"), k)

	k, _ = p.Min().Key()
	assert.Equal(t, ir.String("low1"), k)
}

func TestProjection_At(t *testing.T) {
	names := Project(appleRows(), "name", "count", "GB_en")

	tests := []struct {
		name     string
		got      *Vector
		expected []ir.Value
	}{
		{"first", names.First(), []ir.Value{ir.String("Bob"), ir.Number(4)}},
		{"second", names.Second(), []ir.Value{ir.String("Alan"), ir.Number(14)}},
		{"third", names.Third(), []ir.Value{ir.String("Jeff"), ir.Number(2)}},
		{"last", names.Last(), []ir.Value{ir.String("Jeff"), ir.Number(2)}},
		{"negative", names.At(-2), []ir.Value{ir.String("Alan"), ir.Number(14)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got.Items())
		})
	}

	t.Run("out of range", func(t *testing.T) {
		empty := names.Fourth()
		assert.Equal(t, 0, empty.Count())
		_, ok := empty.Key()
		assert.False(t, ok, "dereferencing the empty pair fails")
	})
}

func TestProjection_UniqGroupCount(t *testing.T) {
	colours := Project(appleRows(), "colour", "count", "GB_en")

	assert.Equal(t, strs("red", "green"), colours.Uniq().Items())

	groups := colours.GroupCount()
	assert.Equal(t, []Pair{
		{Key: ir.String("red"), Value: ir.Number(2)},
		{Key: ir.String("green"), Value: ir.Number(1)},
	}, groups.Pairs())
}

func TestProjection_Filters(t *testing.T) {
	names := Project(appleRows(), "name", "count", "GB_en")

	tests := []struct {
		name     string
		got      *Projection
		expected []ir.Value
	}{
		{"eq", names.Eq(ir.Number(4)), strs("Bob")},
		{"eql", names.Eql(ir.Number(4)), strs("Bob")},
		{"ne", names.Ne(ir.Number(4)), strs("Alan", "Jeff")},
		{"gt", names.Gt(ir.Number(3)), strs("Bob", "Alan")},
		{"lt", names.Lt(ir.Number(5)), strs("Bob", "Jeff")},
		{"gt string never matches numbers", names.Gt(ir.String("a")), nil},
		{"pluck_by_value", names.PluckByValue(ir.Number(14)), strs("Alan")},
		{"slice", names.Slice(ir.String("Jeff")), strs("Jeff")},
		{"slice no match", names.Slice(ir.String("Zed")), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.expected == nil {
				assert.Equal(t, 0, tt.got.Count())
				return
			}
			assert.Equal(t, tt.expected, pairKeys(tt.got))
		})
	}
}

func TestProjection_SliceFrom(t *testing.T) {
	rows := appleRows()
	names := Project(rows, "name", "count", "GB_en")
	colours := Project(rows, "colour", "count", "GB_en")

	reds, err := names.SliceFrom(colours, ir.String("red"))
	require.NoError(t, err)
	assert.Equal(t, strs("Bob", "Jeff"), pairKeys(reds))
	assert.Equal(t, nums(4, 2), reds.Values().Items())
}

func TestProjection_SliceFromMisaligned(t *testing.T) {
	names := Project(appleRows(), "name", "count", "GB_en")
	short := names.Slice(ir.String("Bob"))

	_, err := names.SliceFrom(short, ir.String("Bob"))

	var alignErr *AlignmentError
	require.True(t, errors.As(err, &alignErr))
	assert.Equal(t, 3, alignErr.Len)
	assert.Equal(t, 1, alignErr.OtherLen)
}

func TestProjection_String(t *testing.T) {
	names := Project(appleRows(), "name", "count", "GB_en")
	assert.Equal(t, "Bob: 4, Alan: 14 and Jeff: 2", names.String())
}

func TestNamespace(t *testing.T) {
	ns := NewNamespace()
	names := Project(appleRows(), "name", "count", "GB_en")
	ns.Set("names", names)
	ns.Set("counts", names.Values())
	ns.Set("limit", ir.Number(3))

	assert.Equal(t, []string{"names", "counts", "limit"}, ns.Names())
	assert.Equal(t, 3, ns.Len())

	p, ok := ns.Projection("names")
	require.True(t, ok)
	assert.Same(t, names, p)

	_, ok = ns.Projection("counts")
	assert.False(t, ok)
	_, ok = ns.Vector("counts")
	assert.True(t, ok)

	ns.Set("names", ir.Number(1))
	assert.Equal(t, []string{"names", "counts", "limit"}, ns.Names(), "rebinding keeps position")

	clone := ns.Clone()
	clone.Set("extra", ir.Bool(true))
	assert.False(t, ns.Has("extra"))
	assert.True(t, clone.Has("extra"))
}

func TestNamespace_Nil(t *testing.T) {
	var ns *Namespace
	_, ok := ns.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 0, ns.Len())
	assert.Nil(t, ns.Names())
}
