package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/narrate/internal/dataset"
	"github.com/roach88/narrate/internal/expr"
	"github.com/roach88/narrate/internal/helpers"
	"github.com/roach88/narrate/internal/interp"
	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/testutil"
)

func text(s string) ir.Entry {
	return ir.E(ir.TextKey, ir.Leaf{"GB_en": s})
}

// table builds the branch a two-column condition/text sheet describes.
func table(rows ...[2]string) *ir.Branch {
	br := ir.NewBranch()
	for _, r := range rows {
		br.Entries = append(br.Entries, ir.E(r[0], ir.NewBranch(text(r[1]))))
	}
	return br
}

func mustNew(t *testing.T, rows ir.Rows, valueColumns []string, tmpl *ir.Branch, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithConditionCache(expr.NewCache()), WithHelpers(helpers.NewBuiltinRegistry())}, opts...)
	e, err := New(rows, valueColumns, tmpl, opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_BestApples(t *testing.T) {
	tmpl := ir.NewBranch(
		ir.E("best_name", ir.Expr("names.sort[0].key")),
		ir.E("best_value", ir.Expr("names.sort[0].value")),
		text("{{ best_name }} collected {{ best_value }} apples, higher than anyone else!"),
	)
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)

	finding, ok, err := e.Finding()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alan collected 14 apples, higher than anyone else!", finding)

	raw, ok, err := e.PreParsedFinding()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "{{ best_name }} collected {{ best_value }} apples, higher than anyone else!", raw)
}

func TestEngine_Params(t *testing.T) {
	tmpl := ir.NewBranch(text("{{ cat }} apples!"))
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl, WithParams(map[string]any{"cat": "meow"}))

	finding, _, err := e.Finding()
	require.NoError(t, err)
	assert.Equal(t, "meow apples!", finding)

	_, ok := e.Data().Get("cat")
	assert.False(t, ok, "parameters are not part of the data")
}

func TestEngine_SliceSpecificPerson(t *testing.T) {
	tmpl := ir.NewBranch(
		ir.E("count", ir.Expr(`names.slice("Bob")[0].value`)),
		text("Bob has {{ count }} apples!"),
	)
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)

	finding, _, err := e.Finding()
	require.NoError(t, err)
	assert.Equal(t, "Bob has 4 apples!", finding)
}

func TestEngine_NestedConditions(t *testing.T) {
	tmpl := ir.NewBranch(
		ir.E("best", ir.Expr("names.sort.first")),
		ir.E("runner_up", ir.Expr("names.sort.second")),
		text("{{best.key}} has the most apples."),
		ir.E("best.value > 10", ir.NewBranch(
			text("It's a lot more than {{runner_up.key}} who came in second place."),
		)),
		ir.E("best.value > 100", ir.NewBranch(
			text("Nobody will ever beat that."),
		)),
	)
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)

	findings, err := e.Findings()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alan has the most apples.", "It's a lot more than Bob who came in second place."}, findings)

	finding, _, err := e.Finding()
	require.NoError(t, err)
	assert.Equal(t, "Alan has the most apples. It's a lot more than Bob who came in second place.", finding)

	raw, _, err := e.PreParsedFinding()
	require.NoError(t, err)
	assert.Equal(t, "{{best.key}} has the most apples. It's a lot more than {{runner_up.key}} who came in second place.", raw)
}

func TestEngine_Locale(t *testing.T) {
	tmpl := ir.NewBranch(
		ir.E("worst", ir.Expr("names.min")),
		ir.E(ir.TextKey, ir.Leaf{
			"GB_en": "{{worst.key}} has the least apples, having only {{worst.value}}",
			"FR":    "{{worst.key}} a le moins de pommes, n'en ayant que {{worst.value}}",
		}),
	)

	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl, WithLocale("FR"))
	finding, _, err := e.Finding()
	require.NoError(t, err)
	assert.Equal(t, "Jeff a le moins de pommes, n'en ayant que 2", finding)

	e = mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)
	finding, _, err = e.Finding()
	require.NoError(t, err)
	assert.Equal(t, "Jeff has the least apples, having only 2", finding)
}

func TestEngine_LocaleConjunction(t *testing.T) {
	tmpl := ir.NewBranch(ir.E(ir.TextKey, ir.Leaf{"FR": "{{names.keys}}"}))
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl, WithLocale("FR"))

	finding, _, err := e.Finding()
	require.NoError(t, err)
	assert.Equal(t, "Bob, Alan et Jeff", finding)
}

func TestEngine_MissingLocaleText(t *testing.T) {
	tmpl := ir.NewBranch(ir.E(ir.TextKey, ir.Leaf{"FR": "bonjour", "GB_en": ""}))
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)

	_, ok, err := e.Finding()
	require.NoError(t, err)
	assert.False(t, ok)

	findings, err := e.Findings()
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestEngine_ConditionTable(t *testing.T) {
	tmpl := table(
		[2]string{"green_apple_counts.mean < 5", "Few green apples have been found"},
		[2]string{"green_apple_counts.mean > 4 && green_apple_counts.mean < 10", "A decent amount of green apples have been found"},
		[2]string{"green_apple_counts.mean > 10", "Lots of green apples have been found"},
		[2]string{"red_apple_counts.mean < 5", "Few red apples have been found"},
		[2]string{"red_apple_counts.mean > 4 && red_apple_counts.mean < 10", "A decent amount of red apples have been found"},
		[2]string{"red_apple_counts.mean > 9", "Lots of red apples have been found"},
		[2]string{`red_apple_count.names.slice("Bob").value > 5`, "Bob has made his quota"},
	)
	e := mustNew(t, testutil.QuotaRows(), []string{"green_apple_count", "red_apple_count"}, tmpl)

	findings, err := e.Findings()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"A decent amount of green apples have been found",
		"Lots of red apples have been found",
		"Bob has made his quota",
	}, findings)
}

func TestEngine_MultiValueColumnData(t *testing.T) {
	e := mustNew(t, testutil.QuotaRows(), []string{"green_apple_count", "red_apple_count"}, table())

	data := e.Data()
	assert.Equal(t, []string{"green_apple_count", "red_apple_count", "green_apple_counts", "red_apple_counts"}, data.Names())

	green, ok := data.Namespace("green_apple_count")
	require.True(t, ok)
	names, ok := green.Projection("names")
	require.True(t, ok)
	assert.Equal(t, names.Keys().Count(), names.Values().Count())

	counts, ok := data.Vector("red_apple_counts")
	require.True(t, ok)
	sum, err := counts.Sum()
	require.NoError(t, err)
	assert.Equal(t, ir.Number(31), sum)
}

func TestEngine_ValidationErrors(t *testing.T) {
	pluralRows := ir.Rows{
		ir.NewRecord(ir.F("name", "Bob"), ir.F("green_apples", 4), ir.F("red_apples", 6)),
	}
	ambiguousRows := ir.Rows{
		ir.NewRecord(ir.F("name", "Bob"), ir.F("names", "B"), ir.F("count", 1)),
	}

	tests := []struct {
		name    string
		rows    ir.Rows
		columns []string
		bad     []string
	}{
		{"plural value column", pluralRows, []string{"green_apples", "red_apples"}, []string{"green_apples"}},
		{"missing column", testutil.QuotaRows(), []string{"green_apple", "red_apple_count"}, []string{"green_apple"}},
		{"all columns missing", testutil.AppleRows(), []string{"a", "b"}, []string{"a", "b"}},
		{"ambiguous plural", ambiguousRows, []string{"count"}, []string{"name", "names"}},
		{"no value column", testutil.AppleRows(), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rows, tt.columns, table())

			var valErr *ValidationError
			require.True(t, errors.As(err, &valErr), "got %v", err)
			assert.Equal(t, tt.bad, valErr.Columns)
			assert.Equal(t, CodeValidation, ErrorCode(err))
		})
	}
}

func TestEngine_BadParam(t *testing.T) {
	_, err := New(testutil.AppleRows(), []string{"count"}, table(),
		WithParams(map[string]any{"fn": func() {}}))

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, []string{"fn"}, valErr.Columns)
}

func TestEngine_EmptyInputs(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		e := mustNew(t, nil, []string{"not", "validated"}, table([2]string{"true", "x"}))

		finding, ok, err := e.Finding()
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "", finding)
		assert.Nil(t, e.Data())

		_, ok, err = e.PreParsedFinding()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no template", func(t *testing.T) {
		e := mustNew(t, testutil.AppleRows(), []string{"count"}, nil)

		_, ok, err := e.Finding()
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NotNil(t, e.Data())
	})
}

func TestEngine_FalseGateSkipsSubtree(t *testing.T) {
	tmpl := ir.NewBranch(
		ir.E("names.count > 5", ir.NewBranch(
			ir.E("hidden", ir.Expr("names.first.key")),
			text("never {{hidden}}"),
		)),
		text("visible {{hidden}}"),
	)
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)

	_, _, err := e.Finding()

	var pathErr *expr.PathResolutionError
	require.True(t, errors.As(err, &pathErr), "got %v", err)
	assert.Equal(t, "hidden", pathErr.Path)
}

func TestEngine_FalseGateContributesNothing(t *testing.T) {
	tmpl := ir.NewBranch(
		text("Start."),
		ir.E("names.count > 5", ir.NewBranch(text("Hidden."))),
		text("End."),
	)
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)

	r, err := e.Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"Start.", "End."}, r.Findings)
	assert.Equal(t, "Start. End.", r.Finding)
	assert.Equal(t, "Start. End.", r.PreParsed)
}

func TestEngine_BranchBindingsStayInScope(t *testing.T) {
	tmpl := ir.NewBranch(
		ir.E("names.count > 1", ir.NewBranch(
			ir.E("inner", ir.Expr("names.first.key")),
			text("inside {{inner}}"),
		)),
		ir.E("true", ir.NewBranch(text("sibling {{inner}}"))),
	)
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)

	_, _, err := e.Finding()

	var pathErr *expr.PathResolutionError
	require.True(t, errors.As(err, &pathErr), "got %v", err)
	assert.Equal(t, "inner", pathErr.Path)
}

func TestEngine_AssignmentsBoundBeforeText(t *testing.T) {
	tmpl := ir.NewBranch(
		text("{{late}} first"),
		ir.E("late", ir.Expr("names.last.key")),
		ir.E("flag", ir.Lit(true)),
		ir.E("limit", ir.Lit(3)),
		ir.E("flag && names.count == limit", ir.NewBranch(text("{{late}} again"))),
	)
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)

	finding, _, err := e.Finding()
	require.NoError(t, err)
	assert.Equal(t, "Jeff first Jeff again", finding)

	v, ok, err := e.Lookup("late")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ir.String("Jeff"), v)

	entry, ok := e.Root().Entry("limit")
	require.True(t, ok)
	assert.Equal(t, KindScalar, entry.Kind)
}

func TestEngine_InterpolationError(t *testing.T) {
	tmpl := table([2]string{
		"green_apple_counts.mean > 4 && green_apple_counts.mean < 10",
		"A decent amount of green apples have been found equal to {{round green_apple_count.mean }}",
	})
	e := mustNew(t, testutil.QuotaRows(), []string{"green_apple_count", "red_apple_count"}, tmpl)

	_, _, err := e.Finding()

	var pathErr *expr.PathResolutionError
	require.True(t, errors.As(err, &pathErr), "got %v", err)
	assert.Equal(t, "green_apple_count.mean", pathErr.Path)
	assert.Equal(t, CodePathResolution, ErrorCode(err))
}

func TestEngine_ConditionError(t *testing.T) {
	condition := "green_apple_c.mean > 4 && green_apple_counts.mean < 10"
	tmpl := table([2]string{condition, "A decent amount of green apples"})
	e := mustNew(t, testutil.QuotaRows(), []string{"green_apple_count", "red_apple_count"}, tmpl)

	_, _, err := e.Finding()

	var condErr *expr.ConditionParseError
	require.True(t, errors.As(err, &condErr), "got %v", err)
	assert.Equal(t, condition, condErr.Condition)
	assert.Equal(t, CodeConditionParse, ErrorCode(err))
}

func TestEngine_Helpers(t *testing.T) {
	t.Run("round", func(t *testing.T) {
		tmpl := ir.NewBranch(
			ir.E("best_value", ir.Expr("names.sort[0].value")),
			text("{{round best_value }}"),
		)
		finding, _, err := mustNew(t, testutil.HelperRows(), []string{"count"}, tmpl).Finding()
		require.NoError(t, err)
		assert.Equal(t, "14.4", finding)
	})

	t.Run("month", func(t *testing.T) {
		tmpl := ir.NewBranch(
			ir.E("month_key", ir.Expr("times.sort[0].key")),
			text("{{month month_key }}"),
		)
		finding, _, err := mustNew(t, testutil.HelperRows(), []string{"count"}, tmpl).Finding()
		require.NoError(t, err)
		assert.Equal(t, "February", finding)
	})
}

func TestEngine_MissingThenLateHelper(t *testing.T) {
	registry := helpers.NewBuiltinRegistry()
	tmpl := ir.NewBranch(
		ir.E("month_key", ir.Expr("times.sort[0].key")),
		text("{{year month_key }}"),
	)

	e := mustNew(t, testutil.HelperRows(), []string{"count"}, tmpl, WithHelpers(registry))
	_, _, err := e.Finding()
	var helperErr *interp.MissingHelperError
	require.True(t, errors.As(err, &helperErr))
	assert.Equal(t, "year", helperErr.Name)
	assert.Equal(t, CodeMissingHelper, ErrorCode(err))

	late := mustNew(t, testutil.HelperRows(), []string{"count"}, tmpl, WithHelpers(registry))
	require.NoError(t, registry.Register("year", func(_ helpers.Context, v any) (any, error) {
		return "1993", nil
	}))

	finding, _, err := late.Finding()
	require.NoError(t, err)
	assert.Equal(t, "1993", finding, "a helper registered after New is visible")
}

func TestEngine_HelperSnapshotIsolation(t *testing.T) {
	registry := helpers.NewBuiltinRegistry()
	tmpl := ir.NewBranch(text("{{shout names.first.key}}"))

	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl, WithHelpers(registry.Snapshot()))
	require.NoError(t, registry.Register("shout", func(_ helpers.Context, v any) (any, error) {
		return interp.Stringify(v) + "!", nil
	}))

	_, _, err := e.Finding()
	var helperErr *interp.MissingHelperError
	assert.True(t, errors.As(err, &helperErr))
}

func TestEngine_Memoized(t *testing.T) {
	calls := 0
	registry := helpers.NewBuiltinRegistry()
	require.NoError(t, registry.Register("counted", func(_ helpers.Context, v any) (any, error) {
		calls++
		return v, nil
	}))
	tmpl := ir.NewBranch(text("{{counted names.first.key}}"))
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl, WithHelpers(registry))

	assert.Equal(t, StateUnevaluated, e.State())
	for i := 0; i < 3; i++ {
		finding, _, err := e.Finding()
		require.NoError(t, err)
		assert.Equal(t, "Bob", finding)
	}
	_, err := e.Findings()
	require.NoError(t, err)
	_, _, err = e.PreParsedFinding()
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, StateEvaluated, e.State())
}

func TestEngine_FailureMemoized(t *testing.T) {
	calls := 0
	registry := helpers.NewBuiltinRegistry()
	require.NoError(t, registry.Register("counted", func(_ helpers.Context, v any) (any, error) {
		calls++
		return v, nil
	}))
	tmpl := ir.NewBranch(text("{{counted names.first.key}} {{missing}}"))
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl, WithHelpers(registry))

	_, _, err1 := e.Finding()
	require.Error(t, err1)
	_, err2 := e.Findings()
	require.Error(t, err2)

	assert.Same(t, err1, err2, "the cached error is returned, not a new one")
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateFailed, e.State())
}

func TestEngine_ReentrantAccess(t *testing.T) {
	registry := helpers.NewBuiltinRegistry()
	var e *Engine
	require.NoError(t, registry.Register("peek", func(_ helpers.Context, v any) (any, error) {
		_, _, err := e.Finding()
		return v, err
	}))
	tmpl := ir.NewBranch(text("{{peek names.first.key}}"))
	e = mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl, WithHelpers(registry))

	_, _, err := e.Finding()
	assert.ErrorIs(t, err, ErrEvaluationInProgress)
	assert.Equal(t, CodeInProgress, ErrorCode(err))
}

func TestEngine_Eager(t *testing.T) {
	tmpl := ir.NewBranch(text("{{names.keys}}"))
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl, WithEager())

	assert.Equal(t, StateEvaluated, e.State())
	finding, _, err := e.Finding()
	require.NoError(t, err)
	assert.Equal(t, "Bob, Alan and Jeff", finding)
}

func TestEngine_OutputDecodedAndNormalized(t *testing.T) {
	tmpl := ir.NewBranch(
		text("Tom &amp; Jerry &lt;3 café"),
		ir.E("true", ir.NewBranch(text("&quot;{{names.first.key}}&quot;"))),
	)
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)

	r, err := e.Result()
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry <3 café \"Bob\"", r.Finding)
	assert.Equal(t, []string{"Tom & Jerry <3 café", "\"Bob\""}, r.Findings)
	assert.Equal(t, "Tom & Jerry <3 café \"{{names.first.key}}\"", r.PreParsed)
}

func TestEngine_CustomDecoderAndPluralizer(t *testing.T) {
	tmpl := ir.NewBranch(text("{{name_list.first.key}}&amp;"))
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl,
		WithDecoder(func(s string) string { return s }),
		WithPluralizer(func(s string) string { return s + "_list" }),
	)

	finding, _, err := e.Finding()
	require.NoError(t, err)
	assert.Equal(t, "Bob&amp;", finding)
	assert.True(t, e.Data().Has("count_list"))
}

func TestEngine_TreeBulletPoints(t *testing.T) {
	tmpl := ir.NewBranch(
		ir.E("worst", ir.Expr("node_ids.min")),
		ir.E("worst_answers", ir.Expr("answers.slice_from(node_ids, worst.key)")),
		ir.E("worst_questions", ir.Expr("questions.slice_from(node_ids, worst.key)")),
		text("Behaviour change was worst for respondents who selected: \n"+
			"* `{{worst_answers.first.key}}` for `{{worst_questions.first.key}}`\n"+
			"* `{{worst_answers.second.key}}` for `{{worst_questions.second.key}}`\n\n"+
			"for `{{NAME}}`"),
	)
	e := mustNew(t, testutil.TreeRows(), []string{"behaviour_change"}, tmpl,
		WithParams(map[string]any{"NAME": "Would you change your response to Apple?"}))

	finding, _, err := e.Finding()
	require.NoError(t, err)
	assert.Equal(t, "Behaviour change was worst for respondents who selected: \n* `West` for `regUS`\n* `Female` for `gender`\n\nfor `Would you change your response to Apple?`", finding)

	changes, ok := e.Data().Vector("behaviour_changes")
	require.True(t, ok)
	mean, err := changes.Mean()
	require.NoError(t, err)
	assert.InDelta(t, 7.18, float64(mean), 0.01)
}

func TestEngine_DivisionError(t *testing.T) {
	tmpl := ir.NewBranch(
		ir.E("nobody", ir.Expr(`names.slice("Zed").values`)),
		text("{{nobody.mean}}"),
	)
	e := mustNew(t, testutil.AppleRows(), []string{"count"}, tmpl)

	_, _, err := e.Finding()
	var divErr *dataset.DivisionError
	require.True(t, errors.As(err, &divErr))
	assert.Equal(t, CodeDivision, ErrorCode(err))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, Code(""), ErrorCode(nil))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("boom")))
	assert.Equal(t, CodeConditionParse, ErrorCode(&expr.ConditionParseError{
		Condition: "x.mean > 1",
		Err:       &dataset.DivisionError{Op: "mean"},
	}))
}

func TestContext_Names(t *testing.T) {
	root := newContext("GB_en", expr.NewEvaluator(expr.NewCache()), helpers.NewRegistry())
	root.bind("a", KindScalar, ir.Number(1))
	root.bind("b", KindScalar, ir.Number(2))
	child := root.child()
	child.bind("c", KindScalar, ir.Number(3))
	child.bind("a", KindScalar, ir.Number(10))

	assert.Equal(t, []string{"a", "b", "c"}, child.Names())
	v, _ := child.Lookup("a")
	assert.Equal(t, ir.Number(10), v, "inner binding shadows")
	v, _ = root.Lookup("a")
	assert.Equal(t, ir.Number(1), v)
	_, ok := root.Lookup("c")
	assert.False(t, ok)
	assert.Len(t, child.Entries(), 2)
	assert.Equal(t, "scalar", KindScalar.String())
}
