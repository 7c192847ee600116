package interp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/narrate/internal/dataset"
	"github.com/roach88/narrate/internal/expr"
	"github.com/roach88/narrate/internal/helpers"
	"github.com/roach88/narrate/internal/ir"
)

type testEnv struct {
	vars     map[string]any
	registry *helpers.Registry
	ev       *expr.Evaluator
}

func newTestEnv(vars map[string]any) *testEnv {
	return &testEnv{vars: vars, registry: helpers.NewBuiltinRegistry(), ev: expr.NewEvaluator(expr.NewCache())}
}

func (e *testEnv) Locale() string { return "GB_en" }

func (e *testEnv) Lookup(name string) (any, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func (e *testEnv) ResolvePath(path string) (any, error) {
	return e.ev.ResolvePath(e, path)
}

func (e *testEnv) Helper(name string) (helpers.Func, bool) {
	return e.registry.Lookup(name)
}

func TestPlaceholders(t *testing.T) {
	phs := Placeholders("{{ best_name }} got {{round best.value}} and {{a b c}} {{x}}")

	require.Len(t, phs, 3)
	assert.Equal(t, Placeholder{Raw: "{{ best_name }}", Path: "best_name", Start: 0, End: 15}, phs[0])
	assert.Equal(t, "round", phs[1].Helper)
	assert.Equal(t, "best.value", phs[1].Path)
	assert.Equal(t, "x", phs[2].Path, "three tokens are not a placeholder")
}

func TestRender(t *testing.T) {
	env := newTestEnv(map[string]any{
		"best_name":  ir.String("Alan"),
		"best_value": ir.Number(14),
		"mean":       ir.Number(14.35),
		"names":      dataset.NewVector([]ir.Value{ir.String("Bob"), ir.String("Jeff")}, "GB_en"),
	})

	tests := []struct {
		text     string
		expected string
	}{
		{"{{ best_name }} collected {{ best_value }} apples, higher than anyone else!", "Alan collected 14 apples, higher than anyone else!"},
		{"{{round mean}}", "14.4"},
		{"{{names}} trailed", "Bob and Jeff trailed"},
		{"no placeholders", "no placeholders"},
		{"{{ a b c }} stays", "{{ a b c }} stays"},
		{"{{best_name}}{{best_name}}", "AlanAlan"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Render(env, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRender_PathError(t *testing.T) {
	env := newTestEnv(map[string]any{})

	_, err := Render(env, "equal to {{round green_apple_count.mean }}")

	var pathErr *expr.PathResolutionError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, "green_apple_count.mean", pathErr.Path)
}

func TestRender_MissingHelper(t *testing.T) {
	env := newTestEnv(map[string]any{"month_key": ir.Number(730522800)})

	_, err := Render(env, "{{year month_key }}")

	var helperErr *MissingHelperError
	require.True(t, errors.As(err, &helperErr))
	assert.Equal(t, "year", helperErr.Name)
	assert.Equal(t, "missing helper: 'year'", err.Error())
}

func TestRender_LateHelper(t *testing.T) {
	env := newTestEnv(map[string]any{"month_key": ir.Number(730522800)})

	require.NoError(t, env.registry.Register("year", func(_ helpers.Context, v any) (any, error) {
		return "1993", nil
	}))

	got, err := Render(env, "{{year month_key }}")
	require.NoError(t, err)
	assert.Equal(t, "1993", got)
}

func TestRender_HelperSeesContext(t *testing.T) {
	env := newTestEnv(map[string]any{"v": ir.Number(1), "suffix": ir.String("!")})
	require.NoError(t, env.registry.Register("shout", func(ctx helpers.Context, v any) (any, error) {
		s, _ := ctx.Lookup("suffix")
		return Stringify(v) + Stringify(s), nil
	}))

	got, err := Render(env, "{{shout v}}")
	require.NoError(t, err)
	assert.Equal(t, "1!", got)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "2.5", Stringify(ir.Number(2.5)))
	assert.Equal(t, "plain", Stringify("plain"))
	assert.Equal(t, "7", Stringify(7))
	assert.Equal(t, "true", Stringify(true))
}
