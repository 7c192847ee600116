package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/store"
)

const (
	applesTemplate = "testdata/templates/apples.yml"
	applesRows     = "testdata/rows/apples.json"
)

func executeRender(t *testing.T, opts *RootOptions, ids store.IDGenerator, args ...string) (string, error) {
	t.Helper()
	cmd := newRenderCommand(opts, ids)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRenderCommand_Text(t *testing.T) {
	out, err := executeRender(t, &RootOptions{Format: "text"}, nil, applesTemplate, applesRows, "-c", "count")
	require.NoError(t, err)
	assert.Equal(t, "Alan has the most apples. It's a lot more than Bob who came in second place.\n", out)
}

func TestRenderCommand_Locale(t *testing.T) {
	out, err := executeRender(t, &RootOptions{Format: "text"}, nil, applesTemplate, applesRows, "-c", "count", "--locale", "FR")
	require.NoError(t, err)
	assert.Equal(t, "Alan a le plus de pommes. C'est bien plus que Bob, deuxième.\n", out)
}

func TestRenderCommand_JSON(t *testing.T) {
	out, err := executeRender(t, &RootOptions{Format: "json"}, nil, applesTemplate, applesRows, "-c", "count", "--pre-parsed")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   RenderOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.HasFinding)
	assert.Equal(t, []string{
		"Alan has the most apples.",
		"It's a lot more than Bob who came in second place.",
	}, resp.Data.Findings)
	assert.Equal(t, "{{best.key}} has the most apples. It's a lot more than {{runner_up.key}} who came in second place.", resp.Data.PreParsed)
	assert.Empty(t, resp.Data.RunID)
}

func TestRenderCommand_Params(t *testing.T) {
	tmpl := filepath.Join(t.TempDir(), "params.yml")
	require.NoError(t, os.WriteFile(tmpl, []byte("text: \"{{ cat }} apples!\"\n"), 0644))

	out, err := executeRender(t, &RootOptions{Format: "text"}, nil, tmpl, applesRows, "-c", "count", "-p", "cat=meow")
	require.NoError(t, err)
	assert.Equal(t, "meow apples!\n", out)
}

func TestRenderCommand_EvaluationError(t *testing.T) {
	out, err := executeRender(t, &RootOptions{Format: "json"}, nil, "testdata/templates/helpers.yml", applesRows, "-c", "count")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_HELPER", resp.Error.Code)
	assert.Equal(t, "missing helper: 'shout'", resp.Error.Message)
}

func TestRenderCommand_ValidationError(t *testing.T) {
	out, err := executeRender(t, &RootOptions{Format: "text"}, nil, applesTemplate, applesRows, "-c", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [VALIDATION]")
}

func TestRenderCommand_CommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing rows file", []string{applesTemplate, "testdata/rows/nope.json", "-c", "count"}},
		{"missing template file", []string{"testdata/templates/nope.yml", applesRows, "-c", "count"}},
		{"bad param", []string{applesTemplate, applesRows, "-c", "count", "-p", "cat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeRender(t, &RootOptions{Format: "text"}, nil, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestRenderCommand_RecordsRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	opts := &RootOptions{Format: "json"}
	ids := store.NewFixedGenerator("run-1", "run-2")

	out, err := executeRender(t, opts, ids, applesTemplate, applesRows, "-c", "count", "--db", db)
	require.NoError(t, err)
	var resp struct {
		Data RenderOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "run-1", resp.Data.RunID)
	assert.Equal(t, int64(1), resp.Data.Seq)

	_, err = executeRender(t, opts, ids, "testdata/templates/helpers.yml", applesRows, "-c", "count", "--db", db)
	require.Error(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, store.StatusOK, runs[0].Status)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, int64(2), runs[1].Seq)
	assert.Equal(t, store.StatusError, runs[1].Status)
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr string
	}{
		{"empty", nil, map[string]any{}, ""},
		{"text", []string{"cat=meow"}, map[string]any{"cat": ir.String("meow")}, ""},
		{"number", []string{"n=3"}, map[string]any{"n": ir.Number(3)}, ""},
		{"bool", []string{"flag=true"}, map[string]any{"flag": ir.Bool(true)}, ""},
		{"empty value", []string{"gap="}, map[string]any{"gap": ir.Missing{}}, ""},
		{"value with equals", []string{"eq=a=b"}, map[string]any{"eq": ir.String("a=b")}, ""},
		{"no equals", []string{"cat"}, nil, "expected key=value"},
		{"empty key", []string{"=meow"}, nil, "expected key=value"},
		{"duplicate", []string{"cat=a", "cat=b"}, nil, "given more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.pairs)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
