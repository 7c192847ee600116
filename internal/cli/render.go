package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/narrate/internal/engine"
	"github.com/roach88/narrate/internal/expr"
	"github.com/roach88/narrate/internal/helpers"
	"github.com/roach88/narrate/internal/loader"
	"github.com/roach88/narrate/internal/store"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	ValueColumns []string
	Locale       string
	Params       []string // key=value
	Database     string
	PreParsed    bool

	// IDs overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs store.IDGenerator
}

// RenderOutput is the result of a successful render.
type RenderOutput struct {
	Finding    string   `json:"finding"`
	HasFinding bool     `json:"has_finding"`
	Findings   []string `json:"findings"`
	PreParsed  string   `json:"pre_parsed,omitempty"`
	RunID      string   `json:"run_id,omitempty"`
	Seq        int64    `json:"seq,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	return newRenderCommand(rootOpts, nil)
}

func newRenderCommand(rootOpts *RootOptions, ids store.IDGenerator) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts, IDs: ids}

	cmd := &cobra.Command{
		Use:   "render <template> <rows>",
		Short: "Evaluate a template against rows",
		Long: `Evaluate a rule template against a rows file and print the finding.

Templates may be YAML, JSON, a condition/text CSV table, a .cue file or a
directory holding a CUE package. Rows may be JSON, YAML or CSV with a
header row. With --db the run is appended to a SQLite run log, whether it
succeeded or not.

Exit codes:
  0 - Evaluation succeeded (with or without a finding)
  1 - Evaluation failed
  2 - Command error (unreadable template or rows, bad flags)

Examples:
  narrate render rules.yml apples.json -c count
  narrate render quota.csv quota.csv -c green_apple_count -c red_apple_count
  narrate render rules.yml apples.json -c count --locale FR --param cat=meow
  narrate render rules.yml apples.json -c count --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.ValueColumns, "value-column", "c", nil, "value column (repeatable, required)")
	cmd.Flags().StringVar(&opts.Locale, "locale", "", "locale code (default GB_en)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "named parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to a SQLite run log")
	cmd.Flags().BoolVar(&opts.PreParsed, "pre-parsed", false, "also print the raw text of contributing leaves")
	_ = cmd.MarkFlagRequired("value-column")

	return cmd
}

func runRender(ctx context.Context, opts *RenderOptions, templatePath, rowsPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	params, err := ParseParams(opts.Params)
	if err != nil {
		_ = formatter.Error(loader.ErrCodeInvalidValue, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid parameter", err)
	}

	tmpl, err := loader.LoadTemplate(templatePath, opts.Locale)
	if err != nil {
		return outputLoadError(formatter, "failed to load template", err)
	}
	rows, err := loader.LoadRows(rowsPath)
	if err != nil {
		return outputLoadError(formatter, "failed to load rows", err)
	}
	logger.Debug("inputs loaded", "template", templatePath, "rows", len(rows), "value_columns", opts.ValueColumns)

	var res *engine.Result
	eng, evalErr := engine.New(rows, opts.ValueColumns, tmpl,
		engine.WithLocale(opts.Locale),
		engine.WithParams(params),
		engine.WithHelpers(helpers.Default()),
		engine.WithConditionCache(expr.DefaultCache()),
		engine.WithLogger(logger),
	)
	if evalErr == nil {
		res, evalErr = eng.Result()
	}

	var out RenderOutput
	if opts.Database != "" {
		run, err := recordRun(ctx, opts, logger, store.Input{
			Template:     tmpl,
			Rows:         rows,
			ValueColumns: opts.ValueColumns,
			Locale:       opts.Locale,
			Params:       params,
		}, res, evalErr)
		if err != nil {
			_ = formatter.Error(loader.ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		out.RunID, out.Seq = run.ID, run.Seq
		formatter.VerboseLog("Recorded run %s (seq %d)", run.ID, run.Seq)
	}

	if evalErr != nil {
		code := engine.ErrorCode(evalErr)
		var details any
		if out.RunID != "" {
			details = map[string]any{"run_id": out.RunID, "seq": out.Seq}
		}
		_ = formatter.Error(string(code), evalErr.Error(), details)
		return WrapExitError(ExitFailure, "evaluation failed", evalErr)
	}

	out.Finding, out.HasFinding = res.Finding, res.HasFinding
	out.Findings = res.Findings
	if opts.PreParsed {
		out.PreParsed = res.PreParsed
	}
	if !res.HasFinding {
		formatter.VerboseLog("No leaf contributed text")
	}
	return formatter.Success(out, renderText(out, opts.PreParsed)...)
}

func renderText(out RenderOutput, preParsed bool) []string {
	lines := []string{out.Finding}
	if preParsed {
		lines = append(lines, "", "pre-parsed: "+out.PreParsed)
	}
	return lines
}

// recordRun appends the evaluation outcome to the run log at opts.Database.
func recordRun(ctx context.Context, opts *RenderOptions, logger *slog.Logger, in store.Input, res *engine.Result, evalErr error) (store.Run, error) {
	run, err := store.NewRun(in, res, evalErr)
	if err != nil {
		return store.Run{}, err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return store.Run{}, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	ids := opts.IDs
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	rec, err := store.NewRecorder(ctx, st, ids, logger)
	if err != nil {
		return store.Run{}, err
	}
	return rec.Record(ctx, run)
}

// ParseParams turns key=value pairs into named parameters. Values are
// coerced like CSV cells: numbers, booleans, empty for missing, else text.
func ParseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q: expected key=value", p)
		}
		if _, dup := params[key]; dup {
			return nil, fmt.Errorf("parameter %q given more than once", key)
		}
		params[key] = loader.CoerceCell(value)
	}
	return params, nil
}

// outputLoadError reports a loader failure with its code and position.
func outputLoadError(formatter *OutputFormatter, message string, err error) error {
	var le *loader.LoadError
	if errors.As(err, &le) {
		var details any
		if le.File != "" {
			details = map[string]any{"file": le.File, "line": le.Line, "column": le.Column}
		}
		_ = formatter.Error(le.Code, le.Error(), details)
	} else {
		_ = formatter.Error(loader.ErrCodeGeneric, err.Error(), nil)
	}
	return WrapExitError(ExitCommandError, message, err)
}
