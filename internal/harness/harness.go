package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/narrate/internal/engine"
	"github.com/roach88/narrate/internal/expr"
	"github.com/roach88/narrate/internal/helpers"
	"github.com/roach88/narrate/internal/interp"
	"github.com/roach88/narrate/internal/store"
	"github.com/roach88/narrate/internal/testutil"
)

// Harness runs scenarios in isolation: each run gets a fresh condition
// cache, a fresh in-memory run log and predictable run IDs.
type Harness struct {
	registry *helpers.Registry
	logger   *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithHelpers evaluates scenarios against r instead of a fresh builtin
// registry.
func WithHelpers(r *helpers.Registry) Option {
	return func(h *Harness) {
		h.registry = r
	}
}

// WithLogger sets the logger passed to the engine and run log.
//
// Default: discards everything
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with default options.
func Run(s *Scenario) (*Result, error) {
	return New().Run(context.Background(), s)
}

// Run evaluates the scenario, records the run and checks its assertions.
// Evaluation failures are results, not errors; an error means the
// scenario could not be executed at all.
//
// Execution flow:
//  1. Build the engine; a validation failure is recorded as the outcome
//  2. Walk the template
//  3. Record the run in a fresh in-memory log
//  4. Evaluate assertions against the recorded run
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	rec, err := store.NewRecorder(ctx, st, testutil.NewSequentialIDs(s.Name), h.logger)
	if err != nil {
		return nil, err
	}

	registry := h.registry
	if registry == nil {
		registry = helpers.NewBuiltinRegistry()
	}

	result := NewResult()
	eng, evalErr := engine.New(s.Rows, s.ValueColumns, s.Template,
		engine.WithLocale(s.Locale),
		engine.WithParams(s.Params),
		engine.WithHelpers(registry),
		engine.WithConditionCache(expr.NewCache()),
		engine.WithLogger(h.logger),
	)
	var res *engine.Result
	if evalErr == nil {
		res, evalErr = eng.Result()
	}
	if evalErr == nil {
		for _, a := range s.Assertions {
			if a.Type != AssertBinding {
				continue
			}
			if v, ok, err := eng.Lookup(a.Name); err == nil && ok {
				result.Bindings[a.Name] = interp.Stringify(v)
			}
		}
	}

	run, err := store.NewRun(store.Input{
		Template:     s.Template,
		Rows:         s.Rows,
		ValueColumns: s.ValueColumns,
		Locale:       s.Locale,
		Params:       s.Params,
	}, res, evalErr)
	if err != nil {
		return nil, err
	}
	if result.Run, err = rec.Record(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
