package store

import (
	"fmt"

	"github.com/roach88/narrate/internal/engine"
	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/locale"
)

// Status is the outcome of a run.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Run is one logged evaluation: what went in (by content hash) and what
// came out.
type Run struct {
	ID  string
	Seq int64

	TemplateHash string
	RowsHash     string
	RowCount     int
	ValueColumns []string
	Locale       string
	Params       map[string]ir.Value

	Status       Status
	Finding      string
	HasFinding   bool
	Findings     []string
	PreParsed    string
	HasPreParsed bool
	ErrorCode    engine.Code
	ErrorMessage string

	EngineVersion   string
	TemplateVersion string
}

// Input is everything an engine was built from.
type Input struct {
	Template     *ir.Branch
	Rows         ir.Rows
	ValueColumns []string
	Locale       string
	Params       map[string]any
}

// NewRun describes the evaluation of in. Exactly one of res and evalErr is
// expected to be set; ID and Seq are left for the Recorder.
func NewRun(in Input, res *engine.Result, evalErr error) (Run, error) {
	templateHash, err := ir.TemplateHash(in.Template)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	rowsHash, err := ir.RowsHash(in.Rows)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}

	run := Run{
		TemplateHash:    templateHash,
		RowsHash:        rowsHash,
		RowCount:        len(in.Rows),
		ValueColumns:    append([]string{}, in.ValueColumns...),
		Locale:          in.Locale,
		Params:          paramValues(in.Params),
		Findings:        []string{},
		EngineVersion:   ir.EngineVersion,
		TemplateVersion: ir.TemplateVersion,
	}
	if run.Locale == "" {
		run.Locale = locale.Default
	}

	switch {
	case evalErr != nil:
		run.Status = StatusError
		run.ErrorCode = engine.ErrorCode(evalErr)
		run.ErrorMessage = evalErr.Error()
	case res != nil:
		run.Status = StatusOK
		run.Finding, run.HasFinding = res.Finding, res.HasFinding
		run.PreParsed, run.HasPreParsed = res.PreParsed, res.HasPreParsed
		run.Findings = append(run.Findings, res.Findings...)
	default:
		return Run{}, fmt.Errorf("new run: neither a result nor an error")
	}
	return run, nil
}

// paramValues keeps scalars as values and records anything else by its
// string form.
func paramValues(params map[string]any) map[string]ir.Value {
	out := make(map[string]ir.Value, len(params))
	for k, v := range params {
		if val, err := ir.FromGo(v); err == nil {
			out[k] = val
			continue
		}
		if s, ok := v.(fmt.Stringer); ok {
			out[k] = ir.String(s.String())
			continue
		}
		out[k] = ir.String(fmt.Sprint(v))
	}
	return out
}
