package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/store"
)

// RunSnapshot is the golden-file view of a run. The run ID and content
// hashes are left out, so a golden file changes only when output does.
type RunSnapshot struct {
	ScenarioName string
	Run          store.Run
}

// toCanonicalMap converts a RunSnapshot to a map for canonical JSON, since
// ir.MarshalCanonical only handles ir types and primitives.
func (s *RunSnapshot) toCanonicalMap() map[string]any {
	r := s.Run
	out := map[string]any{
		"scenario_name":  s.ScenarioName,
		"seq":            r.Seq,
		"row_count":      r.RowCount,
		"value_columns":  r.ValueColumns,
		"locale":         r.Locale,
		"status":         string(r.Status),
		"engine_version": r.EngineVersion,
	}
	if len(r.Params) > 0 {
		params := make(map[string]any, len(r.Params))
		for k, v := range r.Params {
			params[k] = v
		}
		out["params"] = params
	}
	if r.Status == store.StatusError {
		out["error_code"] = string(r.ErrorCode)
		out["error_message"] = r.ErrorMessage
		return out
	}

	findings := make([]any, len(r.Findings))
	for i, f := range r.Findings {
		findings[i] = f
	}
	out["findings"] = findings
	if r.HasFinding {
		out["finding"] = r.Finding
	}
	if r.HasPreParsed {
		out["pre_parsed"] = r.PreParsed
	}
	return out
}

// MarshalSnapshot renders a run as canonical JSON.
func MarshalSnapshot(name string, run store.Run) ([]byte, error) {
	snapshot := RunSnapshot{ScenarioName: name, Run: run}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the recorded run against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result.Run)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
