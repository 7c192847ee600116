package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/narrate/internal/store"
)

// AssertionError is returned when an assertion fails. It carries the run's
// findings so a failure can be read without rerunning.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Run      store.Run
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Run.Status == store.StatusError {
		fmt.Fprintf(&buf, "\nEvaluation failed: %s: %s\n", e.Run.ErrorCode, e.Run.ErrorMessage)
		return buf.String()
	}
	fmt.Fprintf(&buf, "\nFindings:\n")
	for i, f := range e.Run.Findings {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, f)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	run := result.Run
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Run: run}
	}

	if a.Type == AssertError {
		return assertError(run, a, fail)
	}
	if run.Status == store.StatusError {
		return fail("successful evaluation", fmt.Sprintf("error %s", run.ErrorCode))
	}

	switch a.Type {
	case AssertFinding:
		if !run.HasFinding || run.Finding != a.Text {
			return fail(fmt.Sprintf("finding %q", a.Text), describeFinding(run))
		}
	case AssertFindingContains:
		if !strings.Contains(run.Finding, a.Text) {
			return fail(fmt.Sprintf("finding containing %q", a.Text), describeFinding(run))
		}
	case AssertFindings:
		want := a.Items
		if want == nil {
			want = []string{}
		}
		if !slices.Equal(run.Findings, want) {
			return fail(fmt.Sprintf("findings %q", want), fmt.Sprintf("findings %q", run.Findings))
		}
	case AssertNoFinding:
		if run.HasFinding {
			return fail("no finding", describeFinding(run))
		}
	case AssertPreParsed:
		if !run.HasPreParsed || run.PreParsed != a.Text {
			return fail(fmt.Sprintf("pre-parsed %q", a.Text), fmt.Sprintf("pre-parsed %q", run.PreParsed))
		}
	case AssertBinding:
		got, ok := result.Bindings[a.Name]
		if !ok {
			return fail(fmt.Sprintf("%s = %q", a.Name, a.Text), fmt.Sprintf("%s is not bound", a.Name))
		}
		if got != a.Text {
			return fail(fmt.Sprintf("%s = %q", a.Name, a.Text), fmt.Sprintf("%s = %q", a.Name, got))
		}
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
	return nil
}

func assertError(run store.Run, a Assertion, fail func(string, string) error) error {
	expected := fmt.Sprintf("error %s", a.Code)
	if a.Text != "" {
		expected += fmt.Sprintf(" containing %q", a.Text)
	}
	if run.Status != store.StatusError {
		return fail(expected, "successful evaluation")
	}
	if string(run.ErrorCode) != a.Code || !strings.Contains(run.ErrorMessage, a.Text) {
		return fail(expected, fmt.Sprintf("error %s: %s", run.ErrorCode, run.ErrorMessage))
	}
	return nil
}

func describeFinding(run store.Run) string {
	if !run.HasFinding {
		return "no finding"
	}
	return fmt.Sprintf("finding %q", run.Finding)
}
