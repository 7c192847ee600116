package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/narrate/internal/dataset"
	"github.com/roach88/narrate/internal/expr"
	"github.com/roach88/narrate/internal/interp"
)

// ErrEvaluationInProgress is returned when a result is requested while the
// same engine is still walking its template, for example from a helper.
var ErrEvaluationInProgress = errors.New("engine: evaluation already in progress")

// ValidationError reports rows and value columns that cannot be turned into
// a context. It is raised by New, before any walk.
//
// Validation errors include:
//   - Missing column: a value column is absent from the first row
//   - Plural collision: with several value columns, one is its own plural
//   - Ambiguous name: two columns pluralize to the same context key
//   - Bad parameter: an injected parameter is not a scalar or store
type ValidationError struct {
	// Columns names the offending columns or parameters.
	Columns []string

	// Message is a human-readable description.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Message)
}

// Code is a stable category for an engine failure, used by the run log,
// the CLI and scenario assertions.
type Code string

const (
	CodeValidation     Code = "VALIDATION"
	CodePathResolution Code = "PATH_RESOLUTION"
	CodeConditionParse Code = "CONDITION_PARSE"
	CodeMissingHelper  Code = "MISSING_HELPER"
	CodeDivision       Code = "DIVISION"
	CodeInProgress     Code = "IN_PROGRESS"
	CodeInternal       Code = "INTERNAL"
)

// ErrorCode categorizes err. The outermost recognised error wins, so a
// division by zero inside a condition is CONDITION_PARSE. A nil error has
// an empty code.
func ErrorCode(err error) Code {
	if err == nil {
		return ""
	}

	var (
		valErr    *ValidationError
		condErr   *expr.ConditionParseError
		pathErr   *expr.PathResolutionError
		helperErr *interp.MissingHelperError
		divErr    *dataset.DivisionError
	)
	switch {
	case errors.As(err, &valErr):
		return CodeValidation
	case errors.As(err, &condErr):
		return CodeConditionParse
	case errors.As(err, &helperErr):
		return CodeMissingHelper
	case errors.As(err, &pathErr):
		return CodePathResolution
	case errors.As(err, &divErr):
		return CodeDivision
	case errors.Is(err, ErrEvaluationInProgress):
		return CodeInProgress
	default:
		return CodeInternal
	}
}

func missingColumnsError(cols []string) *ValidationError {
	return &ValidationError{
		Columns: cols,
		Message: fmt.Sprintf("value column(s) %s not present in data", strings.Join(cols, ", ")),
	}
}

func pluralColumnError(col string) *ValidationError {
	return &ValidationError{
		Columns: []string{col},
		Message: fmt.Sprintf("column name cannot be plural: %s", col),
	}
}

func ambiguousNameError(name string, cols ...string) *ValidationError {
	return &ValidationError{
		Columns: cols,
		Message: fmt.Sprintf("columns %s all map to the name %q", strings.Join(cols, ", "), name),
	}
}
