package expr

import (
	"errors"
	"fmt"
)

// ErrAbsent is the cause recorded when a step of a path yields no value.
var ErrAbsent = errors.New("no value")

// SyntaxError reports text that does not match the expression grammar.
type SyntaxError struct {
	Text string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Pos, e.Text, e.Msg)
}

// PathResolutionError reports an accessor path that could not be resolved.
// Path is the full path text as written, not the failing segment.
type PathResolutionError struct {
	Path string
	Err  error
}

func (e *PathResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not resolve path '%s'", e.Path)
	}
	return fmt.Sprintf("could not resolve path '%s': %v", e.Path, e.Err)
}

func (e *PathResolutionError) Unwrap() error {
	return e.Err
}

// ConditionParseError reports a condition that could not be parsed, or one
// whose paths could not all be resolved. Condition is the full condition text.
type ConditionParseError struct {
	Condition string
	Err       error
}

func (e *ConditionParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not parse variables in condition '%s'", e.Condition)
	}
	return fmt.Sprintf("could not parse variables in condition '%s': %v", e.Condition, e.Err)
}

func (e *ConditionParseError) Unwrap() error {
	return e.Err
}

// OperationError reports an operation that is not defined for a receiver,
// or that was called with the wrong arguments.
type OperationError struct {
	Op       string
	Receiver string
	Msg      string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Receiver, e.Op, e.Msg)
}
