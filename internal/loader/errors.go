package loader

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes, shared by every CLI command that reports a LoadError.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // File or directory read error
	ErrCodeNoFiles     = "E003" // No template files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeFormat      = "E008" // Unsupported file extension

	// Template structure errors
	ErrCodeSyntax       = "E101" // YAML/JSON/CSV syntax error
	ErrCodeNotMapping   = "E102" // Template root or branch is not a mapping
	ErrCodeDuplicateKey = "E103" // Same key twice in one branch
	ErrCodeInvalidText  = "E104" // text entry is not a locale map of strings
	ErrCodeInvalidValue = "E105" // Entry value is a list or other unsupported kind
	ErrCodeInvalidTable = "E106" // Table row without exactly two cells

	// Rows errors
	ErrCodeInvalidRows = "E201" // Rows document is not a list of mappings
	ErrCodeInvalidCell = "E202" // Cell value is not a scalar
)

// LoadError is a template or rows loading failure with the source position
// when one is known.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *LoadError) Error() string {
	switch {
	case e.Line > 0 && e.File != "":
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%d:%d: %s: %s", e.Line, e.Column, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func errorf(code, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *LoadError) at(file string, line, column int) *LoadError {
	e.File, e.Line, e.Column = file, line, column
	return e
}

func (e *LoadError) atPos(pos token.Pos) *LoadError {
	if pos.IsValid() {
		e.File, e.Line, e.Column = pos.Filename(), pos.Line(), pos.Column()
	}
	return e
}

// withFile fills in the file name of err if it is a LoadError without one.
func withFile(err error, file string) error {
	var le *LoadError
	if errors.As(err, &le) && le.File == "" {
		le.File = file
	}
	return err
}

// cueError converts a CUE error into a LoadError positioned at the first
// reported error.
func cueError(code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return errorf(code, "%v", err)
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.atPos(positions[0])
	}
	return le
}
