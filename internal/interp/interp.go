package interp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/narrate/internal/helpers"
	"github.com/roach88/narrate/internal/ir"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.]+)(?:\s+([\w.]+))?\s*\}\}`)

// MissingHelperError reports a placeholder naming a helper that is not
// registered at render time.
type MissingHelperError struct {
	Name string
}

func (e *MissingHelperError) Error() string {
	return fmt.Sprintf("missing helper: '%s'", e.Name)
}

// Env is what rendering needs from the engine: variable and path resolution,
// helper lookup and the active locale.
type Env interface {
	helpers.Context

	// ResolvePath resolves an accessor-only path.
	ResolvePath(path string) (any, error)

	// Helper returns the helper bound to name at call time.
	Helper(name string) (helpers.Func, bool)
}

// Placeholder is one {{ }} span of a text.
type Placeholder struct {
	Raw    string
	Helper string // empty for a bare path
	Path   string
	Start  int
	End    int
}

// Placeholders lists the placeholders of text left to right.
func Placeholders(text string) []Placeholder {
	matches := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	out := make([]Placeholder, 0, len(matches))
	for _, m := range matches {
		ph := Placeholder{Raw: text[m[0]:m[1]], Start: m[0], End: m[1]}
		first := text[m[2]:m[3]]
		if m[4] >= 0 {
			ph.Helper = first
			ph.Path = text[m[4]:m[5]]
		} else {
			ph.Path = first
		}
		out = append(out, ph)
	}
	return out
}

// Render substitutes every placeholder of text. The first failing
// placeholder aborts rendering with its error.
func Render(env Env, text string) (string, error) {
	phs := Placeholders(text)
	if len(phs) == 0 {
		return text, nil
	}

	var b strings.Builder
	last := 0
	for _, ph := range phs {
		s, err := render(env, ph)
		if err != nil {
			return "", err
		}
		b.WriteString(text[last:ph.Start])
		b.WriteString(s)
		last = ph.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

func render(env Env, ph Placeholder) (string, error) {
	v, err := env.ResolvePath(ph.Path)
	if err != nil {
		return "", err
	}
	if ph.Helper == "" {
		return Stringify(v), nil
	}

	fn, ok := env.Helper(ph.Helper)
	if !ok {
		return "", &MissingHelperError{Name: ph.Helper}
	}
	if v, err = fn(env, v); err != nil {
		return "", fmt.Errorf("helper %s: %w", ph.Helper, err)
	}
	return Stringify(v), nil
}

// Stringify renders a resolved value as it appears in a finding.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case ir.Value:
		return ir.Text(x)
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	if val, err := ir.FromGo(v); err == nil {
		return ir.Text(val)
	}
	return fmt.Sprint(v)
}
