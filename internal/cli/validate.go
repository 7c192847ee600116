package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/narrate/internal/expr"
	"github.com/roach88/narrate/internal/helpers"
	"github.com/roach88/narrate/internal/interp"
	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/loader"
)

// Validation issue codes. E-codes make a template invalid; W-codes are
// reported but do not fail validation.
const (
	ErrCodeBadExpression  = "E301"
	ErrCodeBadCondition   = "E302"
	ErrCodeBadPlaceholder = "E303"
	WarnUnknownHelper     = "W001"
	WarnMissingLocale     = "W002"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Locale    string
	Normalize bool
}

// Issue is one problem found in a template.
type Issue struct {
	Path    string `json:"path"` // gating conditions joined with " > "
	Key     string `json:"key"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warning reports whether the issue leaves the template valid.
func (i Issue) Warning() bool {
	return strings.HasPrefix(i.Code, "W")
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool    `json:"valid"`
	TemplateHash string  `json:"template_hash"`
	Issues       []Issue `json:"issues,omitempty"`
	Normalized   string  `json:"normalized,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <template>",
		Short: "Check a template without evaluating it",
		Long: `Parse a rule template and check every assignment, condition and
placeholder without any data.

Helpers that are not registered and leaves without text for --locale are
reported as warnings: helpers can be registered by the embedding program
and a missing locale text only means the leaf contributes nothing.

With --normalize the template is printed back as YAML in authored order.

Exit codes:
  0 - Template is valid (warnings allowed)
  1 - Template has errors
  2 - Command error (unreadable or malformed template file)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Locale, "locale", "", "warn about leaves without text for this locale")
	cmd.Flags().BoolVar(&opts.Normalize, "normalize", false, "print the template as normalized YAML")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	tmpl, err := loader.LoadTemplate(path, opts.Locale)
	if err != nil {
		return outputLoadError(formatter, "failed to load template", err)
	}
	formatter.VerboseLog("Loaded %s (%d top-level entries)", path, len(tmpl.Entries))

	hash, err := ir.TemplateHash(tmpl)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash template", err)
	}

	result := ValidationResult{
		Valid:        true,
		TemplateHash: hash,
		Issues:       ValidateTemplate(tmpl, opts.Locale, helpers.Default()),
	}
	for _, issue := range result.Issues {
		if !issue.Warning() {
			result.Valid = false
		}
	}

	if opts.Normalize && result.Valid {
		data, err := loader.MarshalYAML(tmpl)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to normalize template", err)
		}
		result.Normalized = string(data)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", countErrors(result.Issues)))
	}
	return nil
}

// ValidateTemplate checks every node of tmpl. Conditions and assignments
// must parse, and every placeholder path must be an accessor path. The
// cache is private so validation never warms the evaluation cache.
func ValidateTemplate(tmpl *ir.Branch, locale string, registry *helpers.Registry) []Issue {
	cache := expr.NewCache()
	var issues []Issue

	_ = tmpl.Walk(func(path []string, br *ir.Branch) error {
		where := strings.Join(path, " > ")
		add := func(key, code, format string, args ...any) {
			issues = append(issues, Issue{Path: where, Key: key, Code: code, Message: fmt.Sprintf(format, args...)})
		}

		for _, e := range br.Entries {
			switch v := e.Value.(type) {
			case ir.Expr:
				if _, err := cache.Parse(string(v)); err != nil {
					add(e.Key, ErrCodeBadExpression, "%v", err)
				}
			case *ir.Branch:
				if _, err := cache.Parse(e.Key); err != nil {
					add(e.Key, ErrCodeBadCondition, "%v", err)
				}
			case ir.Leaf:
				codes := make([]string, 0, len(v))
				for code := range v {
					codes = append(codes, code)
				}
				slices.Sort(codes)
				for _, code := range codes {
					for _, ph := range interp.Placeholders(v[code]) {
						if _, err := cache.ParsePath(ph.Path); err != nil {
							add(e.Key, ErrCodeBadPlaceholder, "%s: %s: %v", code, ph.Raw, err)
						}
						if ph.Helper != "" {
							if _, ok := registry.Lookup(ph.Helper); !ok {
								add(e.Key, WarnUnknownHelper, "%s: helper %q is not registered", code, ph.Helper)
							}
						}
					}
				}
				if locale != "" {
					if text, ok := v.Text(locale); !ok || text == "" {
						add(e.Key, WarnMissingLocale, "no text for locale %s", locale)
					}
				}
			}
		}
		return nil
	})
	return issues
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	if result.Valid {
		fmt.Fprintln(w, "✓ Template valid")
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
	}
	formatter.VerboseLog("Template hash: %s", result.TemplateHash)

	for _, issue := range result.Issues {
		fmt.Fprintln(w)
		if issue.Path != "" {
			fmt.Fprintf(w, "under %s\n", issue.Path)
		}
		fmt.Fprintf(w, "  %s [%s]: %s\n", issue.Code, issue.Key, issue.Message)
	}

	if result.Normalized != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, result.Normalized)
	}
}

func countErrors(issues []Issue) int {
	n := 0
	for _, i := range issues {
		if !i.Warning() {
			n++
		}
	}
	return n
}
