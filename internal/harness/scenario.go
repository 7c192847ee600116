package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/narrate/internal/engine"
	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/loader"
)

// Scenario is one evaluation with expected outcomes: a template, rows,
// value columns and parameters, and the assertions the result must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string

	// Description explains what this scenario validates.
	Description string

	Template     *ir.Branch
	Rows         ir.Rows
	ValueColumns []string
	Locale       string
	Params       map[string]any

	Assertions []Assertion
}

// scenarioFile is the YAML shape of a scenario. template and rows are
// either a path, relative to the scenario file, or inline.
type scenarioFile struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	Template     yaml.Node      `yaml:"template"`
	Rows         yaml.Node      `yaml:"rows"`
	ValueColumns []string       `yaml:"value_columns"`
	Locale       string         `yaml:"locale,omitempty"`
	Params       map[string]any `yaml:"params,omitempty"`
	Assertions   []Assertion    `yaml:"assertions"`
}

// Assertion checks one aspect of a Result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "finding": the full finding equals Text
	// - "finding_contains": the full finding contains Text
	// - "findings": the per-leaf findings equal Items
	// - "no_finding": no leaf contributed
	// - "pre_parsed": the raw text equals Text
	// - "binding": the root-level Name renders as Text
	// - "error": evaluation failed with Code, and the message contains Text
	Type string `yaml:"type"`

	Text  string   `yaml:"text,omitempty"`
	Items []string `yaml:"items,omitempty"`
	Name  string   `yaml:"name,omitempty"`
	Code  string   `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertFinding         = "finding"
	AssertFindingContains = "finding_contains"
	AssertFindings        = "findings"
	AssertNoFinding       = "no_finding"
	AssertPreParsed       = "pre_parsed"
	AssertBinding         = "binding"
	AssertError           = "error"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, and template and rows paths are resolved against the scenario
// file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var f scenarioFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	s := &Scenario{
		Name:         f.Name,
		Description:  f.Description,
		ValueColumns: f.ValueColumns,
		Locale:       f.Locale,
		Params:       f.Params,
		Assertions:   f.Assertions,
	}
	if s.Template, err = loadTemplate(&f.Template, base, f.Locale); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	if s.Rows, err = loadRows(&f.Rows, base); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if err := validateScenario(s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return s, nil
}

// LoadScenarios loads every *.yml and *.yaml scenario in dir, sorted by
// file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func loadTemplate(n *yaml.Node, base, loc string) (*ir.Branch, error) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str" {
		return loader.LoadTemplate(resolve(base, n.Value), loc)
	}
	return loader.TemplateFromNode(n)
}

func loadRows(n *yaml.Node, base string) (ir.Rows, error) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str" {
		return loader.LoadRows(resolve(base, n.Value))
	}
	return loader.RowsFromNode(n)
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertFinding, AssertPreParsed, AssertNoFinding, AssertFindings:
	case AssertFindingContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for finding_contains", index)
		}
	case AssertBinding:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for binding", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
		if !knownCode(engine.Code(a.Code)) {
			return fmt.Errorf("assertions[%d]: unknown error code %q", index, a.Code)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func knownCode(c engine.Code) bool {
	switch c {
	case engine.CodeValidation, engine.CodePathResolution, engine.CodeConditionParse,
		engine.CodeMissingHelper, engine.CodeDivision, engine.CodeInProgress, engine.CodeInternal:
		return true
	}
	return false
}
