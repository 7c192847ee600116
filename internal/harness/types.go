package harness

import "github.com/roach88/narrate/internal/store"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Run is the evaluation as recorded in the run log.
	Run store.Run `json:"-"`

	// Bindings holds the rendered root-level values named by binding
	// assertions.
	Bindings map[string]string `json:"bindings,omitempty"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Bindings: make(map[string]string),
		Errors:   []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
