package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/narrate/internal/dataset"
	"github.com/roach88/narrate/internal/expr"
	"github.com/roach88/narrate/internal/ir"
)

// State is the evaluation state of an Engine.
type State int

const (
	StateUnevaluated State = iota
	StateEvaluating
	StateEvaluated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnevaluated:
		return "unevaluated"
	case StateEvaluating:
		return "evaluating"
	case StateEvaluated:
		return "evaluated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of one walk.
type Result struct {
	// Finding is every rendered leaf, space-joined. HasFinding is false when
	// no leaf contributed.
	Finding    string
	HasFinding bool

	// Findings holds one rendered string per contributing leaf, in walk order.
	Findings []string

	// PreParsed is the raw text of every contributing leaf, space-joined.
	PreParsed    string
	HasPreParsed bool
}

// Engine evaluates one template against one set of rows.
//
// The walk runs once, on first access to a result, and its outcome is
// memoized. A failed walk is memoized as well and every later access returns
// the same error.
//
// Thread-safety: an Engine is not safe for concurrent use unless it was
// built WithEager, after which it is read-only.
type Engine struct {
	cfg    config
	tmpl   *ir.Branch
	data   *dataset.Namespace
	root   *Context
	logger *slog.Logger

	// empty is set when there are no rows or no template; no walk happens.
	empty bool

	state  State
	result *Result
	err    error
}

// New validates rows against valueColumns, builds the data namespace and
// root context, and returns an engine ready to walk tmpl.
//
// Empty rows or an empty template yield an engine whose finding is absent.
// With no rows the value columns are not validated.
func New(rows ir.Rows, valueColumns []string, tmpl *ir.Branch, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		cfg:    cfg,
		tmpl:   tmpl,
		logger: cfg.logger.With("component", "engine"),
	}
	if len(rows) == 0 {
		e.empty = true
		return e, nil
	}
	if len(valueColumns) == 0 {
		return nil, &ValidationError{Message: "at least one value column is required"}
	}

	data, err := buildData(rows, valueColumns, cfg.locale, cfg.pluralize)
	if err != nil {
		return nil, err
	}
	e.data = data

	root := newContext(cfg.locale, expr.NewEvaluator(cfg.cache), cfg.registry)
	for _, name := range data.Names() {
		member, _ := data.Get(name)
		root.bind(name, kindOf(member), member)
	}
	names := make([]string, 0, len(cfg.params))
	for name := range cfg.params {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		v, err := injectable(cfg.params[name], cfg.locale)
		if err != nil {
			return nil, &ValidationError{Columns: []string{name}, Message: fmt.Sprintf("parameter %q: %v", name, err)}
		}
		root.bind(name, KindInjected, v)
	}
	e.root = root

	if tmpl == nil || tmpl.IsEmpty() {
		e.empty = true
		return e, nil
	}
	if cfg.eager {
		_, _ = e.evaluate()
	}
	return e, nil
}

// Finding returns the full finding. ok is false when no leaf contributed.
func (e *Engine) Finding() (string, bool, error) {
	r, err := e.evaluate()
	if err != nil {
		return "", false, err
	}
	return r.Finding, r.HasFinding, nil
}

// Findings returns one rendered string per contributing leaf.
func (e *Engine) Findings() ([]string, error) {
	r, err := e.evaluate()
	if err != nil {
		return nil, err
	}
	return slices.Clone(r.Findings), nil
}

// PreParsedFinding returns the raw, un-interpolated text of every
// contributing leaf. ok is false when no leaf contributed.
func (e *Engine) PreParsedFinding() (string, bool, error) {
	r, err := e.evaluate()
	if err != nil {
		return "", false, err
	}
	return r.PreParsed, r.HasPreParsed, nil
}

// Result returns a copy of the whole walk outcome.
func (e *Engine) Result() (*Result, error) {
	r, err := e.evaluate()
	if err != nil {
		return nil, err
	}
	out := *r
	out.Findings = slices.Clone(r.Findings)
	return &out, nil
}

// Data returns a copy of the data namespace built from the rows. Injected
// parameters and template variables are not included. It is nil when there
// were no rows.
func (e *Engine) Data() *dataset.Namespace {
	if e.data == nil {
		return nil
	}
	return e.data.Clone()
}

// Lookup walks the template if needed and returns a root-level binding:
// data, a parameter or a top-level template variable.
func (e *Engine) Lookup(name string) (any, bool, error) {
	if _, err := e.evaluate(); err != nil {
		return nil, false, err
	}
	if e.root == nil {
		return nil, false, nil
	}
	v, ok := e.root.Lookup(name)
	return v, ok, nil
}

// Root returns the root context, for introspection after a walk.
func (e *Engine) Root() *Context {
	return e.root
}

// State returns the evaluation state.
func (e *Engine) State() State {
	return e.state
}

// Locale returns the active locale code.
func (e *Engine) Locale() string {
	return e.cfg.locale
}

func (e *Engine) evaluate() (*Result, error) {
	switch e.state {
	case StateEvaluated:
		return e.result, nil
	case StateFailed:
		return nil, e.err
	case StateEvaluating:
		return nil, ErrEvaluationInProgress
	}

	if e.empty {
		e.state = StateEvaluated
		e.result = &Result{}
		return e.result, nil
	}

	e.state = StateEvaluating
	e.logger.Debug("walk started", "locale", e.cfg.locale, "entries", len(e.tmpl.Entries))

	var w walker
	out, err := w.branch(e.root, e.tmpl, e.logger)
	if err != nil {
		e.state = StateFailed
		e.err = err
		e.logger.Debug("walk failed", "code", ErrorCode(err), "error", err)
		return nil, err
	}

	r := &Result{Findings: make([]string, len(w.findings))}
	for i, f := range w.findings {
		r.Findings[i] = e.output(f)
	}
	if out.text != nil {
		r.Finding, r.HasFinding = e.output(*out.text), true
	}
	if out.raw != nil {
		r.PreParsed, r.HasPreParsed = e.output(*out.raw), true
	}

	e.state = StateEvaluated
	e.result = r
	e.logger.Debug("walk finished", "findings", len(r.Findings))
	return r, nil
}

// output decodes entities and normalizes to NFC.
func (e *Engine) output(s string) string {
	return norm.NFC.String(e.cfg.decode(s))
}
