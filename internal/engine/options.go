package engine

import (
	"html"
	"log/slog"

	"github.com/jinzhu/inflection"

	"github.com/roach88/narrate/internal/expr"
	"github.com/roach88/narrate/internal/helpers"
	"github.com/roach88/narrate/internal/locale"
)

type config struct {
	locale    string
	params    map[string]any
	registry  *helpers.Registry
	pluralize func(string) string
	decode    func(string) string
	cache     *expr.Cache
	logger    *slog.Logger
	eager     bool
}

func defaultConfig() config {
	return config{
		locale:    locale.Default,
		registry:  helpers.Default(),
		pluralize: inflection.Plural,
		decode:    html.UnescapeString,
		cache:     expr.DefaultCache(),
		logger:    slog.Default(),
	}
}

// Option configures an Engine.
type Option func(*config)

// WithLocale selects the text variant and list conjunction.
//
// Default: "GB_en" (locale.Default)
func WithLocale(code string) Option {
	return func(c *config) {
		if code != "" {
			c.locale = code
		}
	}
}

// WithParams injects named parameters into the root context. They are bound
// in sorted name order after the data and may shadow it. They are not part
// of Data().
func WithParams(params map[string]any) Option {
	return func(c *config) {
		c.params = params
	}
}

// WithHelpers uses r instead of the process-wide registry. Pass
// r.Snapshot() for a build that later registrations cannot affect.
func WithHelpers(r *helpers.Registry) Option {
	return func(c *config) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithPluralizer replaces the column-name pluralizer.
//
// Default: inflection.Plural
func WithPluralizer(fn func(string) string) Option {
	return func(c *config) {
		if fn != nil {
			c.pluralize = fn
		}
	}
}

// WithDecoder replaces the entity decoder applied to every output string.
//
// Default: html.UnescapeString
func WithDecoder(fn func(string) string) Option {
	return func(c *config) {
		if fn != nil {
			c.decode = fn
		}
	}
}

// WithConditionCache uses cache for parsed expressions instead of the
// process-wide one.
func WithConditionCache(cache *expr.Cache) Option {
	return func(c *config) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithLogger sets the logger for walk diagnostics (debug level).
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEager walks the template inside New, so the engine can afterwards be
// read from several goroutines. A walk failure is still reported by the
// accessors, not by New.
func WithEager() Option {
	return func(c *config) {
		c.eager = true
	}
}
