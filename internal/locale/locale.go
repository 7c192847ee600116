// Package locale resolves template locale codes to languages and holds the
// per-language words the engine needs: list conjunctions and month names.
//
// Template authors use free-form locale codes ("GB_en", "FR", "en-US"). The
// code selects text variants verbatim; only the conjunction and month tables
// go through language resolution.
package locale

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
)

// Default is the locale used when none is given.
const Default = "GB_en"

var (
	mu sync.RWMutex

	conjunctions = map[language.Base]string{
		base("en"): "and",
		base("fr"): "et",
		base("de"): "und",
		base("es"): "y",
		base("it"): "e",
		base("pt"): "e",
		base("nl"): "en",
	}

	months = map[language.Base][12]string{
		base("fr"): {"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
		base("de"): {"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		base("es"): {"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		base("it"): {"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno", "luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"},
		base("pt"): {"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"},
		base("nl"): {"januari", "februari", "maart", "april", "mei", "juni", "juli", "augustus", "september", "oktober", "november", "december"},
	}
)

func base(code string) language.Base {
	return language.MustParseBase(code)
}

// Language resolves a locale code to a language tag.
//
// Both region-first ("GB_en") and language-first ("en_GB", "en-GB") codes
// are accepted. Unknown codes resolve to English.
func Language(code string) language.Tag {
	norm := strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if norm == "" {
		return language.English
	}
	if tag, ok := parse(norm); ok {
		return tag
	}
	parts := strings.Split(norm, "-")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	if tag, ok := parse(strings.Join(parts, "-")); ok {
		return tag
	}
	return language.English
}

func parse(code string) (language.Tag, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, false
	}
	b, conf := tag.Base()
	if conf == language.No {
		return language.Und, false
	}
	// Region codes like "GB" can parse as a language subtag; only accept
	// bases that have table entries.
	if !knownBase(b) {
		return language.Und, false
	}
	return tag, true
}

func knownBase(b language.Base) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, hasConj := conjunctions[b]
	_, hasMonths := months[b]
	return hasConj || hasMonths
}

func baseOf(code string) language.Base {
	b, _ := Language(code).Base()
	return b
}

// Conjunction returns the word joining the last two items of a list.
func Conjunction(code string) string {
	b := baseOf(code)
	mu.RLock()
	defer mu.RUnlock()
	if w, ok := conjunctions[b]; ok {
		return w
	}
	return conjunctions[base("en")]
}

// RegisterConjunction adds or replaces the list conjunction for a language.
// lang is a BCP 47 language code such as "sv".
func RegisterConjunction(lang, word string) error {
	b, err := language.ParseBase(lang)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	conjunctions[b] = word
	return nil
}

// RegisterMonths adds or replaces month names for a language, January first.
func RegisterMonths(lang string, names [12]string) error {
	b, err := language.ParseBase(lang)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	months[b] = names
	return nil
}

// MonthName returns the full month name in the locale's language.
// English falls back to the time package names.
func MonthName(m time.Month, code string) string {
	if m < time.January || m > time.December {
		return ""
	}
	b := baseOf(code)
	mu.RLock()
	names, ok := months[b]
	mu.RUnlock()
	if !ok {
		return m.String()
	}
	return names[m-1]
}
