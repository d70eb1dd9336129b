// Package extract locates biomarker values within pathology report text.
//
// An Engine is built once from a BiomarkerTable and is safe for concurrent
// use. For each biomarker it tries the table's regular expressions in
// order, falls back to approximate matching against the biomarker's
// synonyms, and otherwise records the biomarker as absent.
package extract

import (
	"fmt"
	"strings"

	"github.com/pdiddy/biomarker-engine/pkg/types"
)

// Observer receives every report an Engine produces. Implementations must
// be safe for concurrent use and must not retain the report beyond the call.
type Observer interface {
	ObserveReport(types.Report)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(types.Report)

// ObserveReport calls f(r).
func (f ObserverFunc) ObserveReport(r types.Report) { f(r) }

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers an observer notified after each extraction.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// Engine extracts a fixed set of biomarkers from text. The zero value is
// not usable; construct one with NewEngine.
type Engine struct {
	biomarkers []compiledBiomarker
	byKey      map[string]string
	observers  []Observer
}

// NewEngine validates and compiles table. It fails if any pattern does not
// compile or lacks exactly one capture group, if names are empty or
// collide, or if the fuzzy threshold is outside (0,1].
func NewEngine(table types.BiomarkerTable, opts ...Option) (*Engine, error) {
	compiled, keys, err := compileTable(table)
	if err != nil {
		return nil, fmt.Errorf("compiling biomarker table: %w", err)
	}
	e := &Engine{biomarkers: compiled, byKey: keys}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Names returns the tracked biomarker names in report order.
func (e *Engine) Names() []string {
	names := make([]string, len(e.biomarkers))
	for i, b := range e.biomarkers {
		names[i] = b.name
	}
	return names
}

// Lookup resolves a loosely written biomarker name such as "ki67", "Ki-67"
// or "pd-l1" to its canonical table name.
func (e *Engine) Lookup(name string) (string, bool) {
	canonical, ok := e.byKey[lookupKey(name)]
	return canonical, ok
}

// Extract returns a report with one entry per tracked biomarker, in table
// order. It never fails: a biomarker that cannot be found is reported with
// a nil value and zero confidence.
func (e *Engine) Extract(text string) types.Report {
	doc := prepare(text)
	entries := make([]types.ReportEntry, len(e.biomarkers))
	for i := range e.biomarkers {
		entries[i] = types.ReportEntry{
			Name:   e.biomarkers[i].name,
			Result: e.biomarkers[i].extract(doc),
		}
	}
	report := types.NewReport(entries)
	for _, o := range e.observers {
		o.ObserveReport(report)
	}
	return report
}

// ExtractOne runs a full extraction and returns the result for name, which
// is resolved with Lookup. It reports false for an unknown biomarker.
func (e *Engine) ExtractOne(text, name string) (types.Result, bool) {
	canonical, ok := e.Lookup(name)
	if !ok {
		return types.Result{}, false
	}
	return e.Extract(text).Get(canonical)
}

// document is the per-call view of the input text shared across biomarkers.
type document struct {
	text      string
	sentences []string
	words     []string
}

func prepare(text string) document {
	normalized := Normalize(text)
	return document{
		text:      normalized,
		sentences: SplitSentences(normalized),
		words:     strings.Fields(normalized),
	}
}

func (b *compiledBiomarker) extract(doc document) types.Result {
	if value, ok := b.matchPattern(doc.text); ok {
		return types.Found(value, types.ConfidencePattern, FindContext(doc.sentences, b.name, value))
	}
	if word, ok := b.fuzzy.match(doc.words); ok {
		return types.Found(word, types.ConfidenceFuzzy, FindContext(doc.sentences, b.name, word))
	}
	return types.Absent()
}

// matchPattern collects every capture across all patterns, in pattern then
// position order, and returns the first one with surrounding whitespace
// and trailing percent signs removed.
func (b *compiledBiomarker) matchPattern(text string) (string, bool) {
	var captures []string
	for _, re := range b.patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			captures = append(captures, m[1])
		}
	}
	if len(captures) == 0 {
		return "", false
	}
	return strings.TrimRight(strings.TrimSpace(captures[0]), "%"), true
}
