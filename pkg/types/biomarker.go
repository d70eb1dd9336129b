// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Confidence is the fixed score attached to an extracted biomarker value.
// It is a discrete tier, not a calibrated probability.
type Confidence float64

const (
	// ConfidencePattern marks a value captured by one of the biomarker's
	// regular expressions.
	ConfidencePattern Confidence = 0.9

	// ConfidenceFuzzy marks a token accepted by approximate matching against
	// the biomarker's synonyms.
	ConfidenceFuzzy Confidence = 0.7

	// ConfidenceNone marks a biomarker for which nothing was found.
	ConfidenceNone Confidence = 0.0
)

// Tier returns a short label for the confidence level: "pattern", "fuzzy",
// or "none".
func (c Confidence) Tier() string {
	switch c {
	case ConfidencePattern:
		return "pattern"
	case ConfidenceFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// BiomarkerSpec describes how one biomarker is located in report text.
type BiomarkerSpec struct {
	// Name is the canonical biomarker identifier (e.g. "ER", "Ki-67").
	Name string `json:"name" yaml:"name"`

	// Patterns are case-insensitive regular expressions with exactly one
	// capture group. List order is priority order.
	Patterns []string `json:"patterns" yaml:"patterns"`

	// Synonyms are alternate surface forms used by the fuzzy fallback.
	// An empty list disables the fallback for this biomarker.
	Synonyms []string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
}

// BiomarkerTable is the full set of tracked biomarkers in report order.
type BiomarkerTable struct {
	// FuzzyThreshold is the minimum similarity ratio (0-1] a token must
	// reach against a synonym to be accepted by the fuzzy fallback.
	FuzzyThreshold float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold"`

	// Biomarkers lists the tracked biomarkers. Report entries follow this order.
	Biomarkers []BiomarkerSpec `json:"biomarkers" yaml:"biomarkers"`
}

// Names returns the biomarker names in table order.
func (t BiomarkerTable) Names() []string {
	names := make([]string, len(t.Biomarkers))
	for i, b := range t.Biomarkers {
		names[i] = b.Name
	}
	return names
}

// Result is the outcome of extracting a single biomarker from one document.
// A nil Value means nothing was found. A nil Context means there was no
// match; an empty Context means a match was found but no sentence in the
// text qualified as supporting evidence.
type Result struct {
	Value      *string    `json:"value" yaml:"value"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	Context    *string    `json:"context" yaml:"context"`
}

// Absent returns the record used for a biomarker with no match.
func Absent() Result {
	return Result{Confidence: ConfidenceNone}
}

// Found builds a matched record.
func Found(value string, confidence Confidence, context string) Result {
	return Result{Value: &value, Confidence: confidence, Context: &context}
}

// Matched reports whether a value was extracted.
func (r Result) Matched() bool {
	return r.Value != nil && r.Confidence > ConfidenceNone
}

// ValueOr returns the extracted value, or fallback when absent.
func (r Result) ValueOr(fallback string) string {
	if r.Value == nil {
		return fallback
	}
	return *r.Value
}

// ContextOr returns the context sentence, or fallback when absent.
func (r Result) ContextOr(fallback string) string {
	if r.Context == nil {
		return fallback
	}
	return *r.Context
}

// ReportEntry pairs a biomarker name with its result.
type ReportEntry struct {
	Name   string
	Result Result
}

// Report maps every tracked biomarker to its Result. Entries keep table
// order, and JSON and YAML encodings preserve that order.
type Report struct {
	entries []ReportEntry
	index   map[string]int
}

// NewReport builds a report from entries in the given order. Names must be
// unique; a repeated name keeps its first result.
func NewReport(entries []ReportEntry) Report {
	r := Report{
		entries: make([]ReportEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if _, dup := r.index[e.Name]; dup {
			continue
		}
		r.index[e.Name] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r
}

// Len returns the number of biomarkers in the report.
func (r Report) Len() int { return len(r.entries) }

// Names returns biomarker names in report order.
func (r Report) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the report entries in order.
func (r Report) Entries() []ReportEntry {
	out := make([]ReportEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Get returns the result for name.
func (r Report) Get(name string) (Result, bool) {
	i, ok := r.index[name]
	if !ok {
		return Result{}, false
	}
	return r.entries[i].Result, true
}

// Unmatched returns, in report order, the names for which neither pattern
// nor fuzzy matching produced a value.
func (r Report) Unmatched() []string {
	var names []string
	for _, e := range r.entries {
		if !e.Result.Matched() {
			names = append(names, e.Name)
		}
	}
	return names
}

// Only returns a single-entry report holding name's result.
func (r Report) Only(name string) (Report, bool) {
	res, ok := r.Get(name)
	if !ok {
		return Report{}, false
	}
	return NewReport([]ReportEntry{{Name: name, Result: res}}), true
}

// MarshalJSON encodes the report as an object whose keys follow report order.
func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Result)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", e.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object into a report, keeping key order.
func (r *Report) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("report: expected JSON object, got %v", tok)
	}

	var entries []ReportEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("report: expected string key, got %v", tok)
		}
		var res Result
		if err := dec.Decode(&res); err != nil {
			return fmt.Errorf("report: decoding %s: %w", name, err)
		}
		entries = append(entries, ReportEntry{Name: name, Result: res})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = NewReport(entries)
	return nil
}

// MarshalYAML encodes the report as a mapping whose keys follow report order.
func (r Report) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range r.entries {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name}
		val := &yaml.Node{}
		if err := val.Encode(e.Result); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", e.Name, err)
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping into a report, keeping key order.
func (r *Report) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("report: expected YAML mapping at line %d", value.Line)
	}
	entries := make([]ReportEntry, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		name := value.Content[i].Value
		var res Result
		if err := value.Content[i+1].Decode(&res); err != nil {
			return fmt.Errorf("report: decoding %s: %w", name, err)
		}
		entries = append(entries, ReportEntry{Name: name, Result: res})
	}
	*r = NewReport(entries)
	return nil
}
