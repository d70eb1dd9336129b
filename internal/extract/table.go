// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/biomarker-engine/pkg/types"
)

// DefaultTable returns the built-in biomarker table. Each call returns a
// fresh copy, so callers may modify it before passing it to NewEngine.
func DefaultTable() types.BiomarkerTable {
	return types.BiomarkerTable{
		FuzzyThreshold: DefaultFuzzyThreshold,
		Biomarkers: []types.BiomarkerSpec{
			{
				Name: "ER",
				Patterns: []string{
					`\bER\b.*?(\d+%)`,
					`Estrogen Receptor.*?(\d+%)`,
				},
				Synonyms: []string{"ER", "Estrogen Receptor"},
			},
			{
				Name: "PR",
				Patterns: []string{
					`\bPR\b.*?(\d+%)`,
					`Progesterone.*?(\d+%)`,
				},
				Synonyms: []string{"PR", "Progesterone"},
			},
			{
				Name:     "HER2",
				Patterns: []string{`HER2.*?(Positive|Negative|Equivocal)`},
				Synonyms: []string{"HER2", "HER-2"},
			},
			{
				Name:     "Ki-67",
				Patterns: []string{`Ki[-–]?67.*?(\d+%)`},
				Synonyms: []string{"Ki67", "Ki-67"},
			},
			{
				Name:     "BRCA",
				Patterns: []string{`BRCA.*?(Positive|Negative)`},
			},
			{
				Name:     "PD-L1",
				Patterns: []string{`PD[- ]?L1.*?(\d+%)`},
				Synonyms: []string{"PDL1", "PD-L1"},
			},
			{
				Name:     "MSI",
				Patterns: []string{`MSI.*?(Stable|Unstable|High)`},
			},
			{
				Name:     "TMB",
				Patterns: []string{`TMB.*?(\d+)`},
			},
			{
				Name:     "NTRK",
				Patterns: []string{`NTRK.*?(Positive|Negative)`},
			},
		},
	}
}

// LoadTable reads a biomarker table from a YAML file. A missing or zero
// fuzzy_threshold falls back to DefaultFuzzyThreshold.
func LoadTable(path string) (types.BiomarkerTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.BiomarkerTable{}, fmt.Errorf("reading biomarker table %s: %w", path, err)
	}
	var table types.BiomarkerTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return types.BiomarkerTable{}, fmt.Errorf("parsing biomarker table %s: %w", path, err)
	}
	if len(table.Biomarkers) == 0 {
		return types.BiomarkerTable{}, fmt.Errorf("biomarker table %s defines no biomarkers", path)
	}
	return table, nil
}

// WriteTable encodes table as YAML to w.
func WriteTable(w io.Writer, table types.BiomarkerTable) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(table); err != nil {
		return fmt.Errorf("encoding biomarker table: %w", err)
	}
	return enc.Close()
}

// compiledBiomarker is the immutable, ready-to-match form of a BiomarkerSpec.
type compiledBiomarker struct {
	name     string
	patterns []*regexp.Regexp
	fuzzy    fuzzyMatcher
}

// compileTable validates table and compiles its patterns. Patterns are made
// case-insensitive and must have exactly one capture group.
func compileTable(table types.BiomarkerTable) ([]compiledBiomarker, map[string]string, error) {
	threshold := table.FuzzyThreshold
	if threshold == 0 {
		threshold = DefaultFuzzyThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, nil, fmt.Errorf("fuzzy threshold %v out of range (0,1]", table.FuzzyThreshold)
	}
	if len(table.Biomarkers) == 0 {
		return nil, nil, fmt.Errorf("biomarker table is empty")
	}

	compiled := make([]compiledBiomarker, 0, len(table.Biomarkers))
	keys := make(map[string]string, len(table.Biomarkers))

	for i, spec := range table.Biomarkers {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("biomarker %d: empty name", i)
		}
		key := lookupKey(name)
		if prev, dup := keys[key]; dup {
			return nil, nil, fmt.Errorf("biomarker %q collides with %q", name, prev)
		}
		keys[key] = name

		if len(spec.Patterns) == 0 {
			return nil, nil, fmt.Errorf("biomarker %q: no patterns", name)
		}
		cb := compiledBiomarker{name: name}
		for j, p := range spec.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, nil, fmt.Errorf("biomarker %q pattern %d: %w", name, j, err)
			}
			if n := re.NumSubexp(); n != 1 {
				return nil, nil, fmt.Errorf("biomarker %q pattern %d: want 1 capture group, got %d", name, j, n)
			}
			cb.patterns = append(cb.patterns, re)
		}
		for _, s := range spec.Synonyms {
			if s == "" {
				return nil, nil, fmt.Errorf("biomarker %q: empty synonym", name)
			}
		}
		cb.fuzzy = newFuzzyMatcher(spec.Synonyms, threshold)
		compiled = append(compiled, cb)
	}

	return compiled, keys, nil
}

// lookupKey folds a biomarker name or URL slug to a comparison key:
// lowercase with hyphens, dashes, underscores, and spaces removed, so
// "Ki-67", "ki67" and "KI 67" all map to "ki67".
func lookupKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '–', '_', ' ':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
