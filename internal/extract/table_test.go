// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/biomarker-engine/pkg/types"
)

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	assert.Equal(t, []string{"ER", "PR", "HER2", "Ki-67", "BRCA", "PD-L1", "MSI", "TMB", "NTRK"}, table.Names())
	assert.Equal(t, DefaultFuzzyThreshold, table.FuzzyThreshold)

	for _, b := range table.Biomarkers {
		switch b.Name {
		case "BRCA", "MSI", "TMB", "NTRK":
			assert.Empty(t, b.Synonyms, b.Name)
		default:
			assert.NotEmpty(t, b.Synonyms, b.Name)
		}
	}

	// Returned tables are independent copies.
	table.Biomarkers[0].Name = "changed"
	assert.Equal(t, "ER", DefaultTable().Biomarkers[0].Name)
}

func TestCompileTable_Errors(t *testing.T) {
	valid := func(name string) types.BiomarkerSpec {
		return types.BiomarkerSpec{Name: name, Patterns: []string{name + `.*?(\d+%)`}}
	}

	tests := []struct {
		name  string
		table types.BiomarkerTable
		want  string
	}{
		{
			name:  "empty table",
			table: types.BiomarkerTable{},
			want:  "empty",
		},
		{
			name:  "empty name",
			table: types.BiomarkerTable{Biomarkers: []types.BiomarkerSpec{valid("ER"), valid(" ")}},
			want:  "empty name",
		},
		{
			name:  "duplicate name",
			table: types.BiomarkerTable{Biomarkers: []types.BiomarkerSpec{valid("Ki-67"), valid("ki67")}},
			want:  "collides",
		},
		{
			name:  "no patterns",
			table: types.BiomarkerTable{Biomarkers: []types.BiomarkerSpec{{Name: "ER"}}},
			want:  "no patterns",
		},
		{
			name: "bad regexp",
			table: types.BiomarkerTable{Biomarkers: []types.BiomarkerSpec{
				{Name: "ER", Patterns: []string{`ER(\d+`}},
			}},
			want: "pattern 0",
		},
		{
			name: "no capture group",
			table: types.BiomarkerTable{Biomarkers: []types.BiomarkerSpec{
				{Name: "ER", Patterns: []string{`ER \d+%`}},
			}},
			want: "got 0",
		},
		{
			name: "two capture groups",
			table: types.BiomarkerTable{Biomarkers: []types.BiomarkerSpec{
				{Name: "ER", Patterns: []string{`ER (\d+)`, `(ER) (\d+)`}},
			}},
			want: "pattern 1: want 1 capture group, got 2",
		},
		{
			name: "empty synonym",
			table: types.BiomarkerTable{Biomarkers: []types.BiomarkerSpec{
				{Name: "ER", Patterns: []string{`ER (\d+)`}, Synonyms: []string{"ER", ""}},
			}},
			want: "empty synonym",
		},
		{
			name:  "threshold above one",
			table: types.BiomarkerTable{FuzzyThreshold: 1.5, Biomarkers: []types.BiomarkerSpec{valid("ER")}},
			want:  "out of range",
		},
		{
			name:  "negative threshold",
			table: types.BiomarkerTable{FuzzyThreshold: -0.1, Biomarkers: []types.BiomarkerSpec{valid("ER")}},
			want:  "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.table)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteLoadTable_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, DefaultTable()))
	assert.Contains(t, buf.String(), "fuzzy_threshold: 0.8")

	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTable(), got)

	_, err = NewEngine(got)
	require.NoError(t, err)
}

func TestLoadTable_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTable(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	emptyPath := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, []byte("fuzzy_threshold: 0.9\n"), 0o644))
	_, err = LoadTable(emptyPath)
	assert.ErrorContains(t, err, "no biomarkers")

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("biomarkers: [\n"), 0o644))
	_, err = LoadTable(badPath)
	assert.ErrorContains(t, err, "parsing")
}
