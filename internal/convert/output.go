// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/biomarker-engine/pkg/types"
)

// ReportFileSuffix is appended to the document ID to name report files.
const ReportFileSuffix = "-biomarkers.yaml"

// FormatTable writes reports as a human-readable table to w, one row per
// biomarker.
func FormatTable(reports []types.DocumentReport, w io.Writer) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports.")
		return
	}

	fmt.Fprintf(w, "%-20s  %-8s  %-16s  %-4s  %s\n",
		"Document", "Marker", "Value", "Conf", "Context")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, dr := range reports {
		for _, e := range dr.Biomarkers.Entries() {
			fmt.Fprintf(w, "%-20s  %-8s  %-16s  %-4.1f  %s\n",
				truncate(dr.DocumentID, 20),
				e.Name,
				truncate(e.Result.ValueOr("-"), 16),
				float64(e.Result.Confidence),
				truncate(e.Result.ContextOr(""), 44))
		}
	}

	found := 0
	total := 0
	for _, dr := range reports {
		total += dr.Biomarkers.Len()
		found += dr.Biomarkers.Len() - len(dr.Unmatched)
	}
	fmt.Fprintf(w, "\n%d/%d biomarkers found in %d document(s)\n", found, total, len(reports))
}

// FormatJSON writes reports as indented JSON to w. A single report is
// written as an object, several (or none) as an array.
func FormatJSON(reports []types.DocumentReport, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	switch len(reports) {
	case 0:
		return enc.Encode([]types.DocumentReport{})
	case 1:
		return enc.Encode(reports[0])
	default:
		return enc.Encode(reports)
	}
}

// FormatYAML writes each report as a separate YAML document to w.
func FormatYAML(reports []types.DocumentReport, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, dr := range reports {
		if err := enc.Encode(dr); err != nil {
			return fmt.Errorf("encoding report %s: %w", dr.DocumentID, err)
		}
	}
	return enc.Close()
}

// WriteReportFile saves dr as <dir>/<document-id>-biomarkers.yaml and
// returns the path written.
func WriteReportFile(dir string, dr types.DocumentReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := yaml.Marshal(dr)
	if err != nil {
		return "", fmt.Errorf("marshaling report %s: %w", dr.DocumentID, err)
	}
	path := filepath.Join(dir, dr.DocumentID+ReportFileSuffix)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ReadReportFile loads a report previously saved by WriteReportFile.
func ReadReportFile(path string) (types.DocumentReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.DocumentReport{}, fmt.Errorf("reading report file: %w", err)
	}
	var dr types.DocumentReport
	if err := yaml.Unmarshal(data, &dr); err != nil {
		return types.DocumentReport{}, fmt.Errorf("parsing report file %s: %w", path, err)
	}
	return dr, nil
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
