// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Document identifies a pathology report submitted for extraction.
type Document struct {
	// ID is a slug derived from the file name (e.g. "patient-0042-pathology").
	ID string `json:"id" yaml:"id"`

	// Path is the local filesystem path the text was read from.
	Path string `json:"path" yaml:"path"`

	// SourceURL is set when the document was downloaded rather than read
	// from local disk.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
}

// DocumentReport is the persisted form of one extraction run, written by
// the CLI when an output directory is requested.
type DocumentReport struct {
	// DocumentID matches Document.ID.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Source is the local path or URL the document came from.
	Source string `json:"source" yaml:"source"`

	// Backend names the text provider used (e.g. "pdf", "markitdown").
	Backend string `json:"backend" yaml:"backend"`

	// ExtractedAt is the UTC time of extraction.
	ExtractedAt time.Time `json:"extracted_at" yaml:"extracted_at"`

	// Biomarkers holds one entry per tracked biomarker, in table order.
	Biomarkers Report `json:"biomarkers" yaml:"biomarkers"`

	// Unmatched lists biomarkers for which neither strategy found a value.
	Unmatched []string `json:"unmatched" yaml:"unmatched"`
}
