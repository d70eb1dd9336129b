// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert recovers plain text from pathology report documents and
// runs it through the biomarker engine.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/biomarker-engine/internal/container"
	"github.com/pdiddy/biomarker-engine/pkg/types"
)

var (
	// ErrNoText is returned when a document yields no extractable text,
	// typically a scanned PDF without a text layer.
	ErrNoText = errors.New("no text content")

	// ErrUnsupportedFormat is returned when no backend handles the file type.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Provider returns the plain text of a document. Backends (pdfcpu,
// markitdown, plain text) implement this interface.
type Provider interface {
	// Name identifies the backend in reports and logs.
	Name() string

	// Text reads the document at path and returns its text.
	Text(ctx context.Context, path string) (string, error)
}

// NewProvider builds the provider selected by cfg.Backend. rt is required
// for the markitdown backend; for auto it is optional and, when present,
// handles file types other than PDF and plain text.
func NewProvider(ctx context.Context, cfg types.ProviderConfig, rt container.Runtime) (Provider, error) {
	image := cfg.ContainerImage
	if image == "" {
		image = DefaultMarkitdownImage
	}

	switch cfg.Backend {
	case types.BackendPDF:
		return PDFProvider{}, nil
	case types.BackendText:
		return TextProvider{}, nil
	case types.BackendMarkitdown:
		if rt == nil {
			return nil, fmt.Errorf("markitdown backend requires docker or podman")
		}
		return NewMarkitdownProvider(ctx, rt, image)
	case types.BackendAuto, "":
		auto := &AutoProvider{PDF: PDFProvider{}, Plain: TextProvider{}}
		if rt != nil {
			if md, err := NewMarkitdownProvider(ctx, rt, image); err == nil {
				auto.Fallback = md
			}
		}
		return auto, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want auto, pdf, markitdown, or text)", cfg.Backend)
	}
}

// backendResolver is implemented by providers that delegate to another
// backend per file, such as AutoProvider.
type backendResolver interface {
	Backend(path string) (string, error)
}

// backendName returns the name of the backend that reads path through p.
func backendName(p Provider, path string) string {
	if r, ok := p.(backendResolver); ok {
		if name, err := r.Backend(path); err == nil {
			return name
		}
	}
	return p.Name()
}

// Extractor produces a biomarker report from text. *extract.Engine
// satisfies it.
type Extractor interface {
	Extract(text string) types.Report
}

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Extracted int
	Failed    int

	// Reports holds one entry per successfully processed document, in
	// input order.
	Reports []types.DocumentReport
}

// Total returns the number of documents processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Failed
}

// HasFailures reports whether any document failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ExtractDocument reads doc through p and extracts biomarkers from its text.
func ExtractDocument(ctx context.Context, p Provider, e Extractor, doc types.Document) (types.DocumentReport, error) {
	text, err := p.Text(ctx, doc.Path)
	if err != nil {
		return types.DocumentReport{}, err
	}
	report := e.Extract(text)

	source := doc.Path
	if doc.SourceURL != "" {
		source = doc.SourceURL
	}
	return types.DocumentReport{
		DocumentID:  doc.ID,
		Source:      source,
		Backend:     backendName(p, doc.Path),
		ExtractedAt: time.Now().UTC(),
		Biomarkers:  report,
		Unmatched:   report.Unmatched(),
	}, nil
}

// ExtractBatch processes docs in order, printing per-document status to w
// and returning a summary. A failed document does not stop the batch;
// cancelling ctx does.
func ExtractBatch(ctx context.Context, p Provider, e Extractor, docs []types.Document, w io.Writer) BatchResult {
	var result BatchResult
	for _, doc := range docs {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", doc.ID, ctx.Err())
			result.Failed++
			continue
		}
		dr, err := ExtractDocument(ctx, p, e, doc)
		if err != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", doc.ID, err)
			result.Failed++
			continue
		}
		found := dr.Biomarkers.Len() - len(dr.Unmatched)
		fmt.Fprintf(w, "extracted: %s (%d/%d biomarkers)\n", doc.ID, found, dr.Biomarkers.Len())
		result.Extracted++
		result.Reports = append(result.Reports, dr)
	}
	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d failed (total: %d)\n",
		result.Extracted, result.Failed, result.Total())
	return result
}

// ExtractPaths builds Document records from local paths and delegates to
// ExtractBatch.
func ExtractPaths(ctx context.Context, p Provider, e Extractor, paths []string, w io.Writer) BatchResult {
	docs := make([]types.Document, len(paths))
	for i, path := range paths {
		docs[i] = types.Document{ID: DocumentID(path), Path: path}
	}
	return ExtractBatch(ctx, p, e, docs, w)
}

// DocumentID derives a document ID from a file name by dropping the
// directory and extension.
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
