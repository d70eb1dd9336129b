// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/biomarker-engine/internal/container"
)

// DefaultMarkitdownImage is used when no container image is configured.
const DefaultMarkitdownImage = "markitdown:latest"

// MarkitdownProvider pipes documents through the markitdown container
// image. It handles formats the native backends do not, such as DOCX and
// HTML, and PDFs whose text layer pdfcpu cannot decode.
type MarkitdownProvider struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdownProvider verifies that image exists in rt before returning.
func NewMarkitdownProvider(ctx context.Context, rt container.Runtime, image string) (*MarkitdownProvider, error) {
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownProvider{runtime: rt, image: image}, nil
}

// Name returns "markitdown".
func (m *MarkitdownProvider) Name() string { return "markitdown" }

// Text streams the file at path into the container and returns its stdout.
func (m *MarkitdownProvider) Text(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, m.image, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", path, err)
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", fmt.Errorf("markitdown output for %s: %w", path, ErrNoText)
	}
	return out.String(), nil
}
