package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TextProvider reads plain-text and Markdown reports verbatim. Invalid
// UTF-8 sequences are replaced with U+FFFD.
type TextProvider struct{}

// Name returns "text".
func (TextProvider) Name() string { return "text" }

// Text returns the file contents.
func (TextProvider) Text(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", path, ErrNoText)
	}
	return text, nil
}

// AutoProvider picks a backend from the file extension: PDF for .pdf, Plain
// for .txt, .text and .md, and Fallback for anything else. A nil Fallback
// makes other extensions fail with ErrUnsupportedFormat.
type AutoProvider struct {
	PDF      Provider
	Plain    Provider
	Fallback Provider
}

// Name returns "auto".
func (a *AutoProvider) Name() string { return "auto" }

// Text delegates to the backend chosen for path.
func (a *AutoProvider) Text(ctx context.Context, path string) (string, error) {
	p, err := a.backend(path)
	if err != nil {
		return "", err
	}
	return p.Text(ctx, path)
}

// Backend returns the name of the provider that would handle path.
func (a *AutoProvider) Backend(path string) (string, error) {
	p, err := a.backend(path)
	if err != nil {
		return "", err
	}
	return p.Name(), nil
}

func (a *AutoProvider) backend(path string) (Provider, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		if a.PDF != nil {
			return a.PDF, nil
		}
	case ".txt", ".text", ".md":
		if a.Plain != nil {
			return a.Plain, nil
		}
	}
	if a.Fallback != nil {
		return a.Fallback, nil
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}
