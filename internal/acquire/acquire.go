// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads pathology reports given by URL so they can be
// read by a text provider.
package acquire

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/biomarker-engine/internal/httputil"
	"github.com/pdiddy/biomarker-engine/pkg/types"
)

// IsURL reports whether s is an absolute http or https URL with a host.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// contentTypeExt maps response media types to file extensions the text
// providers dispatch on.
var contentTypeExt = map[string]string{
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"text/markdown":   ".md",
	"text/html":       ".html",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// Download fetches rawURL into a new file in dir and returns its path. The
// file name keeps the URL's extension, or one derived from Content-Type, so
// providers can pick a backend. The caller removes the file when done. On
// any error no file is left behind. log may be nil.
func Download(ctx context.Context, client *http.Client, rawURL, dir string, cfg types.AcquisitionConfig, log logrus.FieldLogger) (string, error) {
	if !IsURL(rawURL) {
		return "", fmt.Errorf("not an http(s) URL: %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf, text/plain;q=0.9, */*;q=0.5")

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries, log)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Redacted())
	}

	ext := fileExt(req.URL, resp.Header.Get("Content-Type"))
	tmp, err := os.CreateTemp(dir, "report-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"url":   req.URL.Redacted(),
			"bytes": n,
			"path":  tmpPath,
		}).Debug("report downloaded")
	}
	return tmpPath, nil
}

// Fetch downloads rawURL like Download and describes the result as a
// Document whose ID comes from the URL's last path segment.
func Fetch(ctx context.Context, client *http.Client, rawURL, dir string, cfg types.AcquisitionConfig, log logrus.FieldLogger) (types.Document, error) {
	p, err := Download(ctx, client, rawURL, dir, cfg, log)
	if err != nil {
		return types.Document{}, err
	}
	return types.Document{ID: URLSlug(rawURL), Path: p, SourceURL: rawURL}, nil
}

// URLSlug derives a document ID from the last path segment of rawURL
// without its extension, falling back to the host name.
func URLSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		return u.Hostname()
	}
	return base
}

func fileExt(u *url.URL, contentType string) string {
	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := contentTypeExt[mt]; ok {
			return ext
		}
	}
	return ""
}
