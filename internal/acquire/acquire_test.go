// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/biomarker-engine/internal/httputil"
	"github.com/pdiddy/biomarker-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func testConfig() types.AcquisitionConfig {
	return types.AcquisitionConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "biomarker-engine-test/1.0"},
		MaxRetries: 2,
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://lab.example/reports/42.pdf", true},
		{"http://lab.example/r", true},
		{"HTTPS://LAB.EXAMPLE/R.PDF", true},
		{"  https://lab.example/r.pdf  ", true},
		{"ftp://lab.example/r.pdf", false},
		{"reports/42.pdf", false},
		{"/abs/path/report.pdf", false},
		{"https://", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsURL(tt.in))
		})
	}
}

func TestURLSlug(t *testing.T) {
	assert.Equal(t, "patient-0042", URLSlug("https://lab.example/reports/patient-0042.pdf"))
	assert.Equal(t, "report", URLSlug("https://lab.example/report?id=7"))
	assert.Equal(t, "lab.example", URLSlug("https://lab.example/"))
}

func TestDownload(t *testing.T) {
	var gotUA, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		switch r.URL.Path {
		case "/reports/42.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4 fake"))
		case "/render":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte("ER 90%"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	tests := []struct {
		name     string
		path     string
		wantExt  string
		wantBody string
		wantErr  string
	}{
		{name: "extension from URL", path: "/reports/42.pdf", wantExt: ".pdf", wantBody: "%PDF-1.4 fake"},
		{name: "extension from content type", path: "/render", wantExt: ".txt", wantBody: "ER 90%"},
		{name: "not found", path: "/missing", wantErr: "HTTP 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			got, err := Download(context.Background(), ts.Client(), ts.URL+tt.path, dir, testConfig(), nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				entries, _ := os.ReadDir(dir)
				assert.Empty(t, entries, "no file left behind")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, dir, filepath.Dir(got))
			assert.Equal(t, tt.wantExt, filepath.Ext(got))
			assert.True(t, strings.HasPrefix(filepath.Base(got), "report-"))

			data, err := os.ReadFile(got)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(data))
		})
	}

	assert.Equal(t, "biomarker-engine-test/1.0", gotUA)
	assert.Contains(t, gotAccept, "application/pdf")
}

func TestDownload_RetriesOn429(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("TMB 10"))
	}))
	defer ts.Close()

	got, err := Download(context.Background(), ts.Client(), ts.URL+"/r.txt", t.TempDir(), testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "TMB 10", string(data))
}

func TestDownload_RejectsNonURL(t *testing.T) {
	_, err := Download(context.Background(), http.DefaultClient, "reports/42.pdf", t.TempDir(), testConfig(), nil)
	assert.ErrorContains(t, err, "not an http(s) URL")
}

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("HER2 positive"))
	}))
	defer ts.Close()

	rawURL := ts.URL + "/cases/case-7.txt"
	doc, err := Fetch(context.Background(), ts.Client(), rawURL, t.TempDir(), testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "case-7", doc.ID)
	assert.Equal(t, rawURL, doc.SourceURL)
	assert.FileExists(t, doc.Path)
}
