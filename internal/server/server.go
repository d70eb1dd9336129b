// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the biomarker engine over HTTP.
//
// Uploaded documents are written to a private temp file, converted to text
// by the configured provider, and passed through the engine. Reports are
// cached by content digest so repeated uploads of the same document skip
// conversion.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/biomarker-engine/internal/convert"
	"github.com/pdiddy/biomarker-engine/internal/extract"
	"github.com/pdiddy/biomarker-engine/internal/metrics"
	"github.com/pdiddy/biomarker-engine/pkg/types"
)

// uploadField is the multipart field carrying the document.
const uploadField = "pdf"

const shutdownTimeout = 30 * time.Second

var safeExt = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// Server is the HTTP front end for an extraction engine.
type Server struct {
	cfg      types.ServerConfig
	engine   *extract.Engine
	provider convert.Provider
	log      logrus.FieldLogger
	cache    *lru.Cache[string, types.Report]
	limiter  *rate.Limiter
	router   *gin.Engine
	version  string
}

// NewServer builds a server and its routes. A zero CacheSize disables the
// report cache and a zero RateLimit disables request limiting.
func NewServer(cfg types.ServerConfig, engine *extract.Engine, provider convert.Provider, log *logrus.Logger, opts ...Option) (*Server, error) {
	if log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		engine:   engine,
		provider: provider,
		log:      log,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, types.Report](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating report cache: %w", err)
		}
		s.cache = cache
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = max(1, int(cfg.RateLimit))
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	router := gin.New()
	router.Use(recovery(log))
	router.Use(CorrelationID())
	router.Use(requestLogger(log))
	router.Use(SecurityHeaders())
	s.router = router

	s.setupRoutes()
	return s, nil
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/biomarkers", s.handleBiomarkers)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	docs := s.router.Group("/")
	docs.Use(apiKeyAuth(s.cfg.APIKey))
	docs.Use(rateLimit(s.limiter))
	{
		docs.POST("/upload", s.handleUpload)
		docs.POST("/extract/:biomarker", s.handleExtractOne)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   s.version,
	})
}

func (s *Server) handleBiomarkers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"biomarkers": s.engine.Names()})
}

// handleUpload returns the full report for the uploaded document.
func (s *Server) handleUpload(c *gin.Context) {
	report, ok := s.reportForUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleExtractOne returns a single-entry report for the biomarker named in
// the path. Slugs such as "ki67" or "pdl1" resolve to their table names.
func (s *Server) handleExtractOne(c *gin.Context) {
	slug := c.Param("biomarker")
	name, ok := s.engine.Lookup(slug)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown biomarker %q", slug)})
		return
	}

	report, ok := s.reportForUpload(c)
	if !ok {
		return
	}
	single, _ := report.Only(name)
	c.JSON(http.StatusOK, single)
}

// reportForUpload stores the uploaded document in a temp file, extracts
// its report and removes the file. On failure it writes the error response
// and returns false.
func (s *Server) reportForUpload(c *gin.Context) (types.Report, bool) {
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}

	fh, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)})
		case s.emptyFilePart(c):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file part"})
		}
		return types.Report{}, false
	}
	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		return types.Report{}, false
	}

	log := s.log.WithFields(logrus.Fields{
		"correlation_id": c.GetString(correlationIDKey),
		"filename":       fh.Filename,
		"size":           fh.Size,
	})

	ext := uploadExt(fh.Filename)
	tmp, err := os.CreateTemp(s.cfg.TempDir, "upload-*"+ext)
	if err != nil {
		log.WithError(err).Error("creating temp file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return types.Report{}, false
	}
	defer os.Remove(tmp.Name())

	digest, err := saveUpload(fh, tmp)
	if err != nil {
		log.WithError(err).Error("saving upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return types.Report{}, false
	}

	// The auto provider dispatches on extension, so it is part of the key.
	key := digest + ":" + s.provider.Name() + ":" + ext
	if s.cache != nil {
		if report, hit := s.cache.Get(key); hit {
			metrics.ObserveCache(true)
			log.Debug("report served from cache")
			return report, true
		}
		metrics.ObserveCache(false)
	}

	start := time.Now()
	text, err := s.provider.Text(c.Request.Context(), tmp.Name())
	if err != nil {
		metrics.ObserveDocument(start, err)
		log.WithError(err).Warn("document conversion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return types.Report{}, false
	}
	report := s.engine.Extract(text)
	metrics.ObserveDocument(start, nil)

	if s.cache != nil {
		s.cache.Add(key, report)
	}
	log.WithField("unmatched", len(report.Unmatched())).Info("document extracted")
	return report, true
}

// emptyFilePart reports whether the upload field was sent without a file.
func (s *Server) emptyFilePart(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[uploadField]
	return ok
}

// saveUpload copies the upload into dst, closes dst, and returns the
// hex SHA-256 of the content.
func saveUpload(fh *multipart.FileHeader, dst *os.File) (string, error) {
	src, err := fh.Open()
	if err != nil {
		dst.Close()
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(dst, h), src); err != nil {
		dst.Close()
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// uploadExt keeps the client's file extension when it is short and plain,
// so the provider can dispatch on it. The client filename is never used
// as a path.
func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !safeExt.MatchString(ext) {
		return ""
	}
	return ext
}
