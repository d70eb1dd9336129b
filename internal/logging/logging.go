// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/biomarker-engine/internal/extract"
	"github.com/pdiddy/biomarker-engine/pkg/types"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to stderr, and additionally to cfg.File
// when set. The returned Closer releases the log file and must be called
// on shutdown. An empty level means info; an empty format means text.
func New(cfg types.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg types.LoggingConfig, stderr io.Writer) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if cfg.Level != "" {
		l, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	default:
		return nil, nil, fmt.Errorf("invalid log format %q (want text or json)", cfg.Format)
	}

	if cfg.File == "" {
		logger.SetOutput(stderr)
		return logger, nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
	}
	logger.SetOutput(io.MultiWriter(stderr, f))
	return logger, f, nil
}

// UnmatchedObserver logs, at info level, the biomarkers an extraction
// could not find.
func UnmatchedObserver(log logrus.FieldLogger) extract.Observer {
	return extract.ObserverFunc(func(r types.Report) {
		unmatched := r.Unmatched()
		if len(unmatched) == 0 {
			return
		}
		log.WithFields(logrus.Fields{
			"unmatched": strings.Join(unmatched, ","),
			"found":     r.Len() - len(unmatched),
		}).Info("biomarkers not found")
	})
}
