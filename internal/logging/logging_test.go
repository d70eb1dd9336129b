// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/biomarker-engine/pkg/types"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		want    logrus.Level
		wantErr bool
	}{
		{"", logrus.InfoLevel, false},
		{"debug", logrus.DebugLevel, false},
		{"WARN", logrus.WarnLevel, false},
		{"error", logrus.ErrorLevel, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, closer, err := newLogger(types.LoggingConfig{Level: tt.level}, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer closer.Close()
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := newLogger(types.LoggingConfig{Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.WithField("biomarker", "ER").Info("matched")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "matched", line["message"])
	assert.Equal(t, "ER", line["biomarker"])
	assert.Contains(t, line, "timestamp")
}

func TestNew_BadFormat(t *testing.T) {
	_, _, err := newLogger(types.LoggingConfig{Format: "xml"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid log format")
}

func TestNew_TeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	var buf bytes.Buffer

	logger, closer, err := newLogger(types.LoggingConfig{File: path}, &buf)
	require.NoError(t, err)
	logger.Info("server started")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "server started")
	assert.Contains(t, buf.String(), "server started")
}

func TestNew_BadFile(t *testing.T) {
	_, _, err := newLogger(types.LoggingConfig{File: filepath.Join(t.TempDir(), "no", "such", "dir.log")}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "opening log file")
}

func TestUnmatchedObserver(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	obs := UnmatchedObserver(logger)

	obs.ObserveReport(types.NewReport([]types.ReportEntry{
		{Name: "ER", Result: types.Found("90", types.ConfidencePattern, "ER 90%")},
		{Name: "PR", Result: types.Absent()},
		{Name: "TMB", Result: types.Absent()},
	}))
	require.Len(t, hook.AllEntries(), 1, "logged at the default level")
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "PR,TMB", hook.LastEntry().Data["unmatched"])
	assert.Equal(t, 1, hook.LastEntry().Data["found"])

	hook.Reset()
	obs.ObserveReport(types.NewReport([]types.ReportEntry{
		{Name: "ER", Result: types.Found("90", types.ConfidencePattern, "")},
	}))
	assert.Empty(t, hook.AllEntries())

	logger.SetLevel(logrus.WarnLevel)
	obs.ObserveReport(types.NewReport([]types.ReportEntry{{Name: "PR", Result: types.Absent()}}))
	assert.Empty(t, hook.AllEntries(), "suppressed above info")
}
