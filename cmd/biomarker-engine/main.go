// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the biomarker-engine CLI.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/biomarker-engine/internal/extract"
	"github.com/pdiddy/biomarker-engine/internal/logging"
	"github.com/pdiddy/biomarker-engine/internal/metrics"
	"github.com/pdiddy/biomarker-engine/internal/secrets"
	"github.com/pdiddy/biomarker-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const secretsDir = ".secrets/"

var (
	// cfg is the effective configuration, loaded before any subcommand runs.
	cfg types.Config

	logger    *logrus.Logger
	logCloser io.Closer = nopCloser{}
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// rootCmd is the base command for the biomarker-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "biomarker-engine",
	Short: "Extract oncology biomarkers from pathology reports",
	Long: `biomarker-engine reads pathology reports (PDF, plain text, or any format
markitdown understands) and reports the ER, PR, HER2, Ki-67, BRCA, PD-L1,
MSI, TMB and NTRK values they state, with a confidence score and the
supporting sentence.

Run "extract" on local files or URLs, or "serve" to accept uploads over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		loaded, used, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		overrideString(cmd, "log-level", &loaded.Logging.Level)
		overrideString(cmd, "log-format", &loaded.Logging.Format)

		l, closer, err := logging.New(loaded.Logging)
		if err != nil {
			return err
		}
		if used != "" {
			l.WithField("file", used).Debug("using config file")
		}

		s, err := secrets.Load(secretsDir, l)
		if err != nil {
			closer.Close()
			return err
		}
		s.Apply(&loaded)

		cfg, logger, logCloser = loaded, l, closer
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./biomarker-engine.yaml or ~/.config/biomarker-engine/biomarker-engine.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
}

// overrideString copies the named flag into dst when it was set explicitly.
func overrideString(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

// loadTable returns the table at path, or the built-in table when path is
// empty.
func loadTable(path string) (types.BiomarkerTable, error) {
	if path == "" {
		return extract.DefaultTable(), nil
	}
	return extract.LoadTable(path)
}

// newEngine builds an engine from the configured table that logs and
// counts every report it produces.
func newEngine(tablePath string) (*extract.Engine, error) {
	table, err := loadTable(tablePath)
	if err != nil {
		return nil, err
	}
	return extract.NewEngine(table,
		extract.WithObserver(logging.UnmatchedObserver(logger)),
		extract.WithObserver(metrics.Observer()),
	)
}

// run executes the CLI with args (os.Args when nil) and closes the log
// file whether or not the command succeeded.
func run(args []string) error {
	if args != nil {
		rootCmd.SetArgs(args)
	}
	err := rootCmd.Execute()

	closer := logCloser
	logCloser = nopCloser{}
	if cerr := closer.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing log file: %w", cerr)
	}
	return err
}

func main() {
	if err := run(nil); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
