package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biomarker-engine/internal/acquire"
	"github.com/pdiddy/biomarker-engine/internal/container"
	"github.com/pdiddy/biomarker-engine/internal/convert"
	"github.com/pdiddy/biomarker-engine/internal/extract"
	"github.com/pdiddy/biomarker-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [files or URLs...]",
	Short: "Extract biomarkers from pathology reports",
	Long: `Extract reads each report, recovers its text, and prints the value,
confidence and supporting sentence for every tracked biomarker.

Arguments may be local paths or http(s) URLs; URLs are downloaded to a
temporary directory first. PDF and plain-text files are read natively; other
formats go through the markitdown container when docker or podman is
available.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("backend", "", "text backend: auto, pdf, markitdown, or text")
	extractCmd.Flags().String("format", "json", "output format: json, yaml, or table")
	extractCmd.Flags().String("biomarker", "", "report only this biomarker (e.g. ER, ki67, pd-l1)")
	extractCmd.Flags().String("table", "", "YAML biomarker table (default: built-in table)")
	extractCmd.Flags().String("output-dir", "", "write <id>-biomarkers.yaml per report here instead of printing")
	extractCmd.Flags().Duration("timeout", 0, "HTTP timeout for URL downloads (default 60s)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json", "yaml", "table":
	default:
		return fmt.Errorf("unknown format %q (want json, yaml, or table)", format)
	}
	only, _ := cmd.Flags().GetString("biomarker")
	outputDir, _ := cmd.Flags().GetString("output-dir")

	extraction := cfg.Extraction
	if cmd.Flags().Changed("backend") {
		b, _ := cmd.Flags().GetString("backend")
		extraction.Backend = types.ProviderBackend(b)
	}
	overrideString(cmd, "table", &extraction.Table)
	acquisition := cfg.Acquisition
	if cmd.Flags().Changed("timeout") {
		acquisition.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}

	engine, err := newEngine(extraction.Table)
	if err != nil {
		return err
	}
	var extractor convert.Extractor = engine
	if only != "" {
		name, ok := engine.Lookup(only)
		if !ok {
			return fmt.Errorf("unknown biomarker %q (known: %s)", only, strings.Join(engine.Names(), ", "))
		}
		extractor = singleExtractor{engine: engine, name: name}
	}

	ctx := cmd.Context()
	provider, err := convert.NewProvider(ctx, extraction.ProviderConfig, detectRuntime(ctx, extraction.Backend))
	if err != nil {
		return err
	}

	var result convert.BatchResult
	if slices.ContainsFunc(args, acquire.IsURL) {
		docs, fetchFailed, cleanup, err := resolveDocuments(ctx, args, acquisition, os.Stderr)
		if err != nil {
			return err
		}
		defer cleanup()
		result = convert.ExtractBatch(ctx, provider, extractor, docs, os.Stderr)
		result.Failed += fetchFailed
	} else {
		result = convert.ExtractPaths(ctx, provider, extractor, args, os.Stderr)
	}

	if err := emitReports(result.Reports, format, outputDir, cmd.OutOrStdout()); err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d of %d report(s) failed", result.Failed, result.Total())
	}
	return nil
}

// singleExtractor reports one biomarker, already resolved to its canonical
// name.
type singleExtractor struct {
	engine *extract.Engine
	name   string
}

func (s singleExtractor) Extract(text string) types.Report {
	res, _ := s.engine.ExtractOne(text, s.name)
	return types.NewReport([]types.ReportEntry{{Name: s.name, Result: res}})
}

// detectRuntime looks for docker or podman when the backend may need the
// markitdown container. It returns nil when none is found; NewProvider
// reports that as an error only for the markitdown backend.
func detectRuntime(ctx context.Context, backend types.ProviderBackend) container.Runtime {
	switch backend {
	case types.BackendMarkitdown, types.BackendAuto, "":
	default:
		return nil
	}
	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		logger.WithError(err).Debug("no container runtime; markitdown unavailable")
		return nil
	}
	return rt
}

// resolveDocuments turns CLI arguments into documents, downloading URLs
// into a temp directory. Download failures are reported on w and counted.
// The returned cleanup removes any downloads.
func resolveDocuments(ctx context.Context, args []string, acq types.AcquisitionConfig, w io.Writer) ([]types.Document, int, func(), error) {
	cleanup := func() {}
	var (
		docs   []types.Document
		failed int
		tmpDir string
		client *http.Client
	)
	for _, arg := range args {
		if !acquire.IsURL(arg) {
			docs = append(docs, types.Document{ID: convert.DocumentID(arg), Path: arg})
			continue
		}
		if tmpDir == "" {
			dir, err := os.MkdirTemp("", "biomarker-engine-*")
			if err != nil {
				return nil, 0, cleanup, fmt.Errorf("creating download directory: %w", err)
			}
			tmpDir = dir
			cleanup = func() { os.RemoveAll(dir) }
			client = &http.Client{Timeout: acq.Timeout}
		}
		doc, err := acquire.Fetch(ctx, client, arg, tmpDir, acq, logger)
		if err != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", arg, err)
			failed++
			continue
		}
		docs = append(docs, doc)
	}
	return docs, failed, cleanup, nil
}

// emitReports prints reports in format, or saves them under dir when set.
func emitReports(reports []types.DocumentReport, format, dir string, w io.Writer) error {
	if dir != "" {
		for _, dr := range reports {
			path, err := convert.WriteReportFile(dir, dr)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "wrote %s\n", path)
		}
		return nil
	}

	switch format {
	case "yaml":
		return convert.FormatYAML(reports, w)
	case "table":
		convert.FormatTable(reports, w)
		return nil
	default:
		return convert.FormatJSON(reports, w)
	}
}
