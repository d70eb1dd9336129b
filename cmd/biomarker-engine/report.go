package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biomarker-engine/internal/convert"
	"github.com/pdiddy/biomarker-engine/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report [report files...]",
	Short: "Print saved biomarker reports",
	Long: `Report reads <id>-biomarkers.yaml files written by "extract --output-dir"
and prints them as json, yaml, or a table.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json", "yaml", "table":
		default:
			return fmt.Errorf("unknown format %q (want json, yaml, or table)", format)
		}

		reports := make([]types.DocumentReport, 0, len(args))
		for _, path := range args {
			dr, err := convert.ReadReportFile(path)
			if err != nil {
				return err
			}
			reports = append(reports, dr)
		}
		return emitReports(reports, format, "", cmd.OutOrStdout())
	},
}

func init() {
	reportCmd.Flags().String("format", "table", "output format: json, yaml, or table")

	rootCmd.AddCommand(reportCmd)
}
