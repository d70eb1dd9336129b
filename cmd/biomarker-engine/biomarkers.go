package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biomarker-engine/internal/extract"
)

var biomarkersCmd = &cobra.Command{
	Use:   "biomarkers",
	Short: "Print the effective biomarker table as YAML",
	Long: `Biomarkers prints the table the engine would use: the file named by
--table or extraction.table, or the built-in table. The output is a valid
table file and can be edited and passed back with --table. With --names
only the biomarker names are printed, one per line.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Extraction.Table
		overrideString(cmd, "table", &path)

		table, err := loadTable(path)
		if err != nil {
			return err
		}
		// Validate before printing so a broken file is reported, not echoed.
		if _, err := extract.NewEngine(table); err != nil {
			return err
		}
		if names, _ := cmd.Flags().GetBool("names"); names {
			for _, name := range table.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}
		return extract.WriteTable(cmd.OutOrStdout(), table)
	},
}

func init() {
	biomarkersCmd.Flags().Bool("names", false, "print only the biomarker names")
	biomarkersCmd.Flags().String("table", "", "YAML biomarker table (default: built-in table)")

	rootCmd.AddCommand(biomarkersCmd)
}
