package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/piwi3910/GridTray/internal/engine"
	"github.com/piwi3910/GridTray/internal/export"
	"github.com/piwi3910/GridTray/internal/importer"
	"github.com/piwi3910/GridTray/internal/model"
)

var (
	batchOutputs     outputFlags
	batchOut         string
	batchTemplate    string
	batchSkipInvalid bool
	batchConcurrency int
	batchPlates      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch FILE",
	Short: "Generate every tray listed in a CSV or Excel sheet",
	Long: `Reads one tray per row from a .csv or .xlsx file. Recognised columns are
Name, Columns, Rows, Cell, Wall, Height and Divider; without a header row the
columns are taken in that order. Blank optional cells use the configured
defaults.`,
	Example: `  gridtray batch --template trays.xlsx
  gridtray batch trays.csv --out out --pdf --labels`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchTemplate != "" {
			if err := importer.WriteTemplate(batchTemplate); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), batchTemplate)
			return nil
		}
		if len(args) != 1 {
			return fmt.Errorf("batch needs an input file (or --template)")
		}

		result := importer.ImportFile(args[0])
		for _, w := range result.Warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		for _, e := range result.Errors {
			fmt.Fprintln(cmd.ErrOrStderr(), "error:", e)
		}
		if len(result.Errors) > 0 && !batchSkipInvalid {
			return fmt.Errorf("%d row(s) could not be imported", len(result.Errors))
		}
		if len(result.Trays) == 0 {
			return fmt.Errorf("no trays found in %s", args[0])
		}

		opts := batchOutputs.options()
		opts.Concurrency = batchConcurrency
		results, err := newArtifactWriter(batchOutputs.stl).WriteBatch(cmd.Context(), batchOut, result.Trays, opts)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d file(s)\n", r.Name, len(r.Files))
		}

		if batchPlates {
			return writePlates(cmd, result.Trays)
		}
		return nil
	},
}

// writePlates packs the batch onto print beds and saves plates.svg.
func writePlates(cmd *cobra.Command, trays []model.NamedTray) error {
	plan, err := engine.PlanPlates(trays, cfg.Print.Bed)
	if err != nil {
		return err
	}
	path := filepath.Join(batchOut, "plates.svg")
	if err := os.WriteFile(path, []byte(export.PlatesSVG(plan)), 0o644); err != nil {
		return fmt.Errorf("failed to write plates: %w", err)
	}

	out := cmd.OutOrStdout()
	for i, plate := range plan.Plates {
		fmt.Fprintf(out, "plate %d: %d tray(s), %.0f%% of the bed\n", i+1, len(plate.Items), 100*plan.Efficiency(i))
	}
	for _, name := range plan.Unplaced {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is larger than the %s x %s mm bed\n",
			name, model.FormatMM(plan.Bed.Width), model.FormatMM(plan.Bed.Depth))
	}
	fmt.Fprintln(out, path)
	return nil
}

func init() {
	batchOutputs.register(batchCmd)
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", ".", "output directory")
	batchCmd.Flags().StringVar(&batchTemplate, "template", "", "write an example sheet (.csv or .xlsx) and exit")
	batchCmd.Flags().BoolVar(&batchSkipInvalid, "skip-invalid", false, "generate the valid rows even when others fail to import")
	batchCmd.Flags().BoolVar(&batchPlates, "plates", false, "pack the trays onto print beds and write plates.svg")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "trays generated in parallel (default 4)")
	rootCmd.AddCommand(batchCmd)
}
