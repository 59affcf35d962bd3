package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/GridTray/internal/artifact"
	"github.com/piwi3910/GridTray/internal/mesh"
	"github.com/piwi3910/GridTray/internal/model"
	"github.com/piwi3910/GridTray/internal/project"
)

var (
	generateTray    trayFlags
	generateOutputs outputFlags
	generateOut     string
	generateName    string
	generatePreset  string
)

// outputFlags selects the optional artifacts.
type outputFlags struct {
	stl, dxf, pdf, labels bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.stl, "stl", false, "render an STL mesh with OpenSCAD")
	cmd.Flags().BoolVar(&o.dxf, "dxf", false, "write a DXF outline")
	cmd.Flags().BoolVar(&o.pdf, "pdf", false, "write a PDF plan with a print estimate")
	cmd.Flags().BoolVar(&o.labels, "labels", false, "write a QR label sheet")
}

func (o *outputFlags) options() artifact.Options {
	return artifact.Options{
		STL:        o.stl,
		DXF:        o.dxf,
		PDF:        o.pdf,
		Labels:     o.labels,
		Density:    cfg.Print.Density,
		PricePerKg: cfg.Print.PricePerKg,
	}
}

// newArtifactWriter only looks for the mesh tool when STL output is wanted.
func newArtifactWriter(stl bool) *artifact.Writer {
	var renderer mesh.Renderer
	if stl {
		renderer = mesh.NewOpenSCAD(cfg.Mesh, logger)
	}
	return artifact.NewWriter(renderer, logger)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the files for one tray",
	Example: `  gridtray generate --cols 2 --rows 1 --cell 42 --wall 2 --height 20 --out out
  gridtray generate --preset gf-2x2 --posts --stl --pdf --out out`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		base := cfg.Defaults
		if generatePreset != "" {
			path, err := presetsPath()
			if err != nil {
				return err
			}
			store, err := project.LoadWithBuiltins(path)
			if err != nil {
				return err
			}
			p := store.Lookup(generatePreset)
			if p == nil {
				return fmt.Errorf("unknown preset %q", generatePreset)
			}
			base = p.Config
		}

		tray := model.NamedTray{Name: generateName, Config: generateTray.apply(cmd.Flags(), base)}
		res, err := newArtifactWriter(generateOutputs.stl).Write(cmd.Context(), generateOut, tray, generateOutputs.options())
		if err != nil {
			return err
		}
		for _, f := range res.Files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

func init() {
	generateTray.register(generateCmd.Flags())
	generateOutputs.register(generateCmd)
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", ".", "output directory")
	generateCmd.Flags().StringVar(&generateName, "name", "", "tray name printed on labels")
	generateCmd.Flags().StringVar(&generatePreset, "preset", "", "start from a stored or built-in preset (ID or name)")
	rootCmd.AddCommand(generateCmd)
}
