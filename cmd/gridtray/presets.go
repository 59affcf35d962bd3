package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/GridTray/internal/model"
	"github.com/piwi3910/GridTray/internal/project"
)

var (
	presetTray        trayFlags
	presetDescription string
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage saved tray presets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored and built-in presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := presetsPath()
		if err != nil {
			return err
		}
		store, err := project.LoadWithBuiltins(path)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tGRID\tCELL\tHEIGHT\tDESCRIPTION")
		for _, p := range store.Presets {
			fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s mm\t%s mm\t%s\n",
				p.ID, p.Name, p.Config.Columns, p.Config.Rows,
				model.FormatMM(p.Config.CellSize), model.FormatMM(p.Config.Height), p.Description)
		}
		return tw.Flush()
	},
}

var presetsAddCmd = &cobra.Command{
	Use:     "add NAME",
	Short:   "Save a preset from dimension flags",
	Example: `  gridtray presets add "Screw drawer" --cols 4 --rows 2 --height 15 --divider 1.2`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tray := presetTray.apply(cmd.Flags(), cfg.Defaults)
		if err := tray.Validate(); err != nil {
			return err
		}
		path, err := presetsPath()
		if err != nil {
			return err
		}
		store, err := project.LoadPresets(path)
		if err != nil {
			return err
		}
		p := model.NewPreset(args[0], presetDescription, tray)
		store.Add(p)
		if err := project.SavePresets(path, store); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var presetsRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Delete a stored preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := presetsPath()
		if err != nil {
			return err
		}
		store, err := project.LoadPresets(path)
		if err != nil {
			return err
		}
		p := store.Lookup(args[0])
		if p == nil || !store.Remove(p.ID) {
			return fmt.Errorf("no stored preset %q", args[0])
		}
		return project.SavePresets(path, store)
	},
}

var presetsExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write stored presets to a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := presetsPath()
		if err != nil {
			return err
		}
		store, err := project.LoadPresets(path)
		if err != nil {
			return err
		}
		return project.ExportBackup(args[0], store)
	},
}

var presetsImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Merge presets from a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backup, err := project.ImportBackup(args[0])
		if err != nil {
			return err
		}
		path, err := presetsPath()
		if err != nil {
			return err
		}
		store, err := project.LoadPresets(path)
		if err != nil {
			return err
		}
		n := backup.Merge(&store)
		if err := project.SavePresets(path, store); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d preset(s)\n", n)
		return nil
	},
}

func init() {
	presetTray.register(presetsAddCmd.Flags())
	presetsAddCmd.Flags().StringVar(&presetDescription, "description", "", "free-form description")

	presetsCmd.AddCommand(presetsListCmd, presetsAddCmd, presetsRemoveCmd, presetsExportCmd, presetsImportCmd)
	rootCmd.AddCommand(presetsCmd)
}
