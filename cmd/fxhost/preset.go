package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newPresetCmd(a *app) *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Save, load and list plugin presets",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				a.cfg.Presets.Path = db
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&db, "db", "", "preset database, overrides the configuration")
	cmd.AddCommand(
		newPresetSaveCmd(a),
		newPresetLoadCmd(a),
		newPresetListCmd(a),
		newPresetDeleteCmd(a),
	)
	return cmd
}

func newPresetSaveCmd(a *app) *cobra.Command {
	var sets map[string]int64
	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Store the plugin's state under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openWithPresets(ctx)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			if err := applySets(s.inst, sets); err != nil {
				return err
			}
			if err := s.inst.SavePreset(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "saved %s/%s\n", s.inst.Info().CanonicalName, args[0])
			return nil
		},
	}
	cmd.Flags().StringToInt64Var(&sets, "set", nil, "parameter values by name, e.g. --set Red=40")
	return cmd
}

func newPresetLoadCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "load NAME",
		Short: "Restore a preset and print the resulting panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openWithPresets(ctx)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			e, err := s.inst.LoadPreset(ctx, args[0])
			if err != nil {
				return err
			}
			a.log.Info("preset loaded", "name", e.Name, "plugin_version", e.PluginVersion,
				"state_version", e.StateVersion, "size", e.Size, "codec", e.Codec)
			d, err := s.inst.Describe()
			if err != nil {
				return err
			}
			return writeDescription(a.out, d, format)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func newPresetListCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.openWithPresets(ctx)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			canonical := s.inst.Info().CanonicalName
			if all {
				canonical = ""
			}
			entries, err := s.store.List(ctx, canonical)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PLUGIN\tNAME\tVERSION\tSTATE\tSIZE\tCODEC\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\tv%d\t%d\t%s\t%s\n",
					e.Canonical, e.Name, e.PluginVersion, e.StateVersion, e.Size, e.Codec,
					e.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list presets of every plugin")
	return cmd
}

func newPresetDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a stored preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openWithPresets(ctx)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			if err := s.store.Delete(ctx, s.inst.Info().CanonicalName, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s\n", args[0])
			return nil
		},
	}
}
