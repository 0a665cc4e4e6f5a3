package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zurustar/sputm/pkg/cli"
	"github.com/zurustar/sputm/pkg/fileutil"
	"github.com/zurustar/sputm/pkg/gamedata"
	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/version"
)

func newDetectCmd() *cobra.Command {
	var (
		add         string
		targetsFile string
	)
	cmd := &cobra.Command{
		Use:   "detect <directory>",
		Short: "Report which dialect a game directory holds",
		Long: `Inspect the game files in a directory and print the detected dialect,
layout and table sizes. With --add the game is written to the targets file
under the given name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitLoggerWithWriter("warn", cmd.ErrOrStderr()); err != nil {
				return err
			}
			dir, err := fileutil.ExpandHome(args[0])
			if err != nil {
				return err
			}
			game, err := gamedata.Open(fileutil.NewRealFS(dir), version.Unknown)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			c := game.Profile.Counts
			fmt.Fprintf(out, "name:      %s\n", game.Name)
			fmt.Fprintf(out, "dialect:   %s\n", game.Profile.ID)
			fmt.Fprintf(out, "layout:    %s\n", game.Layout)
			fmt.Fprintf(out, "language:  %s\n", game.Language)
			fmt.Fprintf(out, "variables: %d\n", c.Variables)
			fmt.Fprintf(out, "objects:   %d\n", c.GlobalObjects)
			fmt.Fprintf(out, "rooms:     %d named\n", len(game.RoomNames))

			if add == "" {
				return nil
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			t := cli.Target{
				Name:     add,
				Path:     abs,
				GameID:   strings.ToLower(game.Name),
				Version:  game.Profile.ID,
				Language: game.Language,
			}
			if err := cli.SaveTarget(targetsFile, t); err != nil {
				return fmt.Errorf("save target: %w", err)
			}
			fmt.Fprintf(out, "added target %q to %s\n", add, targetsFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&add, "add", "", "write the game to the targets file under this name")
	cmd.Flags().StringVar(&targetsFile, "targets-file", cli.DefaultTargetsFile, "targets file")
	return cmd
}

func newTargetsCmd() *cobra.Command {
	var targetsFile string
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the games in the targets file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := cli.LoadTargets(targetsFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(targets) == 0 {
				fmt.Fprintf(out, "No targets in %s. Add one with 'sputm detect <directory> --add <name>'.\n", targetsFile)
				return nil
			}
			for _, name := range cli.TargetNames(targets) {
				t := targets[name]
				fmt.Fprintf(out, "%-16s %-4s %s\n", name, t.Version, t.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&targetsFile, "targets-file", cli.DefaultTargetsFile, "targets file")
	return cmd
}
