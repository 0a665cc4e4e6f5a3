package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/zurustar/sputm/pkg/app"
	"github.com/zurustar/sputm/pkg/cli"
)

func newRunCmd() *cobra.Command {
	var flags *cli.Flags
	cmd := &cobra.Command{
		Use:   "run [target|directory]",
		Short: "Play a game",
		Long: `Play a game named in the targets file or found in a directory.

The dialect is detected from the game files unless --game-version is given.
With --headless the game runs without a window or sound until it quits or
--timeout passes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}
			cfg, err := cli.LoadEnv(flags, arg)
			if err != nil {
				return err
			}
			err = app.New(nil).Run(cmd.Context(), cfg)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	flags = cli.AddFlags(cmd.Flags())
	return cmd
}
