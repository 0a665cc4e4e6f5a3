// sputm plays adventure games built on the SCUMM bytecode family.
//
// Usage:
//
//	sputm run <target|directory>     - Play a game
//	sputm detect <directory>         - Report which dialect a game directory holds
//	sputm targets                    - List the games in the targets file
//	sputm saves list <target>        - List save slots
//	sputm saves show <target> <slot> - Describe one save slot
//	sputm saves delete <target> <slot>
//
// Environment variables HEADLESS, TIMEOUT and LOG_LEVEL override the
// targets file; flags override both.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sputm",
		Short: "sputm - adventure game bytecode interpreter",
		Long: `sputm runs adventure games compiled to the SCUMM bytecode family
(dialects v5 through v8) from their original index/data files or from a
flat directory with one file per resource.

Examples:
  sputm run ~/games/tentacle
  sputm run monkey2 --scale 3
  sputm run --headless --timeout 10 ~/games/samnmax
  sputm detect ~/games/tentacle --add tentacle
  sputm saves list tentacle`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newDetectCmd())
	root.AddCommand(newTargetsCmd())
	root.AddCommand(newSavesCmd())
	return root
}
