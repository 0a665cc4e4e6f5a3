package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zurustar/sputm/pkg/cli"
	"github.com/zurustar/sputm/pkg/savegame"
)

func newSavesCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "saves",
		Short: "Manage save slots",
		Long: `List, inspect and delete the save slots of a target.

Examples:
  sputm saves list tentacle
  sputm saves show tentacle 3
  sputm saves delete tentacle 3`,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "save-db", cli.DefaultSaveDB, "save slot database")

	withStore := func(fn func(cmd *cobra.Command, store *savegame.Store, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, err := savegame.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			return fn(cmd, store, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <target>",
		Short: "List the occupied slots of a target",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, store *savegame.Store, args []string) error {
			infos, err := store.List(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintf(out, "No saves for %s.\n", args[0])
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SLOT\tNAME\tSIZE\tSAVED")
			for _, in := range infos {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", in.Slot, in.Name, in.Size, in.SavedAt.Format(time.DateTime))
			}
			return w.Flush()
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <target> <slot>",
		Short: "Describe one save slot",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(cmd *cobra.Command, store *savegame.Store, args []string) error {
			slot, err := parseSlot(args[1])
			if err != nil {
				return err
			}
			snap, err := store.Get(args[0], slot)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:    %s\n", snap.Name)
			fmt.Fprintf(out, "dialect: %s\n", snap.Game)
			fmt.Fprintf(out, "tick:    %d\n", snap.Tick)
			fmt.Fprintf(out, "room:    %d\n", snap.Machine.Room)
			fmt.Fprintf(out, "scripts: %d\n", len(snap.Machine.Slots))
			fmt.Fprintf(out, "actors:  %d\n", len(snap.Actors))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <target> <slot>",
		Short: "Delete a save slot",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(cmd *cobra.Command, store *savegame.Store, args []string) error {
			slot, err := parseSlot(args[1])
			if err != nil {
				return err
			}
			if err := store.Delete(args[0], slot); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s slot %d.\n", args[0], slot)
			return nil
		}),
	})
	return cmd
}

func parseSlot(s string) (int, error) {
	slot, err := strconv.Atoi(s)
	if err != nil || slot < 0 {
		return 0, fmt.Errorf("invalid slot %q", s)
	}
	return slot, nil
}
