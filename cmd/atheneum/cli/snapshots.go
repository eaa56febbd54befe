package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/atheneum/internal/ui/tui"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage session snapshots",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots, most recent first",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		snaps := a.mgr.Snapshots()
		if len(snaps) == 0 {
			fmt.Println("No snapshots yet.")
			return
		}
		for _, s := range snaps {
			when := time.UnixMilli(s.Timestamp).Format("2006-01-02 15:04")
			fmt.Printf("%s  %s (%s)\n", when, s.Name, s.Topic)
		}
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a snapshot's article",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		snap, ok := a.mgr.Snapshot(args[0])
		if !ok {
			fmt.Printf("No snapshot named %q\n", args[0])
			return
		}
		fmt.Println(snap.Article.Title)
		fmt.Println(tui.RenderArticle(&snap.Article))
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()
		a.mgr.DeleteSnapshot(args[0])
	},
}

func init() {
	RootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
}
