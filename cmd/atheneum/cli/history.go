package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/atheneum/internal/knowledge"
	"github.com/spf13/cobra"
)

var historyMatch string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear the search history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List searched topics, most recent first",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		entries := a.mgr.History()
		if len(entries) == 0 {
			fmt.Println("No history yet.")
			return
		}
		for _, e := range entries {
			when := time.UnixMilli(e.Timestamp).Format("2006-01-02 15:04")
			fmt.Printf("%s  %s\n", when, e.Topic)
		}
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the search history",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		if historyMatch != "" {
			removed := a.mgr.ClearHistoryMatching(historyMatch)
			fmt.Printf("Removed %d entries matching %q\n", removed, historyMatch)
			return
		}
		if err := a.mgr.ClearCollection(knowledge.CollectionHistory); err != nil {
			fmt.Printf("Failed to clear history: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	RootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyClearCmd.Flags().StringVar(&historyMatch, "match", "", "Only clear topics matching this glob pattern")
}
