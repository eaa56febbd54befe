package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/atheneum/internal/knowledge"
	"github.com/spf13/cobra"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Manage bookmarked topics",
}

var bookmarkToggleCmd = &cobra.Command{
	Use:   "toggle [topic]",
	Short: "Bookmark a topic, or remove an existing bookmark",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		if a.mgr.ToggleBookmark(args[0]) {
			fmt.Printf("Bookmarked %q\n", args[0])
		} else {
			fmt.Printf("Removed bookmark %q\n", args[0])
		}
	},
}

var bookmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarked topics, most recent first",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		marks := a.mgr.Bookmarks()
		if len(marks) == 0 {
			fmt.Println("No bookmarks yet.")
			return
		}
		for _, topic := range marks {
			fmt.Println(topic)
		}
	},
}

var bookmarkClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all bookmarks",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		if err := a.mgr.ClearCollection(knowledge.CollectionBookmarks); err != nil {
			fmt.Printf("Failed to clear bookmarks: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	RootCmd.AddCommand(bookmarkCmd)
	bookmarkCmd.AddCommand(bookmarkToggleCmd)
	bookmarkCmd.AddCommand(bookmarkListCmd)
	bookmarkCmd.AddCommand(bookmarkClearCmd)
}
