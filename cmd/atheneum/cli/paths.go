package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Manage learning paths",
}

var pathCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new learning path",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()
		a.mgr.CreateLearningPath(args[0])
	},
}

var pathListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learning paths and their articles",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		paths := a.mgr.Paths()
		if len(paths) == 0 {
			fmt.Println("No learning paths yet.")
			return
		}
		for _, p := range paths {
			fmt.Printf("%s (%d articles)\n", p.Name, len(p.Articles))
			for i, art := range p.Articles {
				mark := " "
				if art.Completed {
					mark = "x"
				}
				fmt.Printf("  %2d. [%s] %s\n", i+1, mark, art.Title)
			}
		}
	},
}

var pathAddCmd = &cobra.Command{
	Use:   "add [path] [article-title]",
	Short: "Append an article to a learning path",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()
		a.mgr.AddArticleToPath(args[0], args[1])
	},
}

var pathRemoveCmd = &cobra.Command{
	Use:   "remove [path] [article-title]",
	Short: "Remove an article from a learning path",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()
		a.mgr.RemoveArticleFromPath(args[0], args[1])
	},
}

var pathMoveCmd = &cobra.Command{
	Use:   "move [path] [from] [to]",
	Short: "Move an article to a new position (1-based)",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		from, err1 := strconv.Atoi(args[1])
		to, err2 := strconv.Atoi(args[2])
		if err1 != nil || err2 != nil {
			fmt.Println("Positions must be numbers")
			os.Exit(1)
		}

		a := newApp()
		defer a.Close()
		a.mgr.ReorderArticlesInPath(args[0], from-1, to-1)
	},
}

var pathDoneCmd = &cobra.Command{
	Use:   "done [path] [article-title]",
	Short: "Toggle an article's completed mark",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()
		a.mgr.ToggleArticleCompletion(args[0], args[1])
	},
}

var pathDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a learning path",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()
		a.mgr.DeleteLearningPath(args[0])
	},
}

func init() {
	RootCmd.AddCommand(pathCmd)
	pathCmd.AddCommand(pathCreateCmd)
	pathCmd.AddCommand(pathListCmd)
	pathCmd.AddCommand(pathAddCmd)
	pathCmd.AddCommand(pathRemoveCmd)
	pathCmd.AddCommand(pathMoveCmd)
	pathCmd.AddCommand(pathDoneCmd)
	pathCmd.AddCommand(pathDeleteCmd)
}
