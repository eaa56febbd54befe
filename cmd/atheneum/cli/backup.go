package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import the whole knowledge store",
}

var backupExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write a backup file (.json or .yaml, dated name by default)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}

		a := newApp()
		defer a.Close()

		written, err := a.backup.ExportToFile(path)
		if err != nil {
			fmt.Printf("Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(written)
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Replace all local state with a backup file's contents",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		if err := a.backup.ImportFromFile(args[0]); err != nil {
			fmt.Printf("Import failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	RootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
}
