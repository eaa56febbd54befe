package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/felixgeelhaar/atheneum/internal/settings"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the current settings",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		s := a.settings.Current()
		fmt.Printf("language        %s\n", s.Language)
		fmt.Printf("articleLength   %s\n", s.ArticleLength)
		fmt.Printf("imageStyle      %s\n", s.ImageStyle)
		fmt.Printf("autoLoadImages  %v\n", s.AutoLoadImages)
		fmt.Printf("synapseDensity  %d\n", s.SynapseDensity)
		fmt.Printf("accentColor     %s\n", s.AccentColor)
		fmt.Printf("fontFamily      %s\n", s.FontFamily)
		fmt.Printf("textSize        %s\n", s.TextSize)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [field] [value]",
	Short: "Change one settings field",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		field, value := args[0], args[1]

		a := newApp()
		defer a.Close()

		err := a.settings.Update(func(s *settings.AppSettings) {
			switch field {
			case "language":
				s.Language = value
			case "articleLength":
				s.ArticleLength = value
			case "imageStyle":
				s.ImageStyle = value
			case "autoLoadImages":
				s.AutoLoadImages = value == "true"
			case "synapseDensity":
				if n, err := strconv.Atoi(value); err == nil {
					s.SynapseDensity = n
				}
			case "accentColor":
				s.AccentColor = value
			case "fontFamily":
				s.FontFamily = value
			case "textSize":
				s.TextSize = value
			default:
				fmt.Printf("Unknown settings field: %s\n", field)
				os.Exit(1)
			}
		})
		if err != nil {
			fmt.Printf("Failed to save settings: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Settings saved: %s\n", field)
	},
}

func init() {
	RootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
