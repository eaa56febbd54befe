package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/atheneum/internal/generate"
	"github.com/felixgeelhaar/atheneum/internal/ui/tui"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	ciMode       bool
	providerType string
	mediaType    string
	modelName    string
	interactive  bool
	noMedia      bool
	snapshotName string
	videoSection int
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "atheneum",
	Short: "AI-assisted topic encyclopedia",
	Long: `Atheneum generates encyclopedia articles about any topic and keeps a
personal knowledge store of history, bookmarks, learning paths, session
snapshots and generated images across visits.`,
}

var readCmd = &cobra.Command{
	Use:   "read [topic]",
	Short: "Generate and read an article about a topic",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runReadSession(args[0])
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(readCmd)
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().BoolVar(&ciMode, "ci", false, "CI mode: JSON log output, non-interactive")
	readCmd.Flags().StringVarP(&providerType, "provider", "p", "gemini", "Article provider (gemini, openai, ollama, anthropic, stub)")
	readCmd.Flags().StringVar(&mediaType, "media", "openai", "Media provider (openai, stub, none)")
	readCmd.Flags().StringVarP(&modelName, "model", "m", "", "Model name (default depends on provider)")
	readCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Start interactive TUI")
	readCmd.Flags().BoolVar(&noMedia, "no-media", false, "Skip image generation for this read")
	readCmd.Flags().StringVar(&snapshotName, "save-snapshot", "", "Save the session under this snapshot name")
	readCmd.Flags().IntVar(&videoSection, "video", 0, "Generate a video for this section (1-based)")
}

func runReadSession(topic string) {
	a := newApp()
	defer a.Close()

	articleSvc, err := articleService(a)
	if err != nil {
		a.obs.Log().Fatal().Err(err).Msg("Failed to initialize article provider")
	}
	mediaSvc, err := mediaService(a)
	if err != nil {
		a.obs.Log().Fatal().Err(err).Msg("Failed to initialize media provider")
	}

	reader := NewReader(a, articleSvc, mediaSvc, topic)
	reader.SnapshotName = snapshotName
	reader.VideoSection = videoSection

	if interactive {
		program := tea.NewProgram(tui.NewModel())
		reader.UI = tui.NewTUI(program)
		reader.Program = program

		go func() {
			_ = reader.Run(context.Background())
			program.Quit()
		}()

		if _, err := program.Run(); err != nil {
			fmt.Printf("Alas, there's been an error: %v", err)
			os.Exit(1)
		}
	} else {
		if err := reader.Run(context.Background()); err != nil {
			os.Exit(1)
		}
	}
}

// articleService builds the article provider selected by flags, pulling
// API keys from the encrypted configuration table.
func articleService(a *app) (generate.ArticleService, error) {
	switch providerType {
	case "gemini":
		return generate.NewGeminiService(a.configValue("gemini.api_key"), modelName)
	case "openai":
		return generate.NewOpenAIService(a.configValue("openai.api_key"), a.configValue("openai.base_url"), modelName)
	case "ollama":
		return generate.NewOllamaService(modelName)
	case "anthropic":
		return generate.NewAnthropicService(a.configValue("anthropic.api_key"), modelName)
	case "stub":
		return generate.NewStubService(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}
}

func mediaService(a *app) (generate.MediaService, error) {
	if noMedia {
		return nil, nil
	}
	switch mediaType {
	case "openai":
		return generate.NewOpenAIService(a.configValue("openai.api_key"), a.configValue("openai.base_url"), modelName)
	case "stub":
		return generate.NewStubService(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown media provider: %s", mediaType)
	}
}
