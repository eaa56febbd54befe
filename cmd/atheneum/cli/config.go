package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/atheneum/internal/credential"
	"github.com/spf13/cobra"
)

var revealSecrets bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage provider configuration",
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value (API keys are encrypted at rest)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		a := newApp()
		defer a.Close()

		if isSecretKey(key) {
			encrypted, err := a.creds.Encrypt(value)
			if err != nil {
				fmt.Printf("Failed to encrypt credential: %v\n", err)
				os.Exit(1)
			}
			value = encrypted
		}

		if err := a.store.SetConfig(key, value); err != nil {
			fmt.Printf("Failed to set config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration saved: %s\n", key)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		a := newApp()
		defer a.Close()

		val := a.configValue(key)
		switch {
		case val == "":
			fmt.Println("(not set)")
		case isSecretKey(key) && !revealSecrets:
			fmt.Println(credential.MaskSecret(val))
		default:
			fmt.Println(val)
		}
	},
}

// isSecretKey reports whether a configuration key holds a credential.
func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key")
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configGetCmd.Flags().BoolVar(&revealSecrets, "reveal", false, "Print credentials unmasked")
}
