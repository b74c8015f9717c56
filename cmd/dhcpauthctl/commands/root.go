// Package commands implements the dhcpauthctl Cobra command tree.
//
// Unlike gobfdctl, which talks to a running daemon over ConnectRPC,
// dhcpauthctl has no RPC surface to connect to (the auth core exposes no
// network API of its own). Every subcommand instead loads the same
// configuration file the daemon would and re-builds the token store,
// replay counter, and Authenticator in-process for local diagnosis.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/dhcpauthd/internal/config"
)

var (
	// configPath is the path to the dhcpauthd YAML configuration file.
	configPath string

	// outputFormat controls the output format for commands that print
	// structured data (table or json).
	outputFormat string

	// cfg holds the configuration loaded by PersistentPreRunE.
	cfg *config.Config
)

// rootCmd is the top-level cobra command for dhcpauthctl.
var rootCmd = &cobra.Command{
	Use:   "dhcpauthctl",
	Short: "Diagnostic CLI for the dhcpauthd authentication core",
	Long:  "dhcpauthctl inspects dhcpauthd configuration and exercises Validate/Encode in-process for local diagnosis.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to dhcpauthd configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "output format: table, json")

	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
