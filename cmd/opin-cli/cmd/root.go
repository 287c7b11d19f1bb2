package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "opin-cli",
	Short: "Opin CLI tool",
	Long: `Opin CLI is a command-line companion for the Opin server.

Available commands:
  routes          List every route with the guard that protects it
  confirm-link    Build an email confirmation link by hand
  config check    Validate the environment the server would start with

Use "opin-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
