package cmd

import (
	"fmt"

	"github.com/nfrund/opin/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the server configuration",
}

// configCheckCmd loads .env and the environment exactly as the server does.
var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration the server would start with",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}
		describeConfig(cmd, cfg)
		return nil
	},
}

func describeConfig(cmd *cobra.Command, cfg config.Provider) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration OK")
	fmt.Fprintf(out, "  address:         %s\n", cfg.GetAddr())
	fmt.Fprintf(out, "  base url:        %s\n", cfg.GetAppBaseURL())
	fmt.Fprintf(out, "  auth provider:   %s\n", cfg.GetAuthProvider())
	fmt.Fprintf(out, "  session backend: %s\n", cfg.GetSessionBackend())
	fmt.Fprintf(out, "  email provider:  %s\n", cfg.GetEmailProvider())
	captcha := "off"
	if cfg.GetTurnstileSiteKey() != "" {
		captcha = "on"
	}
	fmt.Fprintf(out, "  captcha:         %s\n", captcha)
}

func init() {
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
