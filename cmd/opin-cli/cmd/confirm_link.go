package cmd

import (
	"fmt"

	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/domain"
	"github.com/spf13/cobra"
)

var (
	linkBaseURL string
	linkType    string
	linkNext    string
)

// confirmLinkCmd builds the link an email would carry, for support work and
// for testing mail templates.
var confirmLinkCmd = &cobra.Command{
	Use:   "confirm-link <token-hash>",
	Short: "Print the confirmation link for a token hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !domain.OTPType(linkType).Valid() {
			return fmt.Errorf("unknown link type %q", linkType)
		}
		link := authgate.ConfirmURL(linkBaseURL, args[0], linkType, linkNext)
		fmt.Fprintln(cmd.OutOrStdout(), link)
		fmt.Fprintf(cmd.OutOrStdout(), "lands on: %s\n", authgate.ConfirmDestination(linkType, linkNext))
		return nil
	},
}

func init() {
	confirmLinkCmd.Flags().StringVar(&linkBaseURL, "base-url", "http://localhost:8080", "Public base URL of the app")
	confirmLinkCmd.Flags().StringVarP(&linkType, "type", "t", "signup", "Link type (signup, recovery, invite, magiclink, email_change, email)")
	confirmLinkCmd.Flags().StringVar(&linkNext, "next", "", "Path to continue to after confirming")
	rootCmd.AddCommand(confirmLinkCmd)
}
