package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/redactly-cli/internal/api"
	"github.com/spf13/cobra"
)

const (
	defaultEmailSubject  = "Verify Access to Medical Records"
	defaultEmailContents = "Kindly review and verify the redacted document before it is shared for research."
)

var (
	emailTo       string
	emailSubject  string
	emailContents string
)

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Send a review notice through the document server",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession()
		to := strings.TrimSpace(s.sessionEmail(emailTo))
		if to == "" {
			return &api.ValidationError{Field: "email", Message: "use --to or set email in config"}
		}
		if err := s.client.SendEmail(cmd.Context(), api.EmailRequest{Email: to, Subject: emailSubject, Contents: emailContents}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Email sent to %s\n", to)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)
	emailCmd.Flags().StringVar(&emailTo, "to", "", "recipient (default from config)")
	emailCmd.Flags().StringVar(&emailSubject, "subject", defaultEmailSubject, "subject line")
	emailCmd.Flags().StringVar(&emailContents, "contents", defaultEmailContents, "message body")
}
