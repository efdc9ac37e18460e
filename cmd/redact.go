package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/redactly-cli/internal/api"
	"github.com/KaramelBytes/redactly-cli/internal/batch"
	"github.com/spf13/cobra"
)

var (
	redactMethod      string
	redactReplaceText string
	redactPaths       []string
	redactAll         bool
	redactEmail       string
	redactNotify      bool
)

var redactCmd = &cobra.Command{
	Use:   "redact",
	Short: "Redact selected documents and save the returned archive",
	Example: `  redactly redact --all --email alice@example.com
  redactly redact --path uploads/a.pdf --method replace --replace-text "[X]"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := batch.NewRedactionConfig(redactMethod, redactReplaceText)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		s := newSession()
		paths, err := s.selectDocuments(ctx, redactEmail, redactPaths, redactAll)
		if err != nil {
			return err
		}
		r := batch.NewRedactor(s.client, s.store, s.saver, logger)
		r.Email = s.cfg.Email
		if s.cfg.FetchConcurrency > 0 {
			r.Concurrency = s.cfg.FetchConcurrency
		}

		res, err := r.Redact(ctx, paths, rc, redactEmail)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(res.Skipped) > 0 {
			fmt.Fprintf(out, "⚠ Skipped %d document(s) without content: %s\n", len(res.Skipped), strings.Join(res.Skipped, ", "))
		}
		fmt.Fprintf(out, "✓ Redacted %d document(s) with %s\n", len(res.Included), rc.Method)
		fmt.Fprintf(out, "✓ Saved %s\n", res.ArtifactPath)

		if redactNotify {
			to := s.sessionEmail(redactEmail)
			if to == "" {
				return &api.ValidationError{Field: "email", Message: "an email is required to send the review notice"}
			}
			if err := s.client.SendEmail(ctx, api.EmailRequest{Email: to, Subject: defaultEmailSubject, Contents: defaultEmailContents}); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Review notice sent to %s\n", to)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redactCmd)
	redactCmd.Flags().StringVarP(&redactMethod, "method", "m", string(batch.MethodFullRedact), "redaction method: full_redact|obfuscate|replace")
	redactCmd.Flags().StringVar(&redactReplaceText, "replace-text", batch.DefaultReplaceText, "replacement text for the replace method")
	redactCmd.Flags().StringArrayVar(&redactPaths, "path", nil, "document path to select (repeatable)")
	redactCmd.Flags().BoolVar(&redactAll, "all", false, "select every listed document")
	redactCmd.Flags().StringVarP(&redactEmail, "email", "e", "", "filter the document list by owner email")
	redactCmd.Flags().BoolVar(&redactNotify, "notify", false, "email a review notice after a successful redaction")
}
