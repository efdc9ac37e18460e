package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/KaramelBytes/redactly-cli/internal/api"
	"github.com/spf13/cobra"
)

var (
	docsEmail       string
	docsJSON        bool
	docsUnprocessed bool
)

var docsCmd = &cobra.Command{
	Use:     "docs",
	Aliases: []string{"list"},
	Short:   "List documents in the server library",
	Example: `  redactly docs
  redactly docs --email alice@example.com --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession()
		docs, err := s.store.Fetch(cmd.Context(), docsEmail)
		if err != nil {
			return err
		}
		if docsUnprocessed {
			kept := docs[:0]
			for _, d := range docs {
				if !d.Processed {
					kept = append(kept, d)
				}
			}
			docs = kept
		}
		out := cmd.OutOrStdout()
		if docsJSON {
			b, err := json.MarshalIndent(docs, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal documents: %w", err)
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if len(docs) == 0 {
			fmt.Fprintln(out, "(no documents)")
			return nil
		}
		for _, d := range docs {
			fmt.Fprintf(out, "- %s: %s <%s> [%s]\n", d.Path, d.Filename, d.Email, docStatus(d))
		}
		return nil
	},
}

func docStatus(d api.Document) string {
	switch {
	case d.Processed:
		return "processed"
	case d.HasContent():
		return "ready"
	default:
		return "pending"
	}
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.Flags().StringVarP(&docsEmail, "email", "e", "", "only list documents owned by this email")
	docsCmd.Flags().BoolVar(&docsJSON, "json", false, "print the list as JSON")
	docsCmd.Flags().BoolVar(&docsUnprocessed, "unprocessed", false, "only list documents not yet processed")
}
