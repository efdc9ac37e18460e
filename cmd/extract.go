package cmd

import (
	"fmt"

	"github.com/KaramelBytes/redactly-cli/internal/batch"
	"github.com/spf13/cobra"
)

var (
	extractPaths []string
	extractAll   bool
	extractEmail string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured data from selected documents and save it as JSON",
	Example: `  redactly extract --all --email alice@example.com
  redactly extract --path uploads/report.pdf --path uploads/lab.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s := newSession()
		paths, err := s.selectDocuments(ctx, extractEmail, extractPaths, extractAll)
		if err != nil {
			return err
		}
		e := batch.NewExtractor(s.client, s.saver, logger)
		e.AfterExtract = s.refreshHook(extractEmail)

		res, err := e.ExtractStructured(ctx, paths)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range res.Results {
			if r.Error != "" {
				fmt.Fprintf(out, "⚠ %s: %s\n", r.Path, r.Error)
				continue
			}
			fmt.Fprintf(out, "- %s: %d field(s)\n", r.Path, len(r.StructuredData))
		}
		fmt.Fprintf(out, "✓ Structured data saved to %s\n", res.ArtifactPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringArrayVar(&extractPaths, "path", nil, "document path to select (repeatable)")
	extractCmd.Flags().BoolVar(&extractAll, "all", false, "select every listed document")
	extractCmd.Flags().StringVarP(&extractEmail, "email", "e", "", "filter the document list by owner email")
}
