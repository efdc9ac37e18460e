package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/redactly-cli/internal/api"
	"github.com/KaramelBytes/redactly-cli/internal/batch"
	"github.com/KaramelBytes/redactly-cli/internal/localfile"
	"github.com/spf13/cobra"
)

var uploadEmail string

var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Upload PDF/DOCX documents one by one, stopping at the first failure",
	Example: `  redactly upload report.pdf --email alice@example.com
  redactly upload 'scans/*.pdf'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := expandArgs(args)
		if len(paths) == 0 {
			return &api.ValidationError{Field: "files", Message: "Please select at least one PDF or DOCX file to process"}
		}
		files, err := localfile.LoadAll(paths)
		if err != nil {
			return err
		}
		s := newSession()
		email := s.sessionEmail(uploadEmail)
		u := batch.NewUploader(s.client, logger)
		u.AfterUpload = s.refreshHook(email)

		report, err := u.UploadAll(cmd.Context(), files, email)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range report.Uploaded {
			fmt.Fprintf(out, "✓ Uploaded %s\n", name)
		}
		fmt.Fprintf(out, "Library now lists %d document(s) for %s\n", len(s.store.Documents()), email)
		return nil
	},
}

// expandArgs resolves globs and literal paths, dropping duplicates.
func expandArgs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVarP(&uploadEmail, "email", "e", "", "owner email for the uploaded documents (default from config)")
}
