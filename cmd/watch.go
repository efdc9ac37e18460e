package cmd

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/redactly-cli/internal/api"
	"github.com/KaramelBytes/redactly-cli/internal/batch"
	"github.com/KaramelBytes/redactly-cli/internal/localfile"
	"github.com/KaramelBytes/redactly-cli/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchEmail   string
	watchQuietMs int
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Upload PDF/DOCX files as they land in a drop folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s := newSession()
		email := s.sessionEmail(watchEmail)
		if email == "" {
			return &api.ValidationError{Field: "email", Message: "use --email or set email in config"}
		}
		w, err := watch.New(s.cfg.WatchExtensions, logger)
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer w.Stop()
		events, err := w.Watch(ctx, args[0])
		if err != nil {
			return fmt.Errorf("watch %s: %w", args[0], err)
		}
		u := batch.NewUploader(s.client, logger)
		u.AfterUpload = s.refreshHook(email)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", args[0])
		for ev := range watch.Settle(ctx, events, time.Duration(watchQuietMs)*time.Millisecond) {
			f, err := localfile.Load(ev.Path)
			if err != nil {
				logger.Warn("skipping file", "path", ev.Path, "error", err)
				continue
			}
			if _, err := u.UploadAll(ctx, []*localfile.File{f}, email); err != nil {
				n := api.Describe(err)
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %s\n", n.Title, n.Description)
				continue
			}
			fmt.Fprintf(out, "✓ Uploaded %s\n", f.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchEmail, "email", "e", "", "owner email for uploaded documents (default from config)")
	watchCmd.Flags().IntVar(&watchQuietMs, "quiet-ms", 500, "wait this long after the last write before uploading")
}
