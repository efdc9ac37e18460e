package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KaramelBytes/redactly-cli/internal/api"
	"github.com/KaramelBytes/redactly-cli/internal/localfile"
)

// UploadClient submits one document.
type UploadClient interface {
	UploadDocument(ctx context.Context, file api.FilePart, email string) error
}

// UploadReport lists the files accepted by the server, in upload order.
type UploadReport struct {
	Uploaded []string
}

// UploadAbortedError reports the first failed upload. Files uploaded before it
// stay on the server.
type UploadAbortedError struct {
	File     string
	Index    int
	Total    int
	Uploaded []string
	Err      error
}

func (e *UploadAbortedError) Error() string {
	return fmt.Sprintf("upload of %s failed after %d of %d files: %v", e.File, len(e.Uploaded), e.Total, e.Err)
}

func (e *UploadAbortedError) Unwrap() error { return e.Err }

func (e *UploadAbortedError) Notification() api.Notification {
	desc := fmt.Sprintf("%s: %s", e.File, api.Describe(e.Err).Description)
	if len(e.Uploaded) > 0 {
		desc += fmt.Sprintf(" (already uploaded: %s)", strings.Join(e.Uploaded, ", "))
	}
	return api.Notification{Title: "Upload failed", Description: desc}
}

// Uploader sends local files one by one and stops at the first failure.
type Uploader struct {
	client UploadClient
	runner *Runner
	log    *slog.Logger

	// AfterUpload runs once every file has been accepted.
	AfterUpload Hook
}

func NewUploader(client UploadClient, log *slog.Logger) *Uploader {
	if log == nil {
		log = slog.Default()
	}
	return &Uploader{client: client, runner: NewRunner("upload", log), log: log}
}

// Uploading reports whether an upload sequence is in progress.
func (u *Uploader) Uploading() bool { return u.runner.Busy() }

// State returns the lifecycle state of the last upload sequence.
func (u *Uploader) State() State { return u.runner.State() }

// UploadAll uploads files sequentially with email as owner.
func (u *Uploader) UploadAll(ctx context.Context, files []*localfile.File, email string) (*UploadReport, error) {
	if len(files) == 0 {
		return nil, &api.ValidationError{Field: "files", Message: "Please select at least one PDF or DOCX file to process"}
	}
	if strings.TrimSpace(email) == "" {
		return nil, &api.ValidationError{Field: "email", Message: "an email address is required to upload documents"}
	}
	report := &UploadReport{}
	err := u.runner.Run(ctx, func(ctx context.Context) error {
		_, err := Sequential(ctx, files, func(ctx context.Context, i int, f *localfile.File) error {
			u.log.Info("uploading", "file", f.Name, "index", i+1, "total", len(files), "pages", f.Pages)
			if err := u.client.UploadDocument(ctx, f.Part(), email); err != nil {
				return &UploadAbortedError{
					File:     f.Name,
					Index:    i,
					Total:    len(files),
					Uploaded: append([]string(nil), report.Uploaded...),
					Err:      err,
				}
			}
			report.Uploaded = append(report.Uploaded, f.Name)
			return nil
		})
		return err
	})
	if err != nil {
		return report, err
	}
	runHook(ctx, u.log, "upload", u.AfterUpload)
	return report, nil
}
