// Package artifact turns successful batch responses into files on disk.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Artifact is a named blob ready to be saved.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Saver writes artifacts into Dir.
type Saver struct {
	Dir string
}

// NewSaver returns a Saver rooted at dir ("" means the working directory).
func NewSaver(dir string) *Saver {
	if dir == "" {
		dir = "."
	}
	return &Saver{Dir: dir}
}

// SaveBlob writes a through a temporary file that is renamed into place.
// The temporary file never outlives the call. It returns the final path.
func (s *Saver) SaveBlob(a *Artifact) (path string, err error) {
	if a == nil {
		return "", errors.New("artifact is nil")
	}
	name := safeName(a.Filename)
	if name == "" {
		return "", fmt.Errorf("invalid artifact filename %q", a.Filename)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure output dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()
	if _, err = tmp.Write(a.Data); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	path = filepath.Join(s.Dir, name)
	if err = os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("atomic rename: %w", err)
	}
	return path, nil
}

// SaveJSON marshals v with 2-space indentation and saves it as filename.
func (s *Saver) SaveJSON(v any, filename string) (string, error) {
	a, err := JSON(v, filename)
	if err != nil {
		return "", err
	}
	return s.SaveBlob(a)
}

// JSON builds a JSON artifact without writing it.
func JSON(v any, filename string) (*Artifact, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return &Artifact{Filename: filename, ContentType: "application/json", Data: b}, nil
}

// safeName keeps only the base name so a server-suggested name cannot escape Dir.
func safeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == ".." {
		return ""
	}
	return name
}
