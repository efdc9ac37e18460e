// Package localfile loads documents from disk for upload.
package localfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/redactly-cli/internal/api"
)

// File is a local document ready to be sent to the server.
type File struct {
	Name        string
	Path        string
	ContentType string
	Data        []byte
	// Pages is the PDF page count; 0 when unknown.
	Pages int
}

// Part converts f into a multipart file part.
func (f *File) Part() api.FilePart {
	return api.FilePart{Name: f.Name, ContentType: f.ContentType, Data: f.Data}
}

// Kind recognises and inspects one document format.
type Kind interface {
	CanLoad(filename string) bool
	ContentType() string
	Inspect(data []byte) (pages int, err error)
}

var registry []Kind

// Register adds a document kind to the registry.
func Register(k Kind) {
	registry = append(registry, k)
}

// ErrUnsupported indicates a format the server does not accept.
var ErrUnsupported = errors.New("unsupported document format")

// Supported reports whether filename has an accepted extension.
func Supported(filename string) bool {
	return kindFor(filename) != nil
}

// Load reads path and inspects it according to its kind.
func Load(path string) (*File, error) {
	k := kindFor(path)
	if k == nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	pages, err := k.Inspect(data)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", filepath.Base(path), err)
	}
	return &File{
		Name:        filepath.Base(path),
		Path:        path,
		ContentType: k.ContentType(),
		Data:        data,
		Pages:       pages,
	}, nil
}

// LoadAll loads every path, stopping at the first failure.
func LoadAll(paths []string) ([]*File, error) {
	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func kindFor(filename string) Kind {
	for _, k := range registry {
		if k.CanLoad(filename) {
			return k
		}
	}
	return nil
}

func hasExt(filename, ext string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ext)
}

func init() {
	Register(pdfKind{})
	Register(docxKind{})
}
