package localfile

import (
	"archive/zip"
	"bytes"
	"fmt"
)

type docxKind struct{}

func (docxKind) CanLoad(filename string) bool { return hasExt(filename, ".docx") }

func (docxKind) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// Inspect checks that the archive carries word/document.xml. Page count is not
// available without rendering.
func (docxKind) Inspect(data []byte) (int, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("open docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return 0, nil
		}
	}
	return 0, fmt.Errorf("document.xml not found in DOCX")
}
