package localfile_test

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/redactly-cli/internal/localfile"
)

func writeDocx(t *testing.T, path string, withBody bool) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	name := "word/styles.xml"
	if withBody {
		name = "word/document.xml"
	}
	w, err := zw.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("<w:document/>")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDOCX(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "Report.DOCX")
	writeDocx(t, p, true)
	f, err := localfile.Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Name != "Report.DOCX" || f.ContentType != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Fatalf("unexpected file: %+v", f)
	}
	if part := f.Part(); part.Name != f.Name || len(part.Data) == 0 {
		t.Fatalf("unexpected part: %+v", part)
	}
}

func TestLoadDOCXWithoutBody(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "empty.docx")
	writeDocx(t, p, false)
	if _, err := localfile.Load(p); err == nil {
		t.Fatalf("expected error for docx without document.xml")
	}
}

func TestLoadRejectsUnsupported(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(p, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := localfile.Load(p)
	if !errors.Is(err, localfile.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if localfile.Supported("a.txt") || !localfile.Supported("a.pdf") {
		t.Fatalf("unexpected Supported result")
	}
}

func TestLoadRejectsCorruptPDF(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(p, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := localfile.Load(p); err == nil {
		t.Fatalf("expected error for corrupt pdf")
	}
}
