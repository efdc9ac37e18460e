package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractFilename(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"quoted with space", `attachment; filename="a b.zip"`, "a b.zip"},
		{"empty header", "", "fallback.zip"},
		{"no filename param", "attachment", "fallback.zip"},
		{"unquoted", "attachment; filename=out.zip", "out.zip"},
		{"followed by param", `attachment; filename="out.zip"; size=10`, "out.zip"},
		{"single quoted", "attachment; filename='x.zip'", "x.zip"},
		{"extended form only", "attachment; filename*=UTF-8''x.zip", "fallback.zip"},
		{"empty value", `attachment; filename=""`, "fallback.zip"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractFilename(tc.header, "fallback.zip"); got != tc.want {
				t.Fatalf("ExtractFilename(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestSaveBlobWritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	s := NewSaver(dir)
	path, err := s.SaveBlob(&Artifact{Filename: "../../out.zip", Data: []byte("PK")})
	if err != nil {
		t.Fatalf("SaveBlob: %v", err)
	}
	if path != filepath.Join(dir, "out.zip") {
		t.Fatalf("unexpected path %s", path)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the artifact in dir, got %d entries", len(entries))
	}
}

func TestSaveBlobCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory in the way makes the final rename fail.
	if err := os.MkdirAll(filepath.Join(dir, "out.zip", "x"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSaver(dir).SaveBlob(&Artifact{Filename: "out.zip", Data: []byte("PK")}); err == nil {
		t.Fatalf("expected error")
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file leaked: %s", e.Name())
		}
	}
}

func TestSaveJSONIndentsTwoSpaces(t *testing.T) {
	dir := t.TempDir()
	path, err := NewSaver(dir).SaveJSON([]map[string]any{{"path": "a"}}, "structured_data_1.json")
	if err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "\n  {\n    \"path\": \"a\"") {
		t.Fatalf("unexpected indentation:\n%s", b)
	}
	var v []map[string]any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
}
