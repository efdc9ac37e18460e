package artifact

import (
	"regexp"
	"strings"
)

// Fallback names used when the server does not suggest one.
const (
	RedactedArchiveName = "redacted_files.zip"
)

// filenameParam matches a filename= parameter, optionally quoted, ending at ';' or end of input.
// The extended filename*= form is not recognised.
var filenameParam = regexp.MustCompile(`(?i)(?:^|[;\s])filename=("[^"]*"|'[^']*'|[^;\n]*)`)

// ExtractFilename returns the filename suggested by a Content-Disposition header,
// or fallback when the header is empty or carries no usable filename parameter.
func ExtractFilename(contentDisposition, fallback string) string {
	if contentDisposition == "" {
		return fallback
	}
	m := filenameParam.FindStringSubmatch(contentDisposition)
	if m == nil {
		return fallback
	}
	name := strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "").Replace(m[1]))
	if name == "" {
		return fallback
	}
	return name
}
