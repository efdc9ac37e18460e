package api

// Document is a server-tracked uploaded file record.
type Document struct {
	Path      string  `json:"path"`
	Email     string  `json:"email"`
	Hash      *string `json:"hash"`
	Filename  string  `json:"filename"`
	Processed bool    `json:"processed"`
}

// HasContent reports whether the document is content-addressed and can be fetched by hash.
func (d Document) HasContent() bool { return d.Hash != nil && *d.Hash != "" }

// StructuredResult is one entry of a structured extraction response.
type StructuredResult struct {
	Path           string         `json:"path"`
	Filename       string         `json:"filename"`
	Email          string         `json:"email"`
	Hash           *string        `json:"hash"`
	StructuredData map[string]any `json:"structured_data"`
	Error          string         `json:"error,omitempty"`
}

type structuredRequest struct {
	DocumentPaths []string `json:"document_paths"`
}

// FilePart is a named file sent as one multipart part.
type FilePart struct {
	Name        string
	ContentType string
	Data        []byte
}

// RedactRequest carries the multipart fields of POST /redact.
type RedactRequest struct {
	Files       []FilePart
	Method      string
	Email       string
	ReplaceText string
}

// RedactResponse is the binary body of a successful redaction plus the headers
// needed to name it.
type RedactResponse struct {
	Data               []byte
	ContentType        string
	ContentDisposition string
	RequestID          string
}

// EmailRequest is the JSON body of POST /email/send.
type EmailRequest struct {
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Contents string `json:"contents"`
}
