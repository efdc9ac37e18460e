package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is where the document server listens in a local deployment.
const DefaultBaseURL = "http://localhost:5000"

// Fallback messages used when the server does not provide an error field.
const (
	msgFetchDocuments = "Failed to fetch documents"
	msgFetchContent   = "Failed to fetch document content"
	msgUpload         = "Failed to upload file"
	msgExtract        = "Failed to extract structured data"
	msgRedact         = "Failed to process files"
	msgEmail          = "Failed to send email"
)

// Client talks to the document server.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	log              *slog.Logger
}

// NewDefaultClient returns a client for baseURL with default timeouts and retry strategy.
func NewDefaultClient(baseURL string) *Client {
	return NewClient(baseURL, 60*time.Second, 3, 500*time.Millisecond, 4*time.Second)
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
// Retries only apply to idempotent GET requests.
func NewClient(baseURL string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient:       &http.Client{Timeout: httpTimeout},
		baseURL:          strings.TrimRight(baseURL, "/"),
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
		log:              slog.Default(),
	}
}

// WithLogger sets the logger used for request tracing and returns the client.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.log = l
	}
	return c
}

// BaseURL returns the server root this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// ListDocuments fetches the document list, optionally filtered by owner email.
func (c *Client) ListDocuments(ctx context.Context, email string) ([]Document, error) {
	path := "/documents"
	if email != "" {
		q := url.Values{}
		q.Set("email", email)
		path += "?" + q.Encode()
	}
	resp, err := c.get(ctx, "list documents", path, "application/json", KindFetchFailed, msgFetchDocuments)
	if err != nil {
		// No structured error body is guaranteed on this endpoint.
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.Message = msgFetchDocuments
		}
		return nil, err
	}
	defer resp.Body.Close()
	var docs []Document
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// DocumentByHash downloads the raw bytes of a content-addressed document.
func (c *Client) DocumentByHash(ctx context.Context, hash string) ([]byte, error) {
	if hash == "" {
		return nil, &ValidationError{Field: "hash", Message: "hash cannot be empty"}
	}
	resp, err := c.get(ctx, "fetch document", "/document/hash/"+url.PathEscape(hash), "application/pdf, application/octet-stream", KindFetchFailed, msgFetchContent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "fetch document", Err: err}
	}
	return b, nil
}

// UploadDocument submits one file together with the owner email.
func (c *Client) UploadDocument(ctx context.Context, file FilePart, email string) error {
	body, contentType, err := buildMultipart([]FilePart{file}, "file", map[string]string{"email": email})
	if err != nil {
		return err
	}
	resp, err := c.post(ctx, "upload document", "/document/add", contentType, body, KindUploadFailed, msgUpload)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// Structured requests structured extraction for the given document paths.
func (c *Client) Structured(ctx context.Context, paths []string) ([]StructuredResult, error) {
	payload, err := json.Marshal(structuredRequest{DocumentPaths: paths})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.post(ctx, "structured extraction", "/structured", "application/json", payload, KindExtractionFailed, msgExtract)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out []StructuredResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode structured results: %w", err)
	}
	if out == nil {
		out = []StructuredResult{}
	}
	return out, nil
}

// Redact sends all files in one multipart request and returns the binary archive.
func (c *Client) Redact(ctx context.Context, req RedactRequest) (*RedactResponse, error) {
	fields := map[string]string{"method": req.Method, "email": req.Email}
	if req.ReplaceText != "" {
		fields["replace_text"] = req.ReplaceText
	}
	body, contentType, err := buildMultipart(req.Files, "files", fields)
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, "redact", "/redact", contentType, body, KindRedactionFailed, msgRedact)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "redact", Err: err}
	}
	return &RedactResponse{
		Data:               data,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		RequestID:          resp.Request.Header.Get("X-Request-Id"),
	}, nil
}

// SendEmail asks the server to send a notification email.
func (c *Client) SendEmail(ctx context.Context, req EmailRequest) error {
	if req.Email == "" {
		return &ValidationError{Field: "email", Message: "recipient email is required"}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.post(ctx, "send email", "/email/send", "application/json", payload, KindEmailFailed, msgEmail)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	req.Header.Set("User-Agent", "redactly-cli")
	return req, nil
}

// get issues an idempotent GET, retrying 429/5xx and transient network errors.
// The caller owns the returned body.
func (c *Client) get(ctx context.Context, op, path, accept string, kind Kind, fallback string) (*http.Response, error) {
	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, &NetworkError{Op: op, Err: ctx.Err()}
		}
		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", accept)
		reqID := req.Header.Get("X-Request-Id")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &NetworkError{Op: op, Err: err}
			if isRetryableNetErr(err) && attempt < c.retryMaxAttempts {
				c.log.Debug("retrying after network error", "op", op, "attempt", attempt, "err", err)
				if err := sleepCtx(ctx, c.capDelay(withJitter(backoff))); err != nil {
					return nil, &NetworkError{Op: op, Err: err}
				}
				backoff *= 2
				continue
			}
			return nil, lastErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.log.Debug("request ok", "op", op, "status", resp.StatusCode, "request_id", reqID)
			return resp, nil
		}
		apiErr := decodeAPIError(resp, kind, fallback, reqID)
		lastErr = apiErr
		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < c.retryMaxAttempts {
			wait := c.capDelay(withJitter(backoff))
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := parseRetryAfterSeconds(ra); err == nil && secs >= 0 {
					wait = c.capDelay(time.Duration(secs) * time.Second)
				}
			}
			c.log.Debug("retrying after server error", "op", op, "status", resp.StatusCode, "attempt", attempt, "wait", wait)
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, &NetworkError{Op: op, Err: err}
			}
			backoff *= 2
			continue
		}
		break
	}
	return nil, lastErr
}

// post issues a single non-idempotent POST. The caller owns the returned body.
func (c *Client) post(ctx context.Context, op, path, contentType string, body []byte, kind Kind, fallback string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	reqID := req.Header.Get("X-Request-Id")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp, kind, fallback, reqID)
	}
	c.log.Debug("request ok", "op", op, "status", resp.StatusCode, "request_id", reqID)
	return resp, nil
}

// decodeAPIError consumes and closes the body of a failed response.
func decodeAPIError(resp *http.Response, kind Kind, fallback, reqID string) *APIError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	apiErr := &APIError{Kind: kind, StatusCode: resp.StatusCode, Raw: raw, RequestID: reqID}
	switch v := raw["error"].(type) {
	case string:
		apiErr.Message = v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			apiErr.Message = msg
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fallback
	}
	return apiErr
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func buildMultipart(files []FilePart, fileField string, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileField, quoteEscaper.Replace(f.Name)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write file part: %w", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func (c *Client) capDelay(d time.Duration) time.Duration {
	if c.retryMaxDelay > 0 && d > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableNetErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfterSeconds interprets a Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
