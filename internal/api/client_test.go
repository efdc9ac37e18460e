package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func testClient(url string) *Client {
	return NewClient(url, 2*time.Second, 3, 5*time.Millisecond, 20*time.Millisecond)
}

func TestListDocumentsEncodesEmailOnce(t *testing.T) {
	var gotRaw, gotEmail, gotAccept string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents" {
			http.NotFound(w, r)
			return
		}
		gotRaw = r.URL.RawQuery
		gotEmail = r.URL.Query().Get("email")
		gotAccept = r.Header.Get("Accept")
		_ = json.NewEncoder(w).Encode([]Document{{Path: "a.pdf", Email: "a+b@x.com"}})
	}))
	defer srv.Close()

	docs, err := testClient(srv.URL).ListDocuments(context.Background(), "a+b&c=d@x.com")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].Path != "a.pdf" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if gotEmail != "a+b&c=d@x.com" {
		t.Fatalf("server decoded email %q", gotEmail)
	}
	if gotRaw != "email=a%2Bb%26c%3Dd%40x.com" {
		t.Fatalf("unexpected raw query %q", gotRaw)
	}
	if gotAccept != "application/json" {
		t.Fatalf("expected Accept: application/json, got %q", gotAccept)
	}
}

func TestListDocumentsUnfilteredHasNoQuery(t *testing.T) {
	var gotRaw = "unset"
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.RawQuery
		_, _ = io.WriteString(w, "null")
	}))
	defer srv.Close()

	docs, err := testClient(srv.URL).ListDocuments(context.Background(), "")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if gotRaw != "" {
		t.Fatalf("expected no query, got %q", gotRaw)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", docs)
	}
}

func TestListDocumentsFailureUsesGenericMessage(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "db down"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ListDocuments(context.Background(), "")
	if KindOf(err) != KindFetchFailed {
		t.Fatalf("expected FetchFailed, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Failed to fetch documents" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetRetriesOn503(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	b, err := testClient(srv.URL).DocumentByHash(context.Background(), "abc")
	if err != nil {
		t.Fatalf("DocumentByHash: %v", err)
	}
	if string(b) != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", b)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestUploadFailureCarriesServerMessageAndRequestID(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/document/add" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("email") != "a@b.com" {
			t.Errorf("missing email field")
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "duplicate document"})
	}))
	defer srv.Close()

	err := testClient(srv.URL).UploadDocument(context.Background(), FilePart{Name: "a.pdf", Data: []byte("x")}, "a@b.com")
	if KindOf(err) != KindUploadFailed {
		t.Fatalf("expected UploadFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "duplicate document") || !strings.Contains(err.Error(), "request_id=") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestRedactSendsFieldsAndReturnsDisposition(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := len(r.MultipartForm.File["files"]); got != 2 {
			t.Errorf("expected 2 files, got %d", got)
		}
		if r.FormValue("method") != "replace" || r.FormValue("replace_text") != "[X]" {
			t.Errorf("unexpected fields: %v", r.MultipartForm.Value)
		}
		w.Header().Set("Content-Disposition", `attachment; filename="out.zip"`)
		_, _ = w.Write([]byte("PK"))
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Redact(context.Background(), RedactRequest{
		Files:       []FilePart{{Name: "a.pdf", Data: []byte("1")}, {Name: "b.pdf", Data: []byte("2")}},
		Method:      "replace",
		Email:       "a@b.com",
		ReplaceText: "[X]",
	})
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}
	if string(resp.Data) != "PK" || resp.ContentDisposition != `attachment; filename="out.zip"` {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestNetworkErrorOnRefusedConnection(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: cannot open local listener (%v)", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c := NewClient("http://"+addr, time.Second, 1, time.Millisecond, time.Millisecond)
	err = c.SendEmail(context.Background(), EmailRequest{Email: "a@b.com", Subject: "s", Contents: "c"})
	if KindOf(err) != KindNetwork {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestDescribeValidation(t *testing.T) {
	n := Describe(&ValidationError{Field: "files", Message: "select at least one file"})
	if n.Title != "No files selected" || n.Description != "select at least one file" {
		t.Fatalf("unexpected notification: %+v", n)
	}
}
