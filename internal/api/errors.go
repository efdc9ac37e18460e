package api

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure.
type Kind string

const (
	KindUnknown           Kind = ""
	KindValidation        Kind = "ValidationError"
	KindFetchFailed       Kind = "FetchFailed"
	KindUploadFailed      Kind = "UploadFailed"
	KindExtractionFailed  Kind = "ExtractionFailed"
	KindRedactionFailed   Kind = "RedactionFailed"
	KindEmailFailed       Kind = "EmailFailed"
	KindNetwork           Kind = "NetworkError"
	KindAlreadyInProgress Kind = "AlreadyInProgress"
)

// APIError represents a non-2xx response from the document server.
type APIError struct {
	Kind       Kind           `json:"-"`
	StatusCode int            `json:"-"`
	Message    string         `json:"error,omitempty"`
	Raw        map[string]any `json:"-"`
	RequestID  string         `json:"-"`
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: status=%d request_id=%s message=%s", e.Kind, e.StatusCode, e.RequestID, e.Message)
	}
	return fmt.Sprintf("%s: status=%d message=%s", e.Kind, e.StatusCode, e.Message)
}

// ValidationError reports missing local input. No request is sent when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NetworkError wraps a transport-level failure (DNS, refused connection, timeout).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return "network error"
	}
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AlreadyInProgressError is returned when an operation is invoked while a previous
// invocation of the same kind is still running.
type AlreadyInProgressError struct {
	Operation string
}

func (e *AlreadyInProgressError) Error() string {
	return fmt.Sprintf("%s already in progress", e.Operation)
}

// KindOf returns the classification of err, looking through wrapped errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return KindValidation
	}
	var nErr *NetworkError
	if errors.As(err, &nErr) {
		return KindNetwork
	}
	var ipErr *AlreadyInProgressError
	if errors.As(err, &ipErr) {
		return KindAlreadyInProgress
	}
	return KindUnknown
}

// Notification is the user-facing rendering of an operation failure.
type Notification struct {
	Title       string
	Description string
}

// Notifier is implemented by errors that render their own notification.
type Notifier interface {
	Notification() Notification
}

// Describe turns err into a transient notification.
func Describe(err error) Notification {
	var n Notifier
	if errors.As(err, &n) {
		return n.Notification()
	}
	var vErr *ValidationError
	var apiErr *APIError
	var ipErr *AlreadyInProgressError
	switch {
	case errors.As(err, &vErr):
		title := "Missing input"
		switch vErr.Field {
		case "files":
			title = "No files selected"
		case "paths":
			title = "No documents selected"
		case "email":
			title = "No email provided"
		}
		return Notification{Title: title, Description: vErr.Message}
	case errors.As(err, &apiErr):
		return Notification{Title: "Error", Description: apiErr.Message}
	case errors.As(err, &ipErr):
		return Notification{Title: "Busy", Description: ipErr.Error()}
	case KindOf(err) == KindNetwork:
		return Notification{Title: "Network error", Description: err.Error()}
	case err != nil:
		return Notification{Title: "Error", Description: err.Error()}
	}
	return Notification{Title: "Error", Description: "An unexpected error occurred"}
}
