package rentapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized matches any *APIError with status 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedResponse is returned when a JSON body was required and the
	// server sent something else.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrResponseTooLarge is returned when a body exceeds the read limit.
	ErrResponseTooLarge = errors.New("response too large")
)

// APIError is a completed request with a non-2xx status.
type APIError struct {
	Status int
	// Message is the server's "error" field, or the raw body text when the
	// response was not JSON.
	Message string
	Fields  FieldErrors
	// Raw is set when Message holds a non-JSON body.
	Raw bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// NetworkError means the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("call %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FieldErrors maps a form field to its validation messages.
type FieldErrors map[string][]string

// Summary renders one "field: message" line per message, fields sorted.
func (f FieldErrors) Summary() string {
	if len(f) == 0 {
		return ""
	}
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		for _, msg := range f[field] {
			lines = append(lines, field+": "+msg)
		}
	}
	return strings.Join(lines, "\n")
}
