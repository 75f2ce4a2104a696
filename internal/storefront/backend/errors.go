package backend

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the backend rejects the session token (HTTP 401).
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrUnavailable wraps transport failures and calls refused while the circuit is open.
	ErrUnavailable = errors.New("backend: unavailable")
	// ErrNotFound is returned for HTTP 404 responses.
	ErrNotFound = errors.New("backend: not found")
)

// BusinessError is a failure the backend reports with success=false in an otherwise
// successful response, e.g. a duplicate review or insufficient stock.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	if e.Message == "" {
		return "backend: request rejected"
	}
	return "backend: " + e.Message
}

// HTTPError describes a non-2xx response that is not covered by a sentinel error.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: http %d", e.Status)
	}
	return fmt.Sprintf("backend: http %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto sentinel errors.
func (e *HTTPError) Unwrap() error {
	if e.Status == 404 {
		return ErrNotFound
	}
	return nil
}

// ValidationError collects field problems found before a request is sent.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a problem for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// Empty reports whether no problems were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns nil when nothing was recorded so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// UserMessage picks the message to show a shopper for err, falling back when the
// error carries nothing presentable.
func UserMessage(err error, fallback string) string {
	var business *BusinessError
	if errors.As(err, &business) && strings.TrimSpace(business.Message) != "" {
		return business.Message
	}
	var validation *ValidationError
	if errors.As(err, &validation) && !validation.Empty() {
		keys := make([]string, 0, len(validation.Fields))
		for k := range validation.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return validation.Fields[keys[0]]
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Status < 500 && strings.TrimSpace(httpErr.Message) != "" {
		return httpErr.Message
	}
	return fallback
}
