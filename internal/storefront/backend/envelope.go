package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// envelope holds the fields the backend wraps around every payload.
type envelope struct {
	Success *bool           `json:"success"`
	Message json.RawMessage `json:"message"`
}

// Pagination is the optional paging block attached to list responses.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page,omitempty"`
	Size  int `json:"size,omitempty"`
}

// ListParams is the request body accepted by every list endpoint.
type ListParams struct {
	Page     int    `json:"page"`
	Size     int    `json:"size"`
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
}

// Page is the generic list response shape.
type Page[T any] struct {
	Data       []T         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Total returns the reported total or the number of items when the backend omits it.
func (p Page[T]) Total() int {
	if p.Pagination != nil && p.Pagination.Total > 0 {
		return p.Pagination.Total
	}
	return len(p.Data)
}

// TotalPages returns ceil(total/size), never less than one.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(size)))
}

func decodeResponse(resp *response, out any) error {
	body := bytes.TrimSpace(resp.body)
	if len(body) == 0 {
		return nil
	}

	if body[0] == '{' {
		var env envelope
		if err := json.Unmarshal(body, &env); err == nil && env.Success != nil && !*env.Success {
			return &BusinessError{Message: rawMessageText(env.Message)}
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

// envelopeMessage extracts a human readable message from an error body.
func envelopeMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if body[0] != '{' {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 {
			text = text[:200]
		}
		return text
	}
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := rawMessageText(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}

// rawMessageText returns the message when it is a JSON string. Some endpoints put
// the payload itself under "message", which is not presentable text.
func rawMessageText(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// ValidID reports whether id is safe to splice into an endpoint path.
func ValidID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
