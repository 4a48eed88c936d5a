package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/consultlaw/consultlaw-go/pkg/errors"
)

// APIError carries the status code and decoded message of a non-2xx
// response. Fields holds per-field validation messages when the backend
// rejects a payload field by field.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, msgs := range e.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
		}
		return fmt.Sprintf("api error %d: %s", e.StatusCode, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the shared sentinel errors so callers
// can branch with errors.Is without inspecting status codes.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return apperrors.ErrAccessDenied
	case e.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return apperrors.ErrConflict
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return apperrors.ErrInvalidInput
	default:
		return apperrors.ErrServer
	}
}

// parseAPIError decodes the error body the backend returns. It accepts a
// {"detail": "..."} or {"error": "..."} envelope, a per-field message map,
// or an unstructured body, in that order.
func parseAPIError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}

	var envelope struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Detail != "" {
			apiErr.Message = envelope.Detail
			return apiErr
		}
		if envelope.Error != "" {
			apiErr.Message = envelope.Error
			return apiErr
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
		parsed := make(map[string][]string, len(fields))
		for name, raw := range fields {
			var msgs []string
			if err := json.Unmarshal(raw, &msgs); err == nil {
				parsed[name] = msgs
				continue
			}
			var msg string
			if err := json.Unmarshal(raw, &msg); err == nil {
				parsed[name] = []string{msg}
			}
		}
		if len(parsed) > 0 {
			apiErr.Fields = parsed
			return apiErr
		}
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}
