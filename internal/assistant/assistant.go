package assistant

import (
	"context"
	"strings"

	apperrors "github.com/consultlaw/consultlaw-go/pkg/errors"
)

// Transport is the slice of the HTTP client the assistant needs. Triage
// is public so prospective clients can use it before registering.
type Transport interface {
	PostPublic(ctx context.Context, path string, body, out any) error
}

// TriageRequest is the user's issue description
type TriageRequest struct {
	Description string `json:"description"`
}

// TriageResult is the backend's routing suggestion for an issue
type TriageResult struct {
	Category   string   `json:"category"`
	Suggestion string   `json:"suggestion"`
	Keywords   []string `json:"keywords,omitempty"`
}

// Assistant submits legal issue descriptions for triage.
type Assistant struct {
	transport Transport
}

// New creates an assistant client
func New(transport Transport) *Assistant {
	return &Assistant{transport: transport}
}

// Triage sends an issue description and returns the suggested routing.
// Empty descriptions are rejected locally.
func (a *Assistant) Triage(ctx context.Context, description string) (*TriageResult, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.InvalidInputError("description", "must not be empty")
	}

	var result TriageResult
	if err := a.transport.PostPublic(ctx, "/assistant/triage/", TriageRequest{Description: description}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
