package assistant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/consultlaw/consultlaw-go/config"
	"github.com/consultlaw/consultlaw-go/internal/transport"
	apperrors "github.com/consultlaw/consultlaw-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriage(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/assistant/triage/", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"category": "housing", "suggestion": "Consult a tenancy lawyer", "keywords": ["lease", "eviction"]}`))
	}))
	defer server.Close()

	client := transport.New(config.APIConfig{
		BaseURL: server.URL, TimeoutSeconds: 5, RateLimitRPS: 100, RateLimitBurst: 100,
	})
	a := New(client)

	result, err := a.Triage(context.Background(), "My landlord is trying to evict me")
	require.NoError(t, err)
	assert.Equal(t, "housing", result.Category)
	assert.Contains(t, result.Keywords, "lease")
	assert.Empty(t, gotAuth, "triage is available without a session")
}

func TestTriageRejectsEmptyDescription(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := transport.New(config.APIConfig{
		BaseURL: server.URL, TimeoutSeconds: 5, RateLimitRPS: 100, RateLimitBurst: 100,
	})
	a := New(client)

	_, err := a.Triage(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Zero(t, atomic.LoadInt32(&calls))
}
