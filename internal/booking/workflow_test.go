package booking

import (
	"context"
	"io"
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

type fixedCredentials struct{}

func (fixedCredentials) Credential() (string, bool) { return "abc123", true }

func newTestClient(t *testing.T, handler http.Handler) *transport.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := transport.New(config.APIConfig{
		BaseURL:        server.URL,
		TimeoutSeconds: 5,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	})
	client.SetCredentialSource(fixedCredentials{})
	return client
}

func TestWorkflowSubmitSuccess(t *testing.T) {
	var gotBody string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bookings/", r.URL.Path)
		buf, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(buf)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 42, "lawyer_name": "Ada Okafor", "date": "2026-09-15", "time": "10:30", "status": "pending"}`))
	}))

	wf := NewWorkflow(client)
	wf.Open(3)
	require.NoError(t, wf.SetSchedule("2026-09-15", "10:30"))
	require.NoError(t, wf.SetMessage("Question about a lease dispute"))

	created, err := wf.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, created.ID)
	assert.Equal(t, Closed, wf.State())
	assert.JSONEq(t, `{"lawyer": 3, "date": "2026-09-15", "time": "10:30", "message": "Question about a lease dispute"}`, gotBody)
}

func TestWorkflowValidationBlocksSubmit(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	wf := NewWorkflow(client)

	tests := []struct {
		name  string
		date  string
		time  string
	}{
		{name: "missing schedule"},
		{name: "bad date", date: "15/09/2026", time: "10:30"},
		{name: "bad time", date: "2026-09-15", time: "10:30pm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf.Open(3)
			if tt.date != "" || tt.time != "" {
				_ = wf.SetSchedule(tt.date, tt.time)
			}
			_, err := wf.Submit(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
			assert.Equal(t, Drafting, wf.State(), "draft must survive a validation failure")
			assert.Zero(t, atomic.LoadInt32(&calls), "validation must not touch the network")
		})
	}
}

func TestWorkflowRejectionKeepsDraft(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"date": ["Lawyer is not available on this date."]}`))
	}))

	wf := NewWorkflow(client)
	wf.Open(3)
	require.NoError(t, wf.SetSchedule("2026-09-15", "10:30"))
	require.NoError(t, wf.SetMessage("hello"))

	_, err := wf.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, Drafting, wf.State())

	draft := wf.Draft()
	assert.Equal(t, "2026-09-15", draft.Date)
	assert.Equal(t, "hello", draft.Message)
}

func TestWorkflowSubmitWithoutDraft(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	wf := NewWorkflow(client)
	_, err := wf.Submit(context.Background())
	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestWorkflowDiscard(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	wf := NewWorkflow(client)
	wf.Open(3)
	require.NoError(t, wf.SetSchedule("2026-09-15", "10:30"))
	wf.Discard()

	assert.Equal(t, Closed, wf.State())
	assert.Equal(t, Draft{}, wf.Draft())
	assert.Zero(t, atomic.LoadInt32(&calls))
}
