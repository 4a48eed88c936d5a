package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/consultlaw/consultlaw-go/config"
	"github.com/consultlaw/consultlaw-go/internal/models"
	"github.com/consultlaw/consultlaw-go/internal/transport"
	"github.com/consultlaw/consultlaw-go/pkg/credstore"
	apperrors "github.com/consultlaw/consultlaw-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, handler http.Handler) (*Store, *transport.Client, *credstore.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := transport.New(config.APIConfig{
		BaseURL:        server.URL,
		TimeoutSeconds: 5,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	})
	creds, err := credstore.New(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)

	store := New(client, creds)
	client.SetCredentialSource(store)
	client.SetUnauthorizedHandler(store.HandleUnauthorized)
	return store, client, creds
}

func identityJSON() string {
	return `{"id": 7, "username": "jdoe", "email": "jdoe@example.com", "role": "client", "first_name": "Jane", "last_name": "Doe"}`
}

func TestLoginSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token": "abc123", "refresh": "r1", "user": ` + identityJSON() + `}`))
	})

	store, _, creds := newTestStore(t, mux)

	identity, err := store.Login(context.Background(), models.LoginInput{
		Email:    "jdoe@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "jdoe", identity.Username)
	assert.Equal(t, Authenticated, store.State())

	token, ok := store.Credential()
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)

	persisted, ok, err := creds.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", persisted)
}

func TestLoginFallsBackToAccessToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access": "acc456", "refresh": "r1", "user": ` + identityJSON() + `}`))
	})

	store, _, _ := newTestStore(t, mux)

	_, err := store.Login(context.Background(), models.LoginInput{
		Email:    "jdoe@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	token, ok := store.Credential()
	assert.True(t, ok)
	assert.Equal(t, "acc456", token)
}

func TestLoginRejectedLeavesNoState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Invalid credentials"}`))
	})

	store, _, creds := newTestStore(t, mux)

	_, err := store.Login(context.Background(), models.LoginInput{
		Email:    "jdoe@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	assert.Equal(t, Unauthenticated, store.State())

	_, ok := store.Credential()
	assert.False(t, ok)
	assert.Nil(t, store.Identity())

	_, persisted, err := creds.Load()
	require.NoError(t, err)
	assert.False(t, persisted)
}

func TestLoginValidatesInputWithoutNetwork(t *testing.T) {
	var calls int32
	store, _, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	_, err := store.Login(context.Background(), models.LoginInput{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestLoadRestoresPersistedSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer saved-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(identityJSON()))
	})

	store, _, creds := newTestStore(t, mux)
	require.NoError(t, creds.Save("saved-token"))

	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, Authenticated, store.State())
	require.NotNil(t, store.Identity())
	assert.Equal(t, "Jane Doe", store.Identity().FullName())
}

func TestLoadWithNoCredential(t *testing.T) {
	var calls int32
	store, _, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, Unauthenticated, store.State())
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestLoadClearsRejectedCredential(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Token invalid"}`))
	})

	store, _, creds := newTestStore(t, mux)
	require.NoError(t, creds.Save("revoked-token"))

	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, Unauthenticated, store.State())

	_, ok := store.Credential()
	assert.False(t, ok)

	_, persisted, err := creds.Load()
	require.NoError(t, err)
	assert.False(t, persisted, "rejected credential must be cleared from disk")
}

func TestLoadKeepsCredentialOnTransientFailure(t *testing.T) {
	var attempts int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me/", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(identityJSON()))
	})

	store, _, creds := newTestStore(t, mux)
	require.NoError(t, creds.Save("saved-token"))

	err := store.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, Unauthenticated, store.State())

	// The credential survives in memory and on disk while the state
	// reports Unauthenticated, so a retry can finish the restore.
	token, held := store.Credential()
	assert.True(t, held)
	assert.Equal(t, "saved-token", token)

	_, persisted, loadErr := creds.Load()
	require.NoError(t, loadErr)
	assert.True(t, persisted, "transient failures must not destroy the credential")

	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, Authenticated, store.State())
	require.NotNil(t, store.Identity())
}

func TestHandleUnauthorizedClearsMatchingCredentialOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token": "abc123", "user": ` + identityJSON() + `}`))
	})

	store, _, _ := newTestStore(t, mux)
	_, err := store.Login(context.Background(), models.LoginInput{
		Email:    "jdoe@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	var transitions int32
	store.OnStateChange(func(State) { atomic.AddInt32(&transitions, 1) })

	store.HandleUnauthorized("abc123")
	assert.Equal(t, Unauthenticated, store.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&transitions))

	// A second report for the same dead credential is a no-op.
	store.HandleUnauthorized("abc123")
	assert.Equal(t, int32(1), atomic.LoadInt32(&transitions))
}

func TestHandleUnauthorizedIgnoresStaleCredential(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token": "fresh-token", "user": ` + identityJSON() + `}`))
	})

	store, _, _ := newTestStore(t, mux)
	_, err := store.Login(context.Background(), models.LoginInput{
		Email:    "jdoe@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	// A 401 for a request sent with an older credential arrives late.
	store.HandleUnauthorized("old-token")
	assert.Equal(t, Authenticated, store.State())

	token, ok := store.Credential()
	assert.True(t, ok)
	assert.Equal(t, "fresh-token", token)
}

func TestLogoutIsLocal(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token": "abc123", "user": ` + identityJSON() + `}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	store, _, creds := newTestStore(t, mux)
	_, err := store.Login(context.Background(), models.LoginInput{
		Email:    "jdoe@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	before := atomic.LoadInt32(&calls)
	store.Logout()
	assert.Equal(t, before, atomic.LoadInt32(&calls), "logout must not call the backend")
	assert.Equal(t, Unauthenticated, store.State())

	_, persisted, err := creds.Load()
	require.NoError(t, err)
	assert.False(t, persisted)
}

func TestRegisterValidation(t *testing.T) {
	var calls int32
	store, _, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
	}))

	tests := []struct {
		name    string
		input   models.RegisterInput
		wantErr bool
	}{
		{
			name: "valid client",
			input: models.RegisterInput{
				Username: "jdoe", Email: "jdoe@example.com",
				Password: "hunter2222", ConfirmPassword: "hunter2222", Role: "client",
			},
		},
		{
			name: "password mismatch",
			input: models.RegisterInput{
				Username: "jdoe", Email: "jdoe@example.com",
				Password: "hunter2222", ConfirmPassword: "different22", Role: "client",
			},
			wantErr: true,
		},
		{
			name: "bad role",
			input: models.RegisterInput{
				Username: "jdoe", Email: "jdoe@example.com",
				Password: "hunter2222", ConfirmPassword: "hunter2222", Role: "judge",
			},
			wantErr: true,
		},
		{
			name: "short password",
			input: models.RegisterInput{
				Username: "jdoe", Email: "jdoe@example.com",
				Password: "short", ConfirmPassword: "short", Role: "lawyer",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := atomic.LoadInt32(&calls)
			err := store.Register(context.Background(), tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
				assert.Equal(t, before, atomic.LoadInt32(&calls))
			} else {
				require.NoError(t, err)
				assert.Equal(t, before+1, atomic.LoadInt32(&calls))
			}
		})
	}
}
