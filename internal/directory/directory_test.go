package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/consultlaw/consultlaw-go/config"
	"github.com/consultlaw/consultlaw-go/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingBody = `[
	{"id": 1, "first_name": "Ada", "last_name": "Okafor", "email": "ada@example.com",
	 "lawyer_profile": {"specialties": "Family Law", "experience_years": 8, "fee": "150.00"}},
	{"id": 2, "first_name": "Ben", "last_name": "Marsh", "email": "ben@example.com", "specialty": "Tax Law"}
]`

func newTestDirectory(t *testing.T, handler http.Handler, cfg config.CacheConfig) (*Directory, *int32) {
	t.Helper()
	var calls int32
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler.ServeHTTP(w, r)
	})
	server := httptest.NewServer(counting)
	t.Cleanup(server.Close)

	client := transport.New(config.APIConfig{
		BaseURL:        server.URL,
		TimeoutSeconds: 5,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	})
	return New(client, cfg), &calls
}

func TestListCachesListing(t *testing.T) {
	dir, calls := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/professionals/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "listing is public")
		_, _ = w.Write([]byte(listingBody))
	}), config.CacheConfig{DirectoryTTLSeconds: 60})

	first, err := dir.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Ada Okafor", first[0].FullName())
	assert.Equal(t, "Family Law", first[0].DisplaySpecialty())
	assert.Equal(t, "Tax Law", first[1].DisplaySpecialty())

	second, err := dir.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "second call must hit the cache")
}

func TestListCacheDisabled(t *testing.T) {
	dir, calls := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingBody))
	}), config.CacheConfig{DirectoryTTLSeconds: 60, DisableDirectoryCache: true})

	_, err := dir.List(context.Background())
	require.NoError(t, err)
	_, err = dir.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestListSingleAttemptOnFailure(t *testing.T) {
	dir, calls := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), config.CacheConfig{DirectoryTTLSeconds: 60})

	_, err := dir.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "failures must not be retried")
}

func TestInvalidateDropsCache(t *testing.T) {
	dir, calls := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingBody))
	}), config.CacheConfig{DirectoryTTLSeconds: 60})

	_, err := dir.List(context.Background())
	require.NoError(t, err)
	dir.Invalidate()
	_, err = dir.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestAvailability(t *testing.T) {
	dir, calls := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/availability/", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("lawyer"))
		_, _ = w.Write([]byte(`[{"id": 10, "lawyer": 3, "day_of_week": "monday", "start_time": "09:00", "end_time": "12:00"}]`))
	}), config.CacheConfig{DirectoryTTLSeconds: 60})

	slots, err := dir.Availability(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "monday", slots[0].DayOfWeek)

	_, err = dir.Availability(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}
