package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/consultlaw/consultlaw-go/config"
	"github.com/consultlaw/consultlaw-go/internal/models"
	"github.com/consultlaw/consultlaw-go/pkg/circuitbreaker"
	"github.com/consultlaw/consultlaw-go/pkg/logger"
	"github.com/consultlaw/consultlaw-go/pkg/metrics"
	"github.com/consultlaw/consultlaw-go/pkg/retry"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	cacheName          = "directory"
	listingKey         = "professionals"
	availabilityPrefix = "availability:"
)

// Transport is the slice of the HTTP client the directory needs. The
// professional listing is public and requires no session.
type Transport interface {
	GetPublic(ctx context.Context, path string, out any) error
}

// Directory serves the public professional listing. Results are cached
// for a short TTL, and a circuit breaker shields the backend; when the
// breaker is open a warm cache still answers.
type Directory struct {
	transport Transport
	cache     *gocache.Cache
	breaker   *gobreaker.CircuitBreaker
	disabled  bool

	refreshInterval time.Duration
	stopRefresh     chan struct{}
}

// New creates a directory view from cache configuration
func New(transport Transport, cfg config.CacheConfig) *Directory {
	ttl := time.Duration(cfg.DirectoryTTLSeconds) * time.Second
	return &Directory{
		transport:       transport,
		cache:           gocache.New(ttl, 2*ttl),
		breaker:         circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("directory")),
		disabled:        cfg.DisableDirectoryCache,
		refreshInterval: time.Duration(cfg.RefreshIntervalSeconds) * time.Second,
	}
}

// List returns the current professional listing. Each call makes at most
// one request; there is no retry on this path. A warm cache answers when
// the entry is fresh or when the breaker rejects the call outright.
func (d *Directory) List(ctx context.Context) ([]models.ProfessionalSummary, error) {
	if !d.disabled {
		if cached, found := d.cache.Get(listingKey); found {
			metrics.CacheHits.WithLabelValues(cacheName).Inc()
			return cached.([]models.ProfessionalSummary), nil
		}
		metrics.CacheMisses.WithLabelValues(cacheName).Inc()
	}

	listing, err := circuitbreaker.ExecuteWithFallback(d.breaker,
		func() ([]models.ProfessionalSummary, error) {
			return d.fetch(ctx)
		},
		func() ([]models.ProfessionalSummary, error) {
			if cached, found := d.cache.Get(listingKey); found {
				logger.Warn("directory circuit open, serving cached listing")
				return cached.([]models.ProfessionalSummary), nil
			}
			return nil, fmt.Errorf("directory unavailable and cache cold")
		})
	if err != nil {
		return nil, err
	}

	if !d.disabled {
		d.cache.SetDefault(listingKey, listing)
		metrics.CacheSize.WithLabelValues(cacheName).Set(float64(d.cache.ItemCount()))
	}
	return listing, nil
}

// Availability returns a lawyer's weekly availability slots
func (d *Directory) Availability(ctx context.Context, lawyerID int) ([]models.Availability, error) {
	key := fmt.Sprintf("%s%d", availabilityPrefix, lawyerID)
	if !d.disabled {
		if cached, found := d.cache.Get(key); found {
			metrics.CacheHits.WithLabelValues(cacheName).Inc()
			return cached.([]models.Availability), nil
		}
		metrics.CacheMisses.WithLabelValues(cacheName).Inc()
	}

	var slots []models.Availability
	path := fmt.Sprintf("/auth/availability/?lawyer=%d", lawyerID)
	if err := d.transport.GetPublic(ctx, path, &slots); err != nil {
		return nil, err
	}

	if !d.disabled {
		d.cache.SetDefault(key, slots)
	}
	return slots, nil
}

// Invalidate drops all cached directory entries
func (d *Directory) Invalidate() {
	d.cache.Flush()
	metrics.CacheSize.WithLabelValues(cacheName).Set(0)
}

// StartBackgroundRefresh keeps the listing warm by refetching it on an
// interval. Refresh attempts retry with backoff since no caller is
// waiting on them. It is a no-op when no interval is configured.
func (d *Directory) StartBackgroundRefresh(ctx context.Context) {
	if d.refreshInterval <= 0 || d.disabled || d.stopRefresh != nil {
		return
	}
	d.stopRefresh = make(chan struct{})

	go func() {
		ticker := time.NewTicker(d.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.stopRefresh:
				return
			case <-ticker.C:
				listing, err := retry.DoWithResult(ctx, retry.DirectoryConfig(), "directory_refresh",
					func() ([]models.ProfessionalSummary, error) {
						return d.fetch(ctx)
					})
				if err != nil {
					logger.Warn("directory refresh failed", zap.Error(err))
					continue
				}
				d.cache.SetDefault(listingKey, listing)
			}
		}
	}()
}

// StopBackgroundRefresh stops the refresh loop started earlier
func (d *Directory) StopBackgroundRefresh() {
	if d.stopRefresh != nil {
		close(d.stopRefresh)
		d.stopRefresh = nil
	}
}

func (d *Directory) fetch(ctx context.Context) ([]models.ProfessionalSummary, error) {
	var listing []models.ProfessionalSummary
	if err := d.transport.GetPublic(ctx, "/auth/professionals/", &listing); err != nil {
		return nil, err
	}
	return listing, nil
}
