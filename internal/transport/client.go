package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/consultlaw/consultlaw-go/config"
	apperrors "github.com/consultlaw/consultlaw-go/pkg/errors"
	"github.com/consultlaw/consultlaw-go/pkg/httpclient"
	"github.com/consultlaw/consultlaw-go/pkg/logger"
	"github.com/consultlaw/consultlaw-go/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CredentialSource supplies the current credential for authenticated calls.
// Only the session store mutates the credential; the transport just reads it.
type CredentialSource interface {
	Credential() (string, bool)
}

// Client issues requests against the configured backend base URL. Public
// calls carry no Authorization header; authenticated calls require a
// credential and fail fast without one.
type Client struct {
	baseURL    string
	httpClient httpclient.Client
	limiter    *rate.Limiter

	mu             sync.RWMutex
	creds          CredentialSource
	onUnauthorized func(credential string)
}

// New creates a transport client from API configuration
func New(cfg config.APIConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpclient.NewStandardClient(time.Duration(cfg.TimeoutSeconds) * time.Second),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	}
}

// NewWithHTTPClient creates a transport client with a custom HTTP client
func NewWithHTTPClient(cfg config.APIConfig, hc httpclient.Client) *Client {
	c := New(cfg)
	c.httpClient = hc
	return c
}

// SetCredentialSource wires the session store into the client
func (c *Client) SetCredentialSource(src CredentialSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = src
}

// SetUnauthorizedHandler registers the hook invoked whenever an authenticated
// call observes a 401. The handler receives the credential the rejected
// request carried so the session store can ignore stale reports.
func (c *Client) SetUnauthorizedHandler(fn func(credential string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// GetPublic issues an unauthenticated GET
func (c *Client) GetPublic(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, false)
}

// PostPublic issues an unauthenticated POST
func (c *Client) PostPublic(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, false)
}

// Get issues an authenticated GET
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, true)
}

// Post issues an authenticated POST
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, true)
}

// Put issues an authenticated PUT
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out, true)
}

// Delete issues an authenticated DELETE
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	start := time.Now()

	var credential string
	if authed {
		c.mu.RLock()
		src := c.creds
		c.mu.RUnlock()
		if src == nil {
			return apperrors.UnauthorizedError("no credential source configured")
		}
		cred, ok := src.Credential()
		if !ok {
			return apperrors.UnauthorizedError("not logged in")
		}
		credential = cred
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logger.Error("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return apperrors.UnavailableError(err)
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	duration := metrics.MeasureDuration(start)
	metrics.APIRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	metrics.APIRequestTotal.WithLabelValues(method, path, status).Inc()
	logger.LogAPICall(method, path, status, duration)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized && authed {
			c.mu.RLock()
			handler := c.onUnauthorized
			c.mu.RUnlock()
			if handler != nil {
				handler(credential)
			}
		}
		return parseAPIError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}
