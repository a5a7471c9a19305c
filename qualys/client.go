// Package qualys implements the authenticated client for the Qualys
// aggregator API: bearer auth against the gateway host, basic-auth qps/rest
// calls against the api host, and paginated host asset search.
package qualys

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentgap/agentgap/config"
	"github.com/agentgap/agentgap/telemetry"
	"github.com/agentgap/agentgap/types"
)

const (
	defaultCallTimeout = 60 * time.Second
	defaultMaxAttempts = 4
	defaultBackoffBase = 500 * time.Millisecond
	maxBackoff         = 8 * time.Second
)

// Client talks to one Qualys platform. It is safe for concurrent use after
// Authenticate has completed.
type Client struct {
	httpc       *http.Client
	gatewayURL  string
	apiURL      string
	username    string
	password    string
	token       string
	limiter     *rate.Limiter
	logger      *telemetry.Logger
	maxAttempts int
	backoffBase time.Duration
	callTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithBaseURLs overrides the platform hosts, used by tests.
func WithBaseURLs(gateway, api string) Option {
	return func(c *Client) {
		c.gatewayURL = gateway
		c.apiURL = api
	}
}

// WithRetry adjusts the per-page retry budget.
func WithRetry(attempts int, base time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.backoffBase = base
	}
}

// WithCallTimeout bounds each individual network call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// NewClient builds a client for the given platform.
func NewClient(cfg *config.Config, plat config.Platform, opts ...Option) *Client {
	c := &Client{
		httpc:       &http.Client{},
		gatewayURL:  plat.GatewayURL(),
		apiURL:      plat.APIURL(),
		username:    cfg.Username,
		password:    cfg.Password,
		limiter:     rate.NewLimiter(rate.Limit(5), 5),
		logger:      telemetry.NewLogger("qualys"),
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate obtains a bearer token from the gateway. Credential rejection
// is an AuthError and is never retried.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{
		"username": {c.username},
		"password": {c.password},
		"token":    {"true"},
	}

	body, err := c.do(ctx, "authenticate", func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.gatewayURL+"/auth",
			strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return err
	}

	c.token = strings.TrimSpace(string(body))
	c.logger.WithContext(ctx).Info().
		Str("gateway", c.gatewayURL).
		Msg("authenticated")
	return nil
}

// getGateway performs a bearer-auth GET against the gateway host.
func (c *Client) getGateway(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, "GET "+path, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.gatewayURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
}

// postAPI performs a basic-auth POST against the qps/rest api host.
func (c *Client) postAPI(ctx context.Context, path, contentType string, payload []byte) ([]byte, error) {
	return c.do(ctx, "POST "+path, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.apiURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.username, c.password)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
}

// do sends one logical request with the retry budget. The request is rebuilt
// for every attempt so bodies are re-readable. Server errors and network
// failures retry with exponential backoff; auth rejection aborts immediately.
func (c *Client) do(ctx context.Context, op string, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, &types.TransportError{Op: op, Err: err}
			}
			c.logger.WithContext(ctx).Warn().
				Str("op", op).
				Int("attempt", attempt+1).
				Msg("retrying request")
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &types.TransportError{Op: op, Err: err}
		}

		body, retryable, err := c.attempt(ctx, build)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, &types.TransportError{Op: op,
		Err: fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)}
}

// attempt runs a single bounded network call. The bool result says whether
// the failure may be retried.
func (c *Client) attempt(ctx context.Context, build func() (*http.Request, error)) ([]byte, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := build()
	if err != nil {
		return nil, false, err
	}
	req = req.WithContext(callCtx)

	resp, err := c.httpc.Do(req)
	if err != nil {
		// context cancellation is not worth retrying
		if ctx.Err() != nil {
			return nil, false, &types.TransportError{Op: req.URL.Path, Err: ctx.Err()}
		}
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, &types.AuthError{Status: resp.StatusCode, URL: req.URL.String()}
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("server returned %d", resp.StatusCode)
	case resp.StatusCode >= 300:
		return nil, false, &types.TransportError{Op: req.URL.Path,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	return body, false, nil
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	backoff := c.backoffBase << (attempt - 1)
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
