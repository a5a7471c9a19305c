package qualys

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgap/agentgap/config"
	"github.com/agentgap/agentgap/types"
)

func testClient(t *testing.T, gateway, api string) *Client {
	t.Helper()
	cfg := &config.Config{Username: "quser", Password: "secret", Platform: "US2"}
	cfg.ApplyDefaults()
	plat, err := config.LookupPlatform("US2")
	require.NoError(t, err)

	return NewClient(cfg, plat,
		WithBaseURLs(gateway, api),
		WithRetry(3, time.Millisecond),
		WithCallTimeout(2*time.Second),
	)
}

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "quser", r.Form.Get("username"))
		assert.Equal(t, "true", r.Form.Get("token"))
		_, _ = w.Write([]byte("bearer-token-123\n"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	require.NoError(t, c.Authenticate(context.Background()))
	assert.Equal(t, "bearer-token-123", c.token)
}

func TestAuthenticateRejected(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	err := c.Authenticate(context.Background())
	require.Error(t, err)

	var authErr *types.AuthError
	assert.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, int32(1), calls.Load(), "auth rejection must not be retried")
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	body, err := c.getGateway(context.Background(), "/connectors/v1.0/AWS/list")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	_, err := c.getGateway(context.Background(), "/x")
	require.Error(t, err)

	var transportErr *types.TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Equal(t, int32(3), calls.Load())
}

func TestAuthErrorMidSequenceNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	_, err := c.postAPI(context.Background(), "/qps/rest/2.0/search/am/hostasset", "application/xml", nil)

	var authErr *types.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCancellationAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.getGateway(ctx, "/x")
	require.Error(t, err)

	var transportErr *types.TransportError
	assert.True(t, errors.As(err, &transportErr))
}
