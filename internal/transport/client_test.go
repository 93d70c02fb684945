package transport_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodestic/fne-sdk-go/internal/metrics"
	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/transport"
)

const apiKey = "sk_test_0123456789abcdefghij"

// recordSleeps returns a sleeper that records the requested delays without waiting
func recordSleeps(delays *[]time.Duration) transport.Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

// closedServerURL returns the address of a server that no longer listens
func closedServerURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		assert.Equal(t, "/ws/external/invoices/sign", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"reference":"REF-1"}`))
	}))
	defer srv.Close()

	c := transport.NewClient(
		transport.WithBaseURL(srv.URL+"/ws/"),
		transport.WithTokenSource(transport.StaticToken(apiKey)),
	)

	resp, err := c.Post(context.Background(), "/external/invoices/sign", map[string]string{"template": "B2C"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, transport.UserAgent, got.Get("User-Agent"))
	assert.Equal(t, "Bearer "+apiKey, got.Get("Authorization"))
	assert.JSONEq(t, `{"template":"B2C"}`, string(body))

	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "REF-1", resp.JSON()["reference"])
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Values("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := transport.NewClient(transport.WithBaseURL(srv.URL), transport.WithTokenSource(transport.StaticToken("")))
	_, err := c.Get(context.Background(), "health", nil)
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestClient_URL(t *testing.T) {
	c := transport.NewClient(transport.WithBaseURL("http://54.247.95.108/ws/"))

	assert.Equal(t, "http://54.247.95.108/ws", c.BaseURL())
	assert.Equal(t, "http://54.247.95.108/ws/external/invoices/sign", c.URL("/external/invoices/sign", nil))
	assert.Equal(t, "http://54.247.95.108/ws/external/invoices/sign", c.URL("external/invoices/sign", nil))
	assert.Equal(t, "http://54.247.95.108/ws/status?page=2", c.URL("status", url.Values{"page": {"2"}}))

	assert.Equal(t, model.TestBaseURL, transport.NewClient().BaseURL())
	assert.Equal(t, transport.DefaultRetryAttempts, transport.NewClient().RetryAttempts())
	assert.Equal(t, 1, transport.NewClient(transport.WithRetryAttempts(0)).RetryAttempts())
}

func TestClient_ConnectTimeout(t *testing.T) {
	assert.Equal(t, transport.DefaultConnectTimeout, transport.NewClient().ConnectTimeout())
	assert.Equal(t, 2*time.Second, transport.NewClient(transport.WithConnectTimeout(2*time.Second)).ConnectTimeout())
	assert.Equal(t, transport.DefaultConnectTimeout, transport.NewClient(transport.WithConnectTimeout(0)).ConnectTimeout())
}

// Connection refused on every attempt: three tries, backoff 1 then 2 units
func TestClient_ConnectionRefusedRetries(t *testing.T) {
	var delays []time.Duration
	reg := prometheus.NewRegistry()
	m := metrics.MustNewTransport(reg)

	c := transport.NewClient(
		transport.WithBaseURL(closedServerURL(t)),
		transport.WithRetryAttempts(3),
		transport.WithBackoffUnit(10*time.Millisecond),
		transport.WithSleeper(recordSleeps(&delays)),
		transport.WithMetrics(m),
	)

	_, err := c.Post(context.Background(), model.EndpointSignInvoice, map[string]any{})
	require.Error(t, err)

	var netErr *model.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, 3, netErr.Attempts)
	assert.Equal(t, "Impossible de se connecter à l'API FNE", netErr.Message)

	var opErr *net.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "dial", opErr.Op)

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, delays)
}

func TestClient_BackoffDoublesPerAttempt(t *testing.T) {
	var delays []time.Duration
	c := transport.NewClient(
		transport.WithBaseURL(closedServerURL(t)),
		transport.WithRetryAttempts(4),
		transport.WithBackoffUnit(time.Second),
		transport.WithSleeper(recordSleeps(&delays)),
	)

	_, err := c.Get(context.Background(), "health", nil)
	var netErr *model.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, 4, netErr.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
}

func TestClient_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	c := transport.NewClient(
		transport.WithBaseURL(closedServerURL(t)),
		transport.WithRetryAttempts(5),
		transport.WithSleeper(func(ctx context.Context, d time.Duration) error {
			attempts++
			cancel()
			return ctx.Err()
		}),
	)

	_, err := c.Get(ctx, "health", nil)
	var netErr *model.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.Canceled)
	var opErr *net.OpError
	require.ErrorAs(t, err, &opErr, "the refused dial is kept as a cause")
	assert.Equal(t, "dial", opErr.Op)
	assert.Equal(t, 1, attempts)
}

func TestClient_UnauthorizedIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token invalide"}`))
	}))
	defer srv.Close()

	var delays []time.Duration
	c := transport.NewClient(
		transport.WithBaseURL(srv.URL),
		transport.WithSleeper(recordSleeps(&delays)),
	)

	_, err := c.Post(context.Background(), model.EndpointSignInvoice, map[string]any{})
	require.Error(t, err)

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, model.KindUnauthorized, apiErr.Kind)
	assert.Equal(t, "Token invalide", apiErr.Message)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	var authErr *model.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Token invalide", authErr.Message)

	assert.Equal(t, int32(1), hits.Load())
	assert.Empty(t, delays)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		kind     model.ErrorKind
		message  string
		response bool
	}{
		{"bad request", http.StatusBadRequest, `{"message":"Le champ template est invalide","error":"VALIDATION"}`, model.KindBadRequest, "Le champ template est invalide", true},
		{"server error", http.StatusInternalServerError, `{"message":"Erreur interne"}`, model.KindInternalServer, "Erreur interne", true},
		{"not found", http.StatusNotFound, `{"message":"Facture introuvable"}`, model.KindAPI, "Facture introuvable", true},
		{"html error page", http.StatusBadGateway, `<html>Bad Gateway</html>`, model.KindAPI, "Erreur API", false},
		{"empty 500", http.StatusInternalServerError, ``, model.KindInternalServer, "Erreur interne du serveur", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := transport.NewClient(transport.WithBaseURL(srv.URL))
			_, err := c.Post(context.Background(), model.EndpointSignInvoice, nil)

			var apiErr *model.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.body, string(apiErr.Body))
			assert.Equal(t, tt.response, apiErr.Response != nil)
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"reference":`))
	}))
	defer srv.Close()

	c := transport.NewClient(transport.WithBaseURL(srv.URL))
	resp, err := c.Post(context.Background(), model.EndpointSignInvoice, nil)
	require.NoError(t, err)
	assert.Nil(t, resp.JSON())
	assert.Error(t, resp.Decode(&map[string]any{}))
}

func TestClient_TimeoutIsNotRetried(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	var delays []time.Duration
	c := transport.NewClient(
		transport.WithBaseURL(srv.URL),
		transport.WithTimeout(50*time.Millisecond),
		transport.WithSleeper(recordSleeps(&delays)),
	)

	_, err := c.Get(context.Background(), "slow", nil)
	var netErr *model.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, 1, netErr.Attempts)
	assert.Empty(t, delays)
}

func TestClient_RecoversAfterConnectionFailure(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"reference":"REF-2"}`))
	}))
	defer srv.Close()

	// The first dial fails; the listener is started during the backoff
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := transport.NewClient(
		transport.WithBaseURL("http://"+addr),
		transport.WithSleeper(func(ctx context.Context, d time.Duration) error {
			l, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			_ = srv.Listener.Close()
			srv.Listener = l
			srv.Start()
			return nil
		}),
	)

	resp, err := c.Post(context.Background(), model.EndpointSignInvoice, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "REF-2", resp.JSON()["reference"])
}

func TestClient_EncodeError(t *testing.T) {
	c := transport.NewClient(transport.WithBaseURL("http://127.0.0.1:1"))
	_, err := c.Post(context.Background(), "x", map[string]any{"bad": make(chan int)})
	require.Error(t, err)

	var netErr *model.NetworkError
	assert.False(t, errors.As(err, &netErr))
}
