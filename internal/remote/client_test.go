package remote

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steepan/devops-project/internal/smoke"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "localhost:8080"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://localhost:8080/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.rc.BaseURL)
	assert.Equal(t, DefaultTimeout, c.rc.GetClient().Timeout)
}

func TestParseTLSVersion(t *testing.T) {
	assert.Equal(t, uint16(tls.VersionTLS12), ParseTLSVersion("1.2"))
	assert.Equal(t, uint16(tls.VersionTLS13), ParseTLSVersion("TLS13"))
	assert.Equal(t, uint16(0), ParseTLSVersion("bogus"))
}

func TestGet(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("X-Path", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "broken")
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("X-Path"))
	assert.Equal(t, "broken", string(resp.Body))
	assert.Equal(t, int32(1), hits.Load(), "no retries on failure status")
}

func TestGet_DoesNotFollowRedirects(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
			return
		}
		_, _ = io.WriteString(w, smoke.ExpectedGreeting)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/elsewhere", resp.Header.Get("Location"))

	_, err = smoke.Check(context.Background(), c)
	assert.ErrorIs(t, err, smoke.ErrStatusMismatch)
	assert.Equal(t, int32(2), hits.Load(), "one request per call, redirect target never fetched")
}

func TestGet_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/")
	assert.Error(t, err)
}

func TestGet_InsecureAllowsSelfSigned(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	strict, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = strict.Get(context.Background(), "/")
	assert.Error(t, err, "self-signed certificate should be rejected by default")

	insecure, err := New(Config{BaseURL: srv.URL, Insecure: true})
	require.NoError(t, err)
	resp, err := insecure.Get(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
}

func TestWaitHealthy(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	err = c.WaitHealthy(context.Background(), "/health", 5*time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitHealthy_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	err = c.WaitHealthy(context.Background(), "/health", 100*time.Millisecond, 20*time.Millisecond)
	assert.ErrorContains(t, err, "timeout waiting for /health")
}
