// Package remote talks to a deployed instance over the network.
package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/steepan/devops-project/internal/testclient"
)

const (
	// DefaultTimeout bounds a single request when Config.Timeout is unset
	DefaultTimeout = 5 * time.Second
	// DefaultWaitInterval is the pause between WaitHealthy polls
	DefaultWaitInterval = 2 * time.Second
)

// Config holds remote client configuration
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	Insecure      bool   // skip TLS certificate verification
	MinTLSVersion string // "1.2", "tls13", ...; empty keeps Go's default
}

// Client wraps a resty client bound to one base URL
type Client struct {
	rc *resty.Client
}

// ParseTLSVersion converts a TLS version string to the crypto/tls constant.
// Returns 0 if the version string is not recognized.
func ParseTLSVersion(version string) uint16 {
	switch strings.TrimSpace(strings.ToLower(version)) {
	case "1.0", "10", "tls1.0", "tls10":
		return tls.VersionTLS10
	case "1.1", "11", "tls1.1", "tls11":
		return tls.VersionTLS11
	case "1.2", "12", "tls1.2", "tls12":
		return tls.VersionTLS12
	case "1.3", "13", "tls1.3", "tls13":
		return tls.VersionTLS13
	default:
		return 0
	}
}

// New returns a client for cfg.BaseURL
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("remote: base url is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("remote: base url %q must start with http:// or https://", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			// The status of the requested path itself is what gets checked.
			return http.ErrUseLastResponse
		}))

	minV := ParseTLSVersion(cfg.MinTLSVersion)
	if cfg.Insecure || minV != 0 {
		// #nosec G402 -- InsecureSkipVerify only when explicitly requested for self-signed deployments
		rc.SetTLSClientConfig(&tls.Config{MinVersion: minV, InsecureSkipVerify: cfg.Insecure})
	}

	return &Client{rc: rc}, nil
}

// Get performs one GET request for path relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (*testclient.Response, error) {
	resp, err := c.rc.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("remote: GET %s: %w", path, err)
	}
	return &testclient.Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// WaitHealthy polls path until it returns 200 or timeout elapses.
func (c *Client) WaitHealthy(ctx context.Context, path string, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastStatus int
	var lastErr error
	for {
		resp, err := c.rc.R().SetContext(ctx).Get(path)
		if err == nil && resp.StatusCode() == http.StatusOK {
			return nil
		}
		lastErr = err
		if resp != nil {
			lastStatus = resp.StatusCode()
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("remote: timeout waiting for %s (last error: %w)", path, lastErr)
			}
			return fmt.Errorf("remote: timeout waiting for %s to return 200 (last=%d)", path, lastStatus)
		case <-time.After(interval):
		}
	}
}
