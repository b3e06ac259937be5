// Package testclient drives an http.Handler in-process, without a listener.
package testclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
)

// Response is the outcome of a single request
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client issues synthetic requests against a handler
type Client struct {
	handler http.Handler
}

// New binds a client to h
func New(h http.Handler) (*Client, error) {
	if h == nil {
		return nil, errors.New("testclient: nil handler")
	}
	return &Client{handler: h}, nil
}

// Get runs one GET request for path through the handler and returns the
// recorded response. The call is synchronous.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Do runs one request with the given method and body through the handler.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*Response, error) {
	if path == "" {
		return nil, errors.New("testclient: empty path")
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("testclient: path %q must start with /", path)
	}
	req, err := http.NewRequestWithContext(ctx, method, "http://in-process"+path, body)
	if err != nil {
		return nil, fmt.Errorf("testclient: build request: %w", err)
	}
	req.RemoteAddr = "192.0.2.1:1234"

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("testclient: read body: %w", err)
	}
	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       data,
	}, nil
}
