// Package smoke checks that a deployment answers its root path with the
// expected greeting.
package smoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/steepan/devops-project/internal/testclient"
)

const (
	// ExpectedStatus is the status the root path must answer with
	ExpectedStatus = 200
	// ExpectedGreeting must appear verbatim in the root body
	ExpectedGreeting = "Hello from Steepan's DevOps Project Test.....!"
	// RootPath is the path the check requests
	RootPath = "/"
)

var (
	// ErrStatusMismatch means the root path did not answer ExpectedStatus
	ErrStatusMismatch = errors.New("status mismatch")
	// ErrBodyMismatch means the body lacks ExpectedGreeting
	ErrBodyMismatch = errors.New("body mismatch")
	// ErrRequest wraps failures to build or issue the request
	ErrRequest = errors.New("request failed")
)

// Getter performs one GET request. testclient.Client and remote.Client
// both satisfy it.
type Getter interface {
	Get(ctx context.Context, path string) (*testclient.Response, error)
}

// AssertionError reports which check failed and what was observed
type AssertionError struct {
	Check string
	Want  string
	Got   string
	err   error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("smoke: %s check failed: want %s, got %s", e.Check, e.Want, e.Got)
}

func (e *AssertionError) Unwrap() error {
	return e.err
}

// Result describes a passing check
type Result struct {
	StatusCode int
	BodySize   int
}

// Check issues exactly one GET / through c and verifies the response.
// Request errors are returned wrapped in ErrRequest; nothing is retried.
func Check(ctx context.Context, c Getter) (Result, error) {
	if c == nil {
		return Result{}, fmt.Errorf("%w: nil client", ErrRequest)
	}
	resp, err := c.Get(ctx, RootPath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: GET %s: %w", ErrRequest, RootPath, err)
	}
	if resp == nil {
		return Result{}, fmt.Errorf("%w: GET %s: nil response", ErrRequest, RootPath)
	}
	if err := Verify(resp.StatusCode, resp.Body); err != nil {
		return Result{}, err
	}
	return Result{StatusCode: resp.StatusCode, BodySize: len(resp.Body)}, nil
}

// Verify applies the status check, then the body check.
func Verify(statusCode int, body []byte) error {
	if statusCode != ExpectedStatus {
		return &AssertionError{
			Check: "status",
			Want:  fmt.Sprint(ExpectedStatus),
			Got:   fmt.Sprint(statusCode),
			err:   ErrStatusMismatch,
		}
	}
	if !bytes.Contains(body, []byte(ExpectedGreeting)) {
		return &AssertionError{
			Check: "body",
			Want:  fmt.Sprintf("substring %q", ExpectedGreeting),
			Got:   fmt.Sprintf("%q", truncate(body, 120)),
			err:   ErrBodyMismatch,
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
