package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/steepan/devops-project/internal/logger"
	"github.com/steepan/devops-project/internal/server"
)

func TestRun_AgainstService(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.LoggerConfig = logger.Config{}
	srv, err := server.New(cfg)
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	defer srv.Close()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	opts := options{url: ts.URL + "/", duration: 200 * time.Millisecond, concurrency: 2}
	s := run(opts)

	if s.requests == 0 {
		t.Fatal("run() recorded no passing requests")
	}
	if s.failures() != 0 {
		t.Errorf("run() failures = %d (transport %d, mismatches %d), want 0", s.failures(), s.transport, s.mismatches)
	}
	if s.minLatency > s.maxLatency {
		t.Errorf("minLatency %d > maxLatency %d", s.minLatency, s.maxLatency)
	}

	var out bytes.Buffer
	report(&out, s, opts)
	if !strings.Contains(out.String(), "Smoke mismatches: 0") {
		t.Errorf("report() = %q", out.String())
	}
}

func TestRun_CountsMismatches(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Hello")
	}))
	defer ts.Close()

	s := run(options{url: ts.URL + "/", duration: 100 * time.Millisecond, concurrency: 1})

	if s.requests != 0 {
		t.Errorf("requests = %d, want 0", s.requests)
	}
	if s.mismatches == 0 {
		t.Error("mismatches = 0, want > 0")
	}
	if s.minLatency != 0 {
		t.Errorf("minLatency = %d, want 0 when nothing passed", s.minLatency)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_ProgressStopsWithRun(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Hello")
	}))
	defer ts.Close()

	progress := &lockedBuffer{}
	done := make(chan struct{})
	go func() {
		run(options{url: ts.URL + "/", duration: 100 * time.Millisecond, concurrency: 1, progress: progress, tick: 10 * time.Millisecond})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run() did not return; progress reporter still running")
	}

	lines := progress.String()
	if !strings.Contains(lines, "Failures:") {
		t.Errorf("progress output = %q, want progress lines", lines)
	}
	time.Sleep(50 * time.Millisecond)
	if progress.String() != lines {
		t.Error("progress reporter kept writing after run() returned")
	}
}

func TestReport_ZeroDuration(t *testing.T) {
	var out bytes.Buffer
	report(&out, &stats{requests: 5}, options{duration: 0, concurrency: 1})

	if strings.Contains(out.String(), "NaN") || strings.Contains(out.String(), "Inf") {
		t.Errorf("report() = %q, want finite rates", out.String())
	}
	if !strings.Contains(out.String(), "RPS:              0.00") {
		t.Errorf("report() = %q, want zero RPS", out.String())
	}
}

func TestPerSecond(t *testing.T) {
	if got := perSecond(10, 2*time.Second); got != 5 {
		t.Errorf("perSecond(10, 2s) = %v, want 5", got)
	}
	if got := perSecond(10, 0); got != 0 {
		t.Errorf("perSecond(10, 0) = %v, want 0", got)
	}
}
