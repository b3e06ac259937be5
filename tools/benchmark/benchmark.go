// Package main load-tests the root endpoint and verifies every response
// carries the expected greeting.
package main

import (
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/steepan/devops-project/internal/smoke"
)

type options struct {
	url         string
	duration    time.Duration
	concurrency int
	insecure    bool
	progress    io.Writer     // nil disables the progress ticker
	tick        time.Duration // progress interval, defaults to one second
}

type stats struct {
	requests   int64
	transport  int64 // requests that never produced a response
	mismatches int64 // responses that failed smoke verification
	latencySum int64 // microseconds, passing requests only
	minLatency int64
	maxLatency int64
}

func (s *stats) failures() int64 {
	return s.transport + s.mismatches
}

func (s *stats) observe(latency int64) {
	atomic.AddInt64(&s.requests, 1)
	atomic.AddInt64(&s.latencySum, latency)
	for {
		old := atomic.LoadInt64(&s.minLatency)
		if latency >= old || atomic.CompareAndSwapInt64(&s.minLatency, old, latency) {
			break
		}
	}
	for {
		old := atomic.LoadInt64(&s.maxLatency)
		if latency <= old || atomic.CompareAndSwapInt64(&s.maxLatency, old, latency) {
			break
		}
	}
}

func newClient(opts options) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:        opts.concurrency * 2,
		MaxIdleConnsPerHost: opts.concurrency * 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if opts.insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{Transport: tr, Timeout: 5 * time.Second}
}

// fetch performs one request and verifies it like the smoke check does.
func fetch(client *http.Client, url string) (time.Duration, error) {
	start := time.Now()
	resp, err := client.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	latency := time.Since(start)
	return latency, smoke.Verify(resp.StatusCode, body)
}

func run(opts options) *stats {
	client := newClient(opts)
	s := &stats{minLatency: 1<<63 - 1}
	stop := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < opts.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				latency, err := fetch(client, opts.url)
				var ae *smoke.AssertionError
				switch {
				case err == nil:
					s.observe(latency.Microseconds())
				case errors.As(err, &ae):
					atomic.AddInt64(&s.mismatches, 1)
				default:
					atomic.AddInt64(&s.transport, 1)
				}
			}
		}()
	}

	if opts.progress != nil {
		tick := opts.tick
		if tick <= 0 {
			tick = time.Second
		}
		start := time.Now()
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(tick)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					elapsed := time.Since(start)
					reqs := atomic.LoadInt64(&s.requests)
					fmt.Fprintf(opts.progress, "[%s] OK: %d, Failures: %d, RPS: %.0f\n",
						elapsed.Round(time.Second), reqs, s.failuresSnapshot(), perSecond(reqs, elapsed))
				}
			}
		}()
	}

	time.Sleep(opts.duration)
	close(stop)
	wg.Wait()

	if s.requests == 0 {
		s.minLatency = 0
	}
	return s
}

// perSecond returns n/d in events per second, or 0 for a non-positive d.
func perSecond(n int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

func (s *stats) failuresSnapshot() int64 {
	return atomic.LoadInt64(&s.transport) + atomic.LoadInt64(&s.mismatches)
}

func report(w io.Writer, s *stats, opts options) {
	avg := float64(0)
	if s.requests > 0 {
		avg = float64(s.latencySum) / float64(s.requests)
	}
	rps := perSecond(s.requests, opts.duration)

	fmt.Fprintln(w, "\n========== RESULTS ==========")
	fmt.Fprintf(w, "Passing requests: %d\n", s.requests)
	fmt.Fprintf(w, "Transport errors: %d\n", s.transport)
	fmt.Fprintf(w, "Smoke mismatches: %d\n", s.mismatches)
	fmt.Fprintf(w, "Duration:         %v\n", opts.duration)
	fmt.Fprintf(w, "Concurrency:      %d\n", opts.concurrency)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "RPS:              %.2f\n", rps)
	fmt.Fprintf(w, "RPM:              %.0f\n", rps*60)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Latency avg:      %.2f µs (%.3f ms)\n", avg, avg/1000)
	fmt.Fprintf(w, "Latency min:      %d µs (%.3f ms)\n", s.minLatency, float64(s.minLatency)/1000)
	fmt.Fprintf(w, "Latency max:      %d µs (%.3f ms)\n", s.maxLatency, float64(s.maxLatency)/1000)
}

func main() {
	opts := options{progress: os.Stdout}
	flag.StringVar(&opts.url, "url", "http://localhost:8080/", "Target URL")
	flag.DurationVar(&opts.duration, "duration", 10*time.Second, "Test duration")
	flag.IntVar(&opts.concurrency, "c", 10, "Number of concurrent workers")
	flag.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification")
	flag.Parse()

	fmt.Printf("Benchmarking %s\n", opts.url)
	fmt.Printf("Duration: %v, Concurrency: %d\n\n", opts.duration, opts.concurrency)

	s := run(opts)
	report(os.Stdout, s, opts)

	if s.failures() > 0 {
		os.Exit(1)
	}
}
