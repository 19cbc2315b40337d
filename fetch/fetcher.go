// Package fetch downloads packuments and tarballs from npm registries with
// retry, DNS caching and per-host circuit breaking.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/dnscache"
)

var (
	ErrNotFound     = errors.New("not found upstream")
	ErrRateLimited  = errors.New("rate limited by upstream")
	ErrUpstreamDown = errors.New("upstream registry unavailable")
	ErrTooLarge     = errors.New("response body exceeds size limit")
)

// Accept headers understood by npm registries. The abbreviated form omits
// readme, time and most per-version fields, so packuments are requested in
// full.
const (
	AcceptPackument   = "application/json"
	AcceptAbbreviated = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8, */*"
)

// Response is an open response body from a registry.
type Response struct {
	Body        io.ReadCloser
	Size        int64 // -1 if unknown
	ContentType string
	ETag        string
}

// FetcherInterface is implemented by Fetcher and CircuitBreakerFetcher.
type FetcherInterface interface {
	Fetch(ctx context.Context, url string) (*Response, error)
	Head(ctx context.Context, url string) (size int64, contentType string, err error)
}

// Fetcher downloads documents from upstream registries.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	accept     string
	maxRetries int
	baseDelay  time.Duration
	authFn     func(url string) (headerName, headerValue string)
	logger     *log.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithTimeout sets the per-request timeout of the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithAccept sets the Accept header sent with GET requests.
func WithAccept(accept string) Option {
	return func(f *Fetcher) {
		f.accept = accept
	}
}

// WithMaxRetries sets the maximum retry attempts.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.baseDelay = d
	}
}

// WithAuthFunc sets a function that returns auth headers for a given URL.
// Return empty strings to skip authentication for that URL.
func WithAuthFunc(fn func(url string) (headerName, headerValue string)) Option {
	return func(f *Fetcher) {
		f.authFn = fn
	}
}

// WithLogger sets the logger used to report retries. Fetchers are silent by
// default.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// BearerToken returns an auth function that sends token to every URL on host.
func BearerToken(host, token string) func(string) (string, string) {
	return func(rawURL string) (string, string) {
		if token == "" || extractRegistry(rawURL) != host {
			return "", ""
		}
		return "Authorization", "Bearer " + token
	}
}

// NewFetcher creates a new Fetcher with the given options.
func NewFetcher(opts ...Option) *Fetcher {
	resolver := &dnscache.Resolver{}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout: 2 * time.Minute,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					host, port, err := net.SplitHostPort(addr)
					if err != nil {
						return nil, err
					}
					ips, err := resolver.LookupHost(ctx, host)
					if err != nil {
						return nil, err
					}
					for _, ip := range ips {
						conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
						if err == nil {
							return conn, nil
						}
					}
					return nil, fmt.Errorf("failed to dial any resolved IP for %s", host)
				},
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		userAgent:  "packument/1.0",
		accept:     AcceptPackument,
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		logger:     log.New(io.Discard),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				resolver.Refresh(true)
			case <-f.stop:
				return
			}
		}
	}()
	return f
}

// Close stops the DNS cache refresher. The fetcher must not be used afterwards.
func (f *Fetcher) Close() {
	f.stopOnce.Do(func() { close(f.stop) })
}

// Fetch issues a GET for url, retrying rate limits and server errors with
// jittered exponential backoff. The caller must close the returned Body.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := f.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			delay += time.Duration(float64(delay) * (rand.Float64() * 0.1))

			f.logger.Debug("retrying", "url", url, "attempt", attempt, "delay", delay, "err", lastErr)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := f.doFetch(ctx, url)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamDown) {
			continue
		}
		return nil, err
	}

	f.logger.Warn("giving up", "url", url, "attempts", f.maxRetries+1, "err", lastErr)
	return nil, lastErr
}

func (f *Fetcher) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if f.authFn != nil {
		if name, value := f.authFn(url); name != "" && value != "" {
			req.Header.Set(name, value)
		}
	}
	return req, nil
}

func (f *Fetcher) doFetch(ctx context.Context, url string) (*Response, error) {
	req, err := f.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", f.accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return &Response{
			Body:        resp.Body,
			Size:        contentLength(resp),
			ContentType: resp.Header.Get("Content-Type"),
			ETag:        resp.Header.Get("ETag"),
		}, nil

	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, ErrNotFound

	case resp.StatusCode == http.StatusTooManyRequests:
		_ = resp.Body.Close()
		return nil, ErrRateLimited

	case resp.StatusCode >= 500:
		_ = resp.Body.Close()
		return nil, ErrUpstreamDown

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// Head checks if a document exists and returns its metadata without
// downloading it.
func (f *Fetcher) Head(ctx context.Context, url string) (size int64, contentType string, err error) {
	req, err := f.newRequest(ctx, http.MethodHead, url)
	if err != nil {
		return 0, "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("head request: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return contentLength(resp), resp.Header.Get("Content-Type"), nil
}

func contentLength(resp *http.Response) int64 {
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			return n
		}
	}
	return -1
}

// ReadAll fetches url and reads the whole body into memory. A limit of zero
// or less means no limit; otherwise bodies larger than limit fail with
// ErrTooLarge.
func ReadAll(ctx context.Context, f FetcherInterface, url string, limit int64) ([]byte, error) {
	resp, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if limit > 0 && resp.Size > limit {
		return nil, fmt.Errorf("%s: %d bytes: %w", url, resp.Size, ErrTooLarge)
	}

	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(resp.Body, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: more than %d bytes: %w", url, limit, ErrTooLarge)
	}
	return data, nil
}
