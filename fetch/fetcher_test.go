package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

const packumentBody = `{"name":"left-pad","dist-tags":{"latest":"1.3.0"},"versions":{}}`

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", `"abc123"`)
		_, _ = w.Write([]byte(packumentBody))
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()
	resp, err := f.Fetch(context.Background(), server.URL+"/left-pad")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.Size != int64(len(packumentBody)) {
		t.Errorf("Size = %d, want %d", resp.Size, len(packumentBody))
	}
	if resp.ContentType != "application/json" {
		t.Errorf("ContentType = %q, want %q", resp.ContentType, "application/json")
	}
	if resp.ETag != `"abc123"` {
		t.Errorf("ETag = %q, want %q", resp.ETag, `"abc123"`)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(body) != packumentBody {
		t.Errorf("body = %q, want %q", string(body), packumentBody)
	}
}

func TestFetchHeaders(t *testing.T) {
	var accept, ua, auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		ua = r.Header.Get("User-Agent")
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	f := NewFetcher(
		WithUserAgent("custom-agent/2.0"),
		WithAuthFunc(BearerToken(extractRegistry(server.URL), "s3cret")),
	)
	defer f.Close()
	resp, err := f.Fetch(context.Background(), server.URL+"/left-pad")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	_ = resp.Body.Close()

	if accept != AcceptPackument {
		t.Errorf("Accept = %q, want %q", accept, AcceptPackument)
	}
	if ua != "custom-agent/2.0" {
		t.Errorf("User-Agent = %q, want %q", ua, "custom-agent/2.0")
	}
	if auth != "Bearer s3cret" {
		t.Errorf("Authorization = %q, want %q", auth, "Bearer s3cret")
	}
}

func TestBearerTokenOtherHost(t *testing.T) {
	fn := BearerToken("npm.example.com", "s3cret")
	if name, _ := fn("https://registry.npmjs.org/left-pad"); name != "" {
		t.Error("expected no auth header for another host")
	}
	if name, value := fn("https://npm.example.com/left-pad"); name != "Authorization" || value != "Bearer s3cret" {
		t.Errorf("auth = %q: %q", name, value)
	}
	if name, _ := BearerToken("npm.example.com", "")("https://npm.example.com/x"); name != "" {
		t.Error("expected no auth header for an empty token")
	}
}

func TestFetchNotFound(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(WithBaseDelay(time.Millisecond))
	defer f.Close()
	_, err := f.Fetch(context.Background(), server.URL+"/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch = %v, want ErrNotFound", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1", attempts.Load())
	}
}

func TestFetchRateLimitRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(packumentBody))
	}))
	defer server.Close()

	f := NewFetcher(WithBaseDelay(10 * time.Millisecond))
	defer f.Close()
	resp, err := f.Fetch(context.Background(), server.URL+"/left-pad")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestFetchMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var logs bytes.Buffer
	f := NewFetcher(
		WithMaxRetries(2),
		WithBaseDelay(10*time.Millisecond),
		WithLogger(log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})),
	)
	defer f.Close()
	_, err := f.Fetch(context.Background(), server.URL+"/left-pad")
	if !errors.Is(err, ErrUpstreamDown) {
		t.Errorf("expected ErrUpstreamDown, got %v", err)
	}

	// Initial attempt + 2 retries = 3 total
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
	if got := strings.Count(logs.String(), "retrying"); got != 2 {
		t.Errorf("logged %d retries, want 2:\n%s", got, logs.String())
	}
	if !strings.Contains(logs.String(), "giving up") {
		t.Errorf("expected a final warning:\n%s", logs.String())
	}
}

func TestFetchUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("forbidden"))
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()
	_, err := f.Fetch(context.Background(), server.URL+"/private")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("Fetch = %v, want a 403 error", err)
	}
}

func TestFetchContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	f := NewFetcher()
	defer f.Close()
	if _, err := f.Fetch(ctx, server.URL+"/slow"); err == nil {
		t.Error("expected error on context cancellation")
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	f := NewFetcher(WithTimeout(20 * time.Millisecond))
	defer f.Close()
	if _, err := f.Fetch(context.Background(), server.URL+"/slow"); err == nil {
		t.Error("expected timeout error")
	}
}

func TestFetchUnknownSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Transfer-Encoding", "chunked")
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()
	resp, err := f.Fetch(context.Background(), server.URL+"/left-pad")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.Size != -1 {
		t.Errorf("Size = %d, want -1 for unknown", resp.Size)
	}
}

func TestHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Method = %s, want HEAD", r.Method)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", "12345")
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()
	size, contentType, err := f.Head(context.Background(), server.URL+"/left-pad/-/left-pad-1.3.0.tgz")
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if size != 12345 {
		t.Errorf("size = %d, want 12345", size)
	}
	if contentType != "application/octet-stream" {
		t.Errorf("contentType = %q, want %q", contentType, "application/octet-stream")
	}
}

func TestHeadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()
	_, _, err := f.Head(context.Background(), server.URL+"/missing.tgz")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Head = %v, want ErrNotFound", err)
	}
}

func TestReadAll(t *testing.T) {
	large := `{"name":"big","readme":"` + strings.Repeat("x", 1024*1024) + `"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chunked":
			w.Header().Set("Transfer-Encoding", "chunked")
		}
		_, _ = w.Write([]byte(large))
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()
	ctx := context.Background()

	data, err := ReadAll(ctx, f, server.URL+"/big", 0)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(data) != len(large) {
		t.Errorf("len(data) = %d, want %d", len(data), len(large))
	}

	if _, err := ReadAll(ctx, f, server.URL+"/big", 1024); !errors.Is(err, ErrTooLarge) {
		t.Errorf("ReadAll over limit = %v, want ErrTooLarge", err)
	}
	if _, err := ReadAll(ctx, f, server.URL+"/chunked", 1024); !errors.Is(err, ErrTooLarge) {
		t.Errorf("ReadAll of chunked body over limit = %v, want ErrTooLarge", err)
	}
	if data, err := ReadAll(ctx, f, server.URL+"/chunked", int64(len(large))); err != nil || len(data) != len(large) {
		t.Errorf("ReadAll at exact limit = %d bytes, %v", len(data), err)
	}
}

func TestFetchDNSCaching(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()

	for i := range 3 {
		resp, err := f.Fetch(context.Background(), server.URL+"/left-pad")
		if err != nil {
			t.Fatalf("Fetch %d failed: %v", i+1, err)
		}
		_ = resp.Body.Close()
	}

	if requests.Load() != 3 {
		t.Errorf("requests = %d, want 3", requests.Load())
	}
}

func TestCloseIdempotent(t *testing.T) {
	f := NewFetcher()
	f.Close()
	f.Close()
}
