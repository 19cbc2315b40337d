package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/charmbracelet/log"
	circuit "github.com/rubyist/circuitbreaker"
)

const defaultTripThreshold = 5

// CircuitBreakerFetcher wraps a FetcherInterface with one circuit breaker per
// registry host. Only upstream failures count towards tripping a breaker; a
// missing package is an answer, not a failure.
type CircuitBreakerFetcher struct {
	fetcher   FetcherInterface
	threshold int64
	logger    *log.Logger

	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// BreakerOption configures a CircuitBreakerFetcher.
type BreakerOption func(*CircuitBreakerFetcher)

// WithTripThreshold sets the number of consecutive failures that open a
// breaker.
func WithTripThreshold(n int64) BreakerOption {
	return func(cbf *CircuitBreakerFetcher) {
		cbf.threshold = n
	}
}

// WithBreakerLogger sets the logger used to report breakers opening.
func WithBreakerLogger(l *log.Logger) BreakerOption {
	return func(cbf *CircuitBreakerFetcher) {
		cbf.logger = l
	}
}

// NewCircuitBreakerFetcher creates a new circuit breaker wrapper for a fetcher.
func NewCircuitBreakerFetcher(f FetcherInterface, opts ...BreakerOption) *CircuitBreakerFetcher {
	cbf := &CircuitBreakerFetcher{
		fetcher:   f,
		threshold: defaultTripThreshold,
		logger:    log.New(io.Discard),
		breakers:  make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(cbf)
	}
	return cbf
}

// getBreaker returns or creates the circuit breaker for a registry host.
func (cbf *CircuitBreakerFetcher) getBreaker(registry string) *circuit.Breaker {
	cbf.mu.RLock()
	breaker, exists := cbf.breakers[registry]
	cbf.mu.RUnlock()

	if exists {
		return breaker
	}

	cbf.mu.Lock()
	defer cbf.mu.Unlock()

	if breaker, exists := cbf.breakers[registry]; exists {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(cbf.threshold),
	})
	cbf.breakers[registry] = breaker
	return breaker
}

// call runs fn under the breaker for rawURL. fn's error is returned as is.
func (cbf *CircuitBreakerFetcher) call(rawURL string, fn func() error) error {
	registry := extractRegistry(rawURL)
	breaker := cbf.getBreaker(registry)

	if !breaker.Ready() {
		return fmt.Errorf("circuit breaker open for registry %s: %w", registry, ErrUpstreamDown)
	}

	var callErr error
	err := breaker.Call(func() error {
		callErr = fn()
		if errors.Is(callErr, ErrNotFound) {
			return nil
		}
		return callErr
	}, 0)
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return fmt.Errorf("circuit breaker open for registry %s: %w", registry, ErrUpstreamDown)
	}
	if err != nil && breaker.Tripped() {
		cbf.logger.Warn("circuit breaker opened", "registry", registry, "err", err)
	}
	return callErr
}

// Fetch wraps the underlying fetcher's Fetch with circuit breaker logic.
func (cbf *CircuitBreakerFetcher) Fetch(ctx context.Context, fetchURL string) (*Response, error) {
	var resp *Response
	err := cbf.call(fetchURL, func() error {
		var fetchErr error
		resp, fetchErr = cbf.fetcher.Fetch(ctx, fetchURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Head wraps the underlying fetcher's Head with circuit breaker logic.
func (cbf *CircuitBreakerFetcher) Head(ctx context.Context, headURL string) (size int64, contentType string, err error) {
	err = cbf.call(headURL, func() error {
		var headErr error
		size, contentType, headErr = cbf.fetcher.Head(ctx, headURL)
		return headErr
	})
	return size, contentType, err
}

// extractRegistry returns the host of rawURL, used to group breakers.
func extractRegistry(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}

// GetBreakerState returns the current state of each registry's breaker.
func (cbf *CircuitBreakerFetcher) GetBreakerState() map[string]string {
	cbf.mu.RLock()
	defer cbf.mu.RUnlock()

	states := make(map[string]string)
	for registry, breaker := range cbf.breakers {
		if breaker.Tripped() {
			states[registry] = "open"
		} else {
			states[registry] = "closed"
		}
	}
	return states
}
