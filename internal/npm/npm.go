// Package npm fetches packuments from npm-compatible registries and indexes
// them.
package npm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/git-pkgs/packument/client"
	"github.com/git-pkgs/packument/fetch"
	"github.com/git-pkgs/packument/internal/core"
)

const (
	DefaultURL = client.DefaultRegistry

	// The largest public packuments are a few hundred megabytes.
	defaultMaxSize     = 512 << 20
	defaultConcurrency = 15
)

type Registry struct {
	urls    *client.URLs
	fetcher fetch.FetcherInterface
	maxSize int64
	logger  *log.Logger
	close   func()
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxSize bounds the size of a packument body. Zero disables the limit.
func WithMaxSize(n int64) Option {
	return func(r *Registry) {
		r.maxSize = n
	}
}

// WithLogger sets the logger used for per-package fetch events.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New returns a registry client for baseURL, or DefaultURL when baseURL is
// empty. A nil fetcher selects a circuit-breaking fetch.Fetcher.
func New(baseURL string, f fetch.FetcherInterface, opts ...Option) *Registry {
	r := &Registry{
		urls:    client.NewURLs(baseURL),
		fetcher: f,
		maxSize: defaultMaxSize,
		logger:  log.New(io.Discard),
		close:   func() {},
	}
	if f == nil {
		owned := fetch.NewFetcher()
		r.fetcher = fetch.NewCircuitBreakerFetcher(owned)
		r.close = owned.Close
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases the fetcher New created. A fetcher passed to New is left
// to its owner.
func (r *Registry) Close() {
	r.close()
}

func (r *Registry) URLs() client.URLBuilder {
	return r.urls
}

// FetchPackument downloads the raw packument of name.
func (r *Registry) FetchPackument(ctx context.Context, name string) ([]byte, error) {
	if err := client.ValidateName(name); err != nil {
		return nil, err
	}
	url := r.urls.Packument(name)
	data, err := fetch.ReadAll(ctx, r.fetcher, url, r.maxSize)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return nil, &core.NotFoundError{Name: name}
		}
		return nil, err
	}
	r.logger.Debug("fetched packument", "name", name, "bytes", len(data))
	return data, nil
}

// FetchPackage downloads and indexes the packument of name. The returned
// Package owns the downloaded buffer.
func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	data, err := r.FetchPackument(ctx, name)
	if err != nil {
		return nil, err
	}
	pkg, err := core.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", name, err)
	}
	return pkg, nil
}

// FetchVersion materializes one version of name. version may be a dist-tag;
// an empty version selects "latest".
func (r *Registry) FetchVersion(ctx context.Context, name, version string) (*core.VersionRecord, error) {
	pkg, err := r.FetchPackage(ctx, name)
	if err != nil {
		return nil, err
	}
	id, ok := fetch.SelectVersion(pkg, version)
	if !ok {
		return nil, &core.NotFoundError{Name: name, Version: version}
	}
	rec, err := pkg.Version(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &core.NotFoundError{Name: name, Version: id}
	}
	return rec, nil
}

// FetchDependencies returns the declared dependencies of one version.
func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	rec, err := r.FetchVersion(ctx, name, version)
	if err != nil {
		return nil, err
	}
	return rec.DependencyList(), nil
}

// BulkResult holds the outcome of BulkFetchPackages. Every requested name is
// in exactly one of the maps.
type BulkResult struct {
	Packages map[string]*core.Package
	Errors   map[string]error
}

// BulkFetchPackages fetches and indexes packages in parallel, at most
// concurrency at a time (15 when concurrency is not positive). Each package
// is built from its own buffer. A failed package does not stop the others;
// only cancellation of ctx aborts the batch.
func (r *Registry) BulkFetchPackages(ctx context.Context, names []string, concurrency int) (*BulkResult, error) {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	result := &BulkResult{
		Packages: make(map[string]*core.Package, len(names)),
		Errors:   make(map[string]error),
	}
	var mu sync.Mutex
	seen := make(map[string]bool, len(names))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		g.Go(func() error {
			pkg, err := r.FetchPackage(ctx, name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("fetch failed", "name", name, "err", err)
				result.Errors[name] = err
				return nil
			}
			result.Packages[name] = pkg
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
