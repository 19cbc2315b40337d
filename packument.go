// Package packument reads npm package documents without decoding them in
// full.
//
// FromBytes makes a single pass over the document. It decodes the small
// top-level fields and records only the byte span of each version. Versions
// are decoded on demand, so a reader that needs the latest release of a
// package with thousands of versions never pays for the others.
//
// Basic usage:
//
//	data, err := os.ReadFile("react.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pkg, err := packument.FromBytes(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	latest, err := pkg.LatestVersion()
//	if err != nil {
//		log.Fatal(err)
//	}
//	if latest != nil {
//		fmt.Println(latest.Version, latest.Dist.Tarball)
//	}
//
// Packuments can also be fetched from a registry:
//
//	pkg, err := packument.FetchPackage(ctx, "", "@babel/core")
package packument

import (
	"context"

	"github.com/git-pkgs/packument/client"
	"github.com/git-pkgs/packument/internal/core"
	"github.com/git-pkgs/packument/internal/npm"
)

// Re-export types from internal/core
type (
	// Package is an indexed packument. It owns the buffer it was built from
	// and is safe for concurrent reads.
	Package = core.Package

	// ByteSpan is a half-open byte range [Start, End) into a packument buffer.
	ByteSpan = core.ByteSpan

	// TimeInfo holds the decoded "time" object.
	TimeInfo = core.TimeInfo

	// TimeEntry is one member of the "time" object.
	TimeEntry = core.TimeEntry

	// VersionIndex maps version identifiers to the spans of their values, in
	// document order.
	VersionIndex = core.VersionIndex

	// DocumentIndex is the result of the single indexing pass.
	DocumentIndex = core.DocumentIndex

	// VersionRecord is a fully decoded version object.
	VersionRecord = core.VersionRecord

	// Dist describes a version's tarball.
	Dist = core.Dist

	Signature    = core.Signature
	Attestations = core.Attestations
	Provenance   = core.Provenance

	// Value is an arbitrary decoded JSON value.
	Value = core.Value

	// DiffResult lists the versions of a packument a caller does not know.
	DiffResult = core.DiffResult

	// AddedVersion is one entry of DiffResult.
	AddedVersion = core.AddedVersion

	// Dependency is a declared dependency of a version.
	Dependency = core.Dependency

	// Scope indicates which dependency group declared a dependency.
	Scope = core.Scope
)

// BulkResult holds the outcome of BulkFetchPackages.
type BulkResult = npm.BulkResult

// Re-export constants
const (
	Runtime     = core.Runtime
	Development = core.Development
	Peer        = core.Peer
	Optional    = core.Optional
)

// Re-export errors
var (
	ErrSyntax                = core.ErrSyntax
	ErrMissingRequiredField  = core.ErrMissingRequiredField
	ErrMalformedVersionValue = core.ErrMalformedVersionValue
	ErrNotFound              = core.ErrNotFound
)

// Error types
type (
	SyntaxError           = core.SyntaxError
	MissingFieldError     = core.MissingFieldError
	MalformedVersionError = core.MalformedVersionError
	NotFoundError         = core.NotFoundError
)

// FromBytes indexes a packument. The package takes ownership of data; the
// caller must not modify it afterwards.
func FromBytes(data []byte) (*Package, error) {
	return core.FromBytes(data)
}

// BuildIndex runs the indexing pass without wrapping the result in a Package.
func BuildIndex(data []byte) (*DocumentIndex, error) {
	return core.BuildIndex(data)
}

// MaterializeVersion decodes the version value at span of buf. span must
// come from an index built over the same buffer.
func MaterializeVersion(buf []byte, span ByteSpan) (*VersionRecord, error) {
	return core.MaterializeVersion(buf, span)
}

// Diff returns the versions of an index whose identifiers are not in known,
// in document order.
func Diff(versions *VersionIndex, known []string) DiffResult {
	return core.Diff(versions, known)
}

// ParseRef parses "name", "name@version" or a pkg:npm PURL.
func ParseRef(s string) (client.Ref, error) {
	return client.ParseRef(s)
}

// DefaultRegistry is the public npm registry.
const DefaultRegistry = client.DefaultRegistry

// FetchPackage downloads and indexes the packument of name from registry,
// or the public registry when registry is empty.
func FetchPackage(ctx context.Context, registry, name string) (*Package, error) {
	reg := npm.New(registry, nil)
	defer reg.Close()
	return reg.FetchPackage(ctx, name)
}

// BulkFetchPackages downloads and indexes several packuments in parallel.
// Packages that fail are reported in the result's Errors map.
func BulkFetchPackages(ctx context.Context, registry string, names []string, concurrency int) (*BulkResult, error) {
	reg := npm.New(registry, nil)
	defer reg.Close()
	return reg.BulkFetchPackages(ctx, names, concurrency)
}
