package fetch

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/git-pkgs/packument/client"
	"github.com/git-pkgs/packument/internal/core"
)

var (
	ErrNoDownloadURL      = errors.New("no download URL available")
	ErrIntegrityMismatch  = errors.New("integrity mismatch")
	ErrUnsupportedDigest  = errors.New("unsupported integrity algorithm")
	errMissingNameVersion = errors.New("version record has no name or version")
)

// PackageSource provides indexed packuments. internal/npm.Registry
// implements it.
type PackageSource interface {
	FetchPackage(ctx context.Context, name string) (*core.Package, error)
}

// Resolver determines tarball URLs for package versions from their
// packuments.
type Resolver struct {
	source PackageSource
	urls   client.URLBuilder
}

// NewResolver creates a resolver that looks packages up in source and falls
// back to the conventional tarball URLs of urls for versions without a
// dist.tarball.
func NewResolver(source PackageSource, urls client.URLBuilder) *Resolver {
	if urls == nil {
		urls = client.NewURLs("")
	}
	return &Resolver{source: source, urls: urls}
}

// ArtifactInfo describes a downloadable tarball.
type ArtifactInfo struct {
	Name         string
	Version      string
	URL          string
	Filename     string
	Integrity    string // sha512-... or sha1-...
	UnpackedSize int64  // zero when unknown
}

// Resolve returns the tarball of ref. An unpinned ref resolves to the
// "latest" dist-tag; a ref pinned to a dist-tag resolves through the tag.
func (r *Resolver) Resolve(ctx context.Context, ref client.Ref) (*ArtifactInfo, error) {
	pkg, err := r.source.FetchPackage(ctx, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", ref.Name, err)
	}

	id, ok := SelectVersion(pkg, ref.Version)
	if !ok {
		return nil, &core.NotFoundError{Name: ref.Name, Version: ref.Version}
	}
	rec, err := pkg.Version(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &core.NotFoundError{Name: ref.Name, Version: id}
	}
	if rec.Name == "" {
		rec.Name = pkg.Name()
	}
	if rec.Version == "" {
		rec.Version = id
	}
	return ResolveVersion(r.urls, rec)
}

// SelectVersion maps a version or dist-tag to a version present in pkg.
// An empty want selects "latest". Exact versions win over tags of the same
// name.
func SelectVersion(pkg *core.Package, want string) (string, bool) {
	if want == "" {
		want = "latest"
	}
	if pkg.Versions().Has(want) {
		return want, true
	}
	if tagged, ok := pkg.DistTag(want); ok && pkg.Versions().Has(tagged) {
		return tagged, true
	}
	return "", false
}

// ResolveVersion returns the tarball of a materialized version, preferring
// its dist.tarball over the registry's conventional URL.
func ResolveVersion(urls client.URLBuilder, rec *core.VersionRecord) (*ArtifactInfo, error) {
	tarball := rec.Dist.Tarball
	if tarball == "" {
		if rec.Name == "" || rec.Version == "" {
			return nil, fmt.Errorf("%w: %w", ErrNoDownloadURL, errMissingNameVersion)
		}
		tarball = urls.Download(rec.Name, rec.Version)
	}
	if tarball == "" {
		return nil, fmt.Errorf("%w: %s@%s", ErrNoDownloadURL, rec.Name, rec.Version)
	}

	return &ArtifactInfo{
		Name:         rec.Name,
		Version:      rec.Version,
		URL:          tarball,
		Filename:     filenameFromURL(tarball),
		Integrity:    rec.Integrity(),
		UnpackedSize: rec.Dist.UnpackedSize,
	}, nil
}

// Download streams the tarball to w, verifying its integrity when known.
// On a mismatch w has already received the bad bytes; callers writing to
// a file should discard it.
func Download(ctx context.Context, f FetcherInterface, info *ArtifactInfo, w io.Writer) (int64, error) {
	var h hash.Hash
	var want string
	if info.Integrity != "" {
		var err error
		h, want, err = parseIntegrity(info.Integrity)
		if err != nil {
			return 0, err
		}
	}

	resp, err := f.Fetch(ctx, info.URL)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	dst := w
	if h != nil {
		dst = io.MultiWriter(w, h)
	}
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("downloading %s: %w", info.URL, err)
	}

	if h != nil {
		if got := base64.StdEncoding.EncodeToString(h.Sum(nil)); got != want {
			return n, fmt.Errorf("%w for %s: got %s, want %s", ErrIntegrityMismatch, info.Filename, got, want)
		}
	}
	return n, nil
}

// parseIntegrity picks the strongest hash of an SRI string such as
// "sha512-<base64> sha1-<base64>".
func parseIntegrity(integrity string) (hash.Hash, string, error) {
	var best hash.Hash
	var digest string
	rank := 0
	for _, entry := range strings.Fields(integrity) {
		alg, value, ok := strings.Cut(entry, "-")
		if !ok {
			continue
		}
		// Options after '?' are reserved by the SRI format.
		value, _, _ = strings.Cut(value, "?")

		var h hash.Hash
		var r int
		switch alg {
		case "sha512":
			h, r = sha512.New(), 3
		case "sha256":
			h, r = sha256.New(), 2
		case "sha1":
			h, r = sha1.New(), 1
			if raw, err := hexToBase64(value); err == nil {
				value = raw
			}
		default:
			continue
		}
		if r > rank {
			best, digest, rank = h, value, r
		}
	}
	if best == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedDigest, integrity)
	}
	return best, digest, nil
}

// hexToBase64 converts a hex SHA-1 digest, the form of dist.shasum, to the
// base64 form SRI uses.
func hexToBase64(s string) (string, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", err
	}
	if len(raw) != sha1.Size {
		return "", fmt.Errorf("sha1 digest has %d bytes", len(raw))
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func filenameFromURL(url string) string {
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
