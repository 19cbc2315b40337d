package fetch

import (
	"bytes"
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/git-pkgs/packument/client"
	"github.com/git-pkgs/packument/internal/core"
)

type staticSource map[string][]byte

func (s staticSource) FetchPackage(_ context.Context, name string) (*core.Package, error) {
	data, ok := s[name]
	if !ok {
		return nil, &core.NotFoundError{Name: name}
	}
	return core.FromBytes(data)
}

const leftPad = `{
  "name": "left-pad",
  "dist-tags": {"latest": "1.3.0", "legacy": "1.0.0", "gone": "0.0.1"},
  "versions": {
    "1.0.0": {"name": "left-pad", "version": "1.0.0", "dist": {"shasum": "0123456789abcdef0123456789abcdef01234567"}},
    "1.3.0": {"name": "left-pad", "version": "1.3.0", "dist": {
      "tarball": "https://registry.npmjs.org/left-pad/-/left-pad-1.3.0.tgz",
      "integrity": "sha512-XI5MPzVNApjAyhQzphX8BkmKsKUxD4LdyK24iZeQEjTu4+uzZtqzBE0u1e8bbpHyrk4ZAEB3pUbK3dJSpwNwWA==",
      "unpackedSize": 7445
    }},
    "2.0.0": "broken"
  }
}`

func TestResolve(t *testing.T) {
	r := NewResolver(staticSource{"left-pad": []byte(leftPad)}, nil)
	ctx := context.Background()

	tests := []struct {
		ref           client.Ref
		wantVersion   string
		wantURL       string
		wantFilename  string
		wantIntegrity string
	}{
		{
			ref:           client.Ref{Name: "left-pad"},
			wantVersion:   "1.3.0",
			wantURL:       "https://registry.npmjs.org/left-pad/-/left-pad-1.3.0.tgz",
			wantFilename:  "left-pad-1.3.0.tgz",
			wantIntegrity: "sha512-XI5MPzVNApjAyhQzphX8BkmKsKUxD4LdyK24iZeQEjTu4+uzZtqzBE0u1e8bbpHyrk4ZAEB3pUbK3dJSpwNwWA==",
		},
		{
			ref:           client.Ref{Name: "left-pad", Version: "legacy"},
			wantVersion:   "1.0.0",
			wantURL:       "https://registry.npmjs.org/left-pad/-/left-pad-1.0.0.tgz",
			wantFilename:  "left-pad-1.0.0.tgz",
			wantIntegrity: "sha1-0123456789abcdef0123456789abcdef01234567",
		},
		{
			ref:          client.Ref{Name: "left-pad", Version: "1.0.0"},
			wantVersion:  "1.0.0",
			wantURL:      "https://registry.npmjs.org/left-pad/-/left-pad-1.0.0.tgz",
			wantFilename: "left-pad-1.0.0.tgz",

			wantIntegrity: "sha1-0123456789abcdef0123456789abcdef01234567",
		},
	}

	for _, tt := range tests {
		t.Run(tt.ref.String(), func(t *testing.T) {
			info, err := r.Resolve(ctx, tt.ref)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if info.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", info.Version, tt.wantVersion)
			}
			if info.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", info.URL, tt.wantURL)
			}
			if info.Filename != tt.wantFilename {
				t.Errorf("Filename = %q, want %q", info.Filename, tt.wantFilename)
			}
			if info.Integrity != tt.wantIntegrity {
				t.Errorf("Integrity = %q, want %q", info.Integrity, tt.wantIntegrity)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver(staticSource{"left-pad": []byte(leftPad)}, nil)
	ctx := context.Background()

	tests := []struct {
		ref  client.Ref
		want error
	}{
		{client.Ref{Name: "right-pad"}, core.ErrNotFound},
		{client.Ref{Name: "left-pad", Version: "9.9.9"}, core.ErrNotFound},
		{client.Ref{Name: "left-pad", Version: "gone"}, core.ErrNotFound},
		{client.Ref{Name: "left-pad", Version: "2.0.0"}, core.ErrMalformedVersionValue},
	}
	for _, tt := range tests {
		t.Run(tt.ref.String(), func(t *testing.T) {
			_, err := r.Resolve(ctx, tt.ref)
			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResolveVersionScopedFallback(t *testing.T) {
	rec := &core.VersionRecord{Name: "@babel/core", Version: "7.23.0"}
	info, err := ResolveVersion(client.NewURLs("https://npm.example.com"), rec)
	if err != nil {
		t.Fatalf("ResolveVersion failed: %v", err)
	}
	if want := "https://npm.example.com/@babel/core/-/core-7.23.0.tgz"; info.URL != want {
		t.Errorf("URL = %q, want %q", info.URL, want)
	}
	if info.Filename != "core-7.23.0.tgz" {
		t.Errorf("Filename = %q", info.Filename)
	}

	if _, err := ResolveVersion(client.NewURLs(""), &core.VersionRecord{}); !errors.Is(err, ErrNoDownloadURL) {
		t.Errorf("ResolveVersion(empty) = %v, want ErrNoDownloadURL", err)
	}
}

func TestDownload(t *testing.T) {
	tarball := []byte("not really a gzip stream")
	sum512 := sha512.Sum512(tarball)
	sum1 := sha1.Sum(tarball)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(tarball)
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()
	ctx := context.Background()

	tests := []struct {
		name      string
		integrity string
		want      error
	}{
		{"sha512", "sha512-" + base64.StdEncoding.EncodeToString(sum512[:]), nil},
		{"sha1 hex shasum", "sha1-" + hex.EncodeToString(sum1[:]), nil},
		{"strongest wins", "sha1-AAAA sha512-" + base64.StdEncoding.EncodeToString(sum512[:]), nil},
		{"none", "", nil},
		{"mismatch", "sha512-" + base64.StdEncoding.EncodeToString(make([]byte, 64)), ErrIntegrityMismatch},
		{"unsupported", "md5-abcd", ErrUnsupportedDigest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			info := &ArtifactInfo{URL: server.URL + "/left-pad-1.3.0.tgz", Filename: "left-pad-1.3.0.tgz", Integrity: tt.integrity}
			n, err := Download(ctx, f, info, &buf)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Download = %v, want %v", err, tt.want)
			}
			if tt.want == nil && (n != int64(len(tarball)) || !bytes.Equal(buf.Bytes(), tarball)) {
				t.Errorf("downloaded %d bytes, want %d", n, len(tarball))
			}
		})
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://registry.npmjs.org/left-pad/-/left-pad-1.3.0.tgz", "left-pad-1.3.0.tgz"},
		{"https://registry.npmjs.org/@babel/core/-/core-7.23.0.tgz", "core-7.23.0.tgz"},
		{"file.tgz", "file.tgz"},
	}

	for _, tt := range tests {
		if got := filenameFromURL(tt.url); got != tt.want {
			t.Errorf("filenameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
