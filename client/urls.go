// Package client builds npm registry URLs and parses package references.
package client

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultRegistry is the public npm registry.
const DefaultRegistry = "https://registry.npmjs.org"

// URLBuilder constructs URLs for a package on a registry.
type URLBuilder interface {
	Packument(name string) string
	Registry(name, version string) string
	Download(name, version string) string
	Documentation(name, version string) string
	PURL(name, version string) string
}

// URLs builds URLs for an npm-compatible registry.
type URLs struct {
	baseURL string
}

// NewURLs returns a URLBuilder for the registry at baseURL. An empty baseURL
// selects DefaultRegistry.
func NewURLs(baseURL string) *URLs {
	if baseURL == "" {
		baseURL = DefaultRegistry
	}
	return &URLs{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// BaseURL returns the registry base URL without a trailing slash.
func (u *URLs) BaseURL() string {
	return u.baseURL
}

// Packument returns the URL of the package document. The slash of a scoped
// name is escaped, as the registry expects.
func (u *URLs) Packument(name string) string {
	if scope, pkg, ok := splitScope(name); ok {
		return fmt.Sprintf("%s/%s%%2f%s", u.baseURL, url.PathEscape(scope), url.PathEscape(pkg))
	}
	return fmt.Sprintf("%s/%s", u.baseURL, url.PathEscape(name))
}

// Registry returns the package's page on npmjs.com.
func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("https://www.npmjs.com/package/%s/v/%s", name, version)
	}
	return fmt.Sprintf("https://www.npmjs.com/package/%s", name)
}

// Download returns the conventional tarball URL. Published versions carry
// their own dist.tarball, which should be preferred.
func (u *URLs) Download(name, version string) string {
	if version == "" {
		return ""
	}
	shortName := name
	if _, pkg, ok := splitScope(name); ok {
		shortName = pkg
	}
	return fmt.Sprintf("%s/%s/-/%s-%s.tgz", u.baseURL, name, shortName, version)
}

func (u *URLs) Documentation(name, version string) string {
	return u.Registry(name, version)
}

// PURL returns the package URL, with a repository_url qualifier when the
// registry is not the public one.
func (u *URLs) PURL(name, version string) string {
	var b strings.Builder
	b.WriteString("pkg:npm/")
	if scope, pkg, ok := splitScope(name); ok {
		b.WriteString(scope)
		b.WriteByte('/')
		b.WriteString(pkg)
	} else {
		b.WriteString(name)
	}
	if version != "" {
		b.WriteByte('@')
		b.WriteString(version)
	}
	if u.baseURL != DefaultRegistry {
		b.WriteString("?repository_url=")
		b.WriteString(url.QueryEscape(u.baseURL))
	}
	return b.String()
}

// BuildURLs returns a map of all non-empty URLs for a package.
// Keys are "packument", "registry", "download", "docs", and "purl".
func BuildURLs(urls URLBuilder, name, version string) map[string]string {
	result := make(map[string]string)
	if v := urls.Packument(name); v != "" {
		result["packument"] = v
	}
	if v := urls.Registry(name, version); v != "" {
		result["registry"] = v
	}
	if v := urls.Download(name, version); v != "" {
		result["download"] = v
	}
	if v := urls.Documentation(name, version); v != "" {
		result["docs"] = v
	}
	if v := urls.PURL(name, version); v != "" {
		result["purl"] = v
	}
	return result
}

// splitScope splits "@scope/name" into "@scope" and "name".
func splitScope(name string) (scope, pkg string, ok bool) {
	if !strings.HasPrefix(name, "@") {
		return "", "", false
	}
	scope, pkg, ok = strings.Cut(name, "/")
	return scope, pkg, ok
}
