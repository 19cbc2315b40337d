package client

import (
	"testing"
)

func TestURLs(t *testing.T) {
	u := NewURLs("")

	tests := []struct {
		name     string
		version  string
		packumnt string
		registry string
		download string
		purl     string
	}{
		{
			name:     "lodash",
			version:  "4.17.21",
			packumnt: "https://registry.npmjs.org/lodash",
			registry: "https://www.npmjs.com/package/lodash/v/4.17.21",
			download: "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz",
			purl:     "pkg:npm/lodash@4.17.21",
		},
		{
			name:     "@babel/core",
			version:  "7.23.0",
			packumnt: "https://registry.npmjs.org/@babel%2fcore",
			registry: "https://www.npmjs.com/package/@babel/core/v/7.23.0",
			download: "https://registry.npmjs.org/@babel/core/-/core-7.23.0.tgz",
			purl:     "pkg:npm/@babel/core@7.23.0",
		},
		{
			name:     "left-pad",
			version:  "",
			packumnt: "https://registry.npmjs.org/left-pad",
			registry: "https://www.npmjs.com/package/left-pad",
			download: "",
			purl:     "pkg:npm/left-pad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := u.Packument(tt.name); got != tt.packumnt {
				t.Errorf("Packument = %q, want %q", got, tt.packumnt)
			}
			if got := u.Registry(tt.name, tt.version); got != tt.registry {
				t.Errorf("Registry = %q, want %q", got, tt.registry)
			}
			if got := u.Documentation(tt.name, tt.version); got != tt.registry {
				t.Errorf("Documentation = %q, want %q", got, tt.registry)
			}
			if got := u.Download(tt.name, tt.version); got != tt.download {
				t.Errorf("Download = %q, want %q", got, tt.download)
			}
			if got := u.PURL(tt.name, tt.version); got != tt.purl {
				t.Errorf("PURL = %q, want %q", got, tt.purl)
			}
		})
	}
}

func TestURLsCustomRegistry(t *testing.T) {
	u := NewURLs("https://npm.example.com/registry/")

	if got := u.BaseURL(); got != "https://npm.example.com/registry" {
		t.Errorf("BaseURL = %q", got)
	}
	if got, want := u.Download("foo", "1.0.0"), "https://npm.example.com/registry/foo/-/foo-1.0.0.tgz"; got != want {
		t.Errorf("Download = %q, want %q", got, want)
	}
	if got, want := u.PURL("foo", "1.0.0"), "pkg:npm/foo@1.0.0?repository_url=https%3A%2F%2Fnpm.example.com%2Fregistry"; got != want {
		t.Errorf("PURL = %q, want %q", got, want)
	}
}

func TestBuildURLs(t *testing.T) {
	urls := BuildURLs(NewURLs(""), "lodash", "4.17.21")
	for _, key := range []string{"packument", "registry", "download", "docs", "purl"} {
		if urls[key] == "" {
			t.Errorf("expected %s URL", key)
		}
	}

	urls = BuildURLs(NewURLs(""), "lodash", "")
	if _, ok := urls["download"]; ok {
		t.Error("expected no download URL without a version")
	}
}
