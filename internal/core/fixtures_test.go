package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

const readmeMarker = "The mocking framework can be used in any JavaScript testing framework"

// versionJSON renders a version object in the shape the registry serves.
func versionJSON(name, version string) string {
	return fmt.Sprintf(`{
      "name": %q,
      "version": %q,
      "description": "Mocking framework",
      "license": "MIT",
      "main": "index.js",
      "scripts": {"test": "mocha"},
      "dependencies": {"left-pad": "^1.3.0"},
      "devDependencies": {"mocha": "^10.0.0"},
      "_npmUser": {"name": "publisher", "email": "publisher@example.com"},
      "dist": {
        "tarball": "https://registry.npmjs.org/%s/-/%s-%s.tgz",
        "shasum": "0123456789abcdef0123456789abcdef01234567",
        "integrity": "sha512-ZmFrZQ==",
        "fileCount": 3,
        "unpackedSize": 1234,
        "signatures": [{"keyid": "SHA256:jl3bwswu80PjjokCgh0o2w5c2U4LhQAE57gj9cz1kzA", "sig": "MEUCIQ=="}]
      }
    }`, name, version, name, name, version)
}

func readmeFixture() string {
	var b strings.Builder
	b.WriteString("# a\n\n")
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "Line %d: mock \"all\" the things <fast> & café 😀\ttabbed\n", i)
	}
	b.WriteString(readmeMarker + ".\n")
	return b.String()
}

// fixtureA builds a packument for package "a" with a multi-kilobyte readme.
func fixtureA(t testing.TB) []byte {
	t.Helper()
	readme, err := json.Marshal(readmeFixture())
	if err != nil {
		t.Fatalf("Marshal readme: %v", err)
	}

	versions := []string{"1.0.0", "1.0.1", "1.0.2", "2.0.0-beta.1"}
	var members []string
	for _, v := range versions {
		members = append(members, fmt.Sprintf("    %q: %s", v, versionJSON("a", v)))
	}

	doc := `{
  "_id": "a",
  "_rev": "42-0123456789",
  "name": "a",
  "description": "Mocking framework",
  "dist-tags": {"latest": "1.0.2", "beta": "2.0.0-beta.1"},
  "versions": {
` + strings.Join(members, ",\n") + `
  },
  "time": {
    "created": "2012-03-04T05:06:07.000Z",
    "1.0.0": "2012-03-04T05:06:07.000Z",
    "1.0.1": "2013-03-04T05:06:07.000Z",
    "1.0.2": "2014-03-04T05:06:07.000Z",
    "2.0.0-beta.1": "2025-07-31T11:36:55.000Z",
    "modified": "2025-07-31T11:36:55.508Z"
  },
  "maintainers": [{"name": "publisher", "email": "publisher@example.com"}],
  "readme": ` + string(readme) + `,
  "readmeFilename": "README.md",
  "users": {"someone": true}
}`
	return []byte(doc)
}

// largeFixture builds a packument with n versions.
func largeFixture(n int) []byte {
	var b strings.Builder
	b.WriteString(`{"name":"big","dist-tags":{"latest":"`)
	fmt.Fprintf(&b, "1.0.%d", n-1)
	b.WriteString(`"},"versions":{`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		v := fmt.Sprintf("1.0.%d", i)
		fmt.Fprintf(&b, "%q:%s", v, versionJSON("big", v))
	}
	b.WriteString(`},"readme":"`)
	b.WriteString(strings.Repeat(`Lorem ipsum \"dolor\" sit amet.\n`, 2000))
	b.WriteString(`"}`)
	return []byte(b.String())
}
