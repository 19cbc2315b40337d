package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/git-pkgs/purl"
)

const maxNameLength = 214

var (
	ErrInvalidName = errors.New("invalid package name")
	ErrNotNPM      = errors.New("not an npm package URL")
)

// Ref is a reference to an npm package, optionally pinned to a version or a
// dist-tag.
type Ref struct {
	Name     string
	Version  string // version or dist-tag, empty when unpinned
	Registry string // registry base URL, empty for the default registry
}

// String formats the reference as name[@version].
func (r Ref) String() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + "@" + r.Version
}

// ParseRef parses "name", "name@version", "@scope/name@tag" or a
// "pkg:npm/..." package URL. A repository_url qualifier on a package URL
// selects the registry.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "pkg:") {
		return parsePURL(s)
	}

	var ref Ref
	at := strings.LastIndex(s, "@")
	if at > 0 {
		ref.Name, ref.Version = s[:at], s[at+1:]
		if ref.Version == "" {
			return Ref{}, fmt.Errorf("%w: %q has an empty version", ErrInvalidName, s)
		}
	} else {
		ref.Name = s
	}
	if err := ValidateName(ref.Name); err != nil {
		return Ref{}, err
	}
	return ref, nil
}

func parsePURL(s string) (Ref, error) {
	p, err := purl.Parse(s)
	if err != nil {
		return Ref{}, fmt.Errorf("parsing %q: %w", s, err)
	}
	if p.Type != "npm" {
		return Ref{}, fmt.Errorf("%w: %s", ErrNotNPM, s)
	}
	ref := Ref{
		Name:     p.FullName(),
		Version:  p.Version,
		Registry: p.Qualifiers.Map()["repository_url"],
	}
	if err := ValidateName(ref.Name); err != nil {
		return Ref{}, err
	}
	return ref, nil
}

// ValidateName applies the registry's naming rules that hold for both new
// and legacy packages. Uppercase letters are accepted since older packages
// use them.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	case len(name) > maxNameLength:
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, name, maxNameLength)
	case strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_"):
		return fmt.Errorf("%w: %q starts with %q", ErrInvalidName, name, name[:1])
	}

	base := name
	if strings.HasPrefix(name, "@") {
		scope, pkg, ok := splitScope(name)
		if !ok || len(scope) < 2 || pkg == "" {
			return fmt.Errorf("%w: %q is not @scope/name", ErrInvalidName, name)
		}
		if err := checkChars(name, scope[1:]); err != nil {
			return err
		}
		base = pkg
	}
	return checkChars(name, base)
}

func checkChars(name, part string) error {
	for _, r := range part {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-._~!*'()", r):
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, r)
		}
	}
	return nil
}
