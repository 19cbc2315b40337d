package core

import (
	"maps"
	"slices"
	"strings"

	"github.com/git-pkgs/packument/internal/scanner"
)

// MaterializeVersion decodes the version object at span in buf. buf must be
// the buffer the span was recorded from.
func MaterializeVersion(buf []byte, span ByteSpan) (*VersionRecord, error) {
	if !span.Valid(buf) {
		return nil, &MalformedVersionError{Span: span, Reason: "span out of bounds"}
	}

	// Bounding the scanner at span.End makes a span that cuts a value short
	// fail instead of reading past it.
	s := scanner.NewAt(buf[:span.End], span.Start)
	v, err := s.DecodeValue()
	if err != nil {
		return nil, &MalformedVersionError{Span: span, Reason: "invalid JSON", Err: err}
	}
	if err := s.ExpectEOF(); err != nil {
		return nil, &MalformedVersionError{Span: span, Reason: "span holds more than one value", Err: err}
	}
	if v.Kind != scanner.Object {
		return nil, &MalformedVersionError{Span: span, Reason: "version value is a " + v.Kind.String()}
	}

	distVal, ok := v.Get("dist")
	if !ok || distVal.Kind != scanner.Object {
		return nil, &MalformedVersionError{Span: span, Reason: "missing dist object"}
	}

	rec := &VersionRecord{
		Name:                 stringField(v, "name"),
		Version:              stringField(v, "version"),
		Description:          stringField(v, "description"),
		Dependencies:         stringMapField(v, "dependencies"),
		DevDependencies:      stringMapField(v, "devDependencies"),
		PeerDependencies:     stringMapField(v, "peerDependencies"),
		OptionalDependencies: stringMapField(v, "optionalDependencies"),
		Dist:                 extractDist(distVal),
		Fields:               v,
	}
	if lic, ok := v.Get("license"); ok {
		rec.License = extractLicense(lic)
	}
	if dep, ok := v.Get("deprecated"); ok {
		rec.deprecated = true
		rec.Deprecated, _ = dep.AsString()
	}
	return rec, nil
}

// DependencyList flattens the dependency maps of the version, runtime first,
// then development, peer and optional, each sorted by name. Optional
// dependencies are also listed in "dependencies" by npm; they are reported
// once, with the optional scope.
func (r *VersionRecord) DependencyList() []Dependency {
	var deps []Dependency
	add := func(m map[string]string, scope Scope, skip map[string]string) {
		for _, name := range slices.Sorted(maps.Keys(m)) {
			if _, dup := skip[name]; dup {
				continue
			}
			deps = append(deps, Dependency{
				Name:         name,
				Requirements: m[name],
				Scope:        scope,
				Optional:     scope == Optional,
			})
		}
	}
	add(r.Dependencies, Runtime, r.OptionalDependencies)
	add(r.DevDependencies, Development, nil)
	add(r.PeerDependencies, Peer, nil)
	add(r.OptionalDependencies, Optional, nil)
	return deps
}

func stringField(v Value, key string) string {
	f, _ := v.Get(key)
	s, _ := f.AsString()
	return s
}

// stringMapField returns the string members of an object field, or nil when
// the field is absent or not an object.
func stringMapField(v Value, key string) map[string]string {
	f, ok := v.Get(key)
	if !ok {
		return nil
	}
	return f.StringMap()
}

func intField(v Value, key string) int64 {
	f, _ := v.Get(key)
	n, _ := f.AsInt64()
	return n
}

func extractDist(v Value) Dist {
	d := Dist{
		Tarball:      stringField(v, "tarball"),
		Shasum:       stringField(v, "shasum"),
		Integrity:    stringField(v, "integrity"),
		FileCount:    intField(v, "fileCount"),
		UnpackedSize: intField(v, "unpackedSize"),
	}
	if sigs, ok := v.Get("signatures"); ok {
		for _, e := range sigs.Elems {
			d.Signatures = append(d.Signatures, Signature{
				KeyID: stringField(e, "keyid"),
				Sig:   stringField(e, "sig"),
			})
		}
	}
	if att, ok := v.Get("attestations"); ok && att.Kind == scanner.Object {
		prov, _ := att.Get("provenance")
		d.Attestations = &Attestations{
			URL:        stringField(att, "url"),
			Provenance: Provenance{PredicateType: stringField(prov, "predicateType")},
		}
	}
	return d
}

// extractLicense accepts the string, {"type": ...} and array forms found in
// published package.json files.
func extractLicense(v Value) string {
	switch v.Kind {
	case scanner.String:
		return v.Str
	case scanner.Object:
		return stringField(v, "type")
	case scanner.Array:
		var licenses []string
		for _, item := range v.Elems {
			switch item.Kind {
			case scanner.String:
				licenses = append(licenses, item.Str)
			case scanner.Object:
				if t := stringField(item, "type"); t != "" {
					licenses = append(licenses, t)
				}
			}
		}
		return strings.Join(licenses, ",")
	}
	return ""
}
