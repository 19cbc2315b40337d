// Package core provides the packument index, version materialization and
// version diffing.
package core

import "github.com/git-pkgs/packument/internal/scanner"

// ByteSpan is a half-open [Start, End) byte range into the buffer a Package
// was built from. Sliced out of that buffer it is a complete, standalone JSON
// value. A span is meaningless once the buffer is released or modified.
type ByteSpan struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s ByteSpan) Len() int {
	return s.End - s.Start
}

// Valid reports whether the span lies inside buf.
func (s ByteSpan) Valid(buf []byte) bool {
	return s.Start >= 0 && s.Start < s.End && s.End <= len(buf)
}

// Slice returns buf[Start:End], or nil if the span does not fit buf.
func (s ByteSpan) Slice(buf []byte) []byte {
	if !s.Valid(buf) {
		return nil
	}
	return buf[s.Start:s.End]
}

// TimeInfo holds the shallow contents of the packument's "time" object.
type TimeInfo struct {
	Created  string // empty when absent
	Modified string // empty when absent

	// HasUnpublishedMarker is set when "time" has an "unpublished" member.
	// Its value is never decoded.
	HasUnpublishedMarker bool
}

// TimeEntry is one string-valued member of the "time" object.
type TimeEntry struct {
	Key   string
	Value string
}

// VersionIndex maps version identifiers to the span of their raw JSON value,
// in document order. Identifiers are opaque strings.
type VersionIndex struct {
	keys  []string
	spans map[string]ByteSpan
}

func newVersionIndex() *VersionIndex {
	return &VersionIndex{spans: make(map[string]ByteSpan)}
}

// set records a version. A duplicate identifier overwrites the span but keeps
// its first position.
func (v *VersionIndex) set(id string, span ByteSpan) {
	if _, ok := v.spans[id]; !ok {
		v.keys = append(v.keys, id)
	}
	v.spans[id] = span
}

// Len returns the number of versions.
func (v *VersionIndex) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Keys returns the version identifiers in document order.
func (v *VersionIndex) Keys() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Get returns the span recorded for a version.
func (v *VersionIndex) Get(id string) (ByteSpan, bool) {
	if v == nil {
		return ByteSpan{}, false
	}
	span, ok := v.spans[id]
	return span, ok
}

// Has reports whether a version is present.
func (v *VersionIndex) Has(id string) bool {
	_, ok := v.Get(id)
	return ok
}

// Each calls fn for every version in document order until fn returns false.
func (v *VersionIndex) Each(fn func(id string, span ByteSpan) bool) {
	if v == nil {
		return
	}
	for _, id := range v.keys {
		if !fn(id, v.spans[id]) {
			return
		}
	}
}

// DocumentIndex is the result of the single scan over a packument.
type DocumentIndex struct {
	Name           string
	Description    *string
	Readme         *string
	ReadmePosition *ByteSpan
	Time           *TimeInfo
	DistTags       map[string]string
	Versions       *VersionIndex

	// timeSpan locates the "time" object so its entries can be decoded on
	// demand.
	timeSpan *ByteSpan
}

// Value is a decoded JSON value.
type Value = scanner.Value

// Member is a key/value pair of a decoded JSON object.
type Member = scanner.Member

// VersionRecord is the fully decoded metadata of one published version.
type VersionRecord struct {
	Name        string
	Version     string
	Description string
	License     string

	Dependencies         map[string]string
	DevDependencies      map[string]string
	PeerDependencies     map[string]string
	OptionalDependencies map[string]string

	// Deprecated is the deprecation message; deprecation is signalled by the
	// presence of the field, see IsDeprecated.
	Deprecated string
	deprecated bool

	Dist Dist

	// Fields is the complete decoded version object in document order.
	Fields Value
}

// IsDeprecated reports whether the version carries a "deprecated" field.
func (r *VersionRecord) IsDeprecated() bool {
	return r.deprecated
}

// Integrity returns the SRI integrity string, falling back to the SHA-1
// shasum for versions published before integrity was recorded.
func (r *VersionRecord) Integrity() string {
	if r.Dist.Integrity != "" {
		return r.Dist.Integrity
	}
	if r.Dist.Shasum != "" {
		return "sha1-" + r.Dist.Shasum
	}
	return ""
}

// Scope indicates when a dependency is required.
type Scope string

const (
	Runtime     Scope = "runtime"
	Development Scope = "development"
	Peer        Scope = "peer"
	Optional    Scope = "optional"
)

// Dependency is one entry of a version's dependency maps.
type Dependency struct {
	Name         string
	Requirements string
	Scope        Scope
	Optional     bool
}

// Dist is the distribution metadata of a version.
type Dist struct {
	Tarball      string
	Shasum       string // SHA-1, hex
	Integrity    string // sha512-..., base64
	FileCount    int64  // zero when absent
	UnpackedSize int64  // zero when absent
	Signatures   []Signature
	Attestations *Attestations
}

// Signature is a registry signature over a version's integrity.
type Signature struct {
	KeyID string
	Sig   string
}

// Attestations points at the sigstore attestation bundle for a version.
type Attestations struct {
	URL        string
	Provenance Provenance
}

// Provenance describes the build provenance predicate.
type Provenance struct {
	PredicateType string
}

// AddedVersion is a version present in the document but not in the known set.
type AddedVersion struct {
	Version string
	Span    ByteSpan
}

// DiffResult is the set difference between a document's versions and a list
// of known versions. Neither slice has a guaranteed order.
type DiffResult struct {
	AddedVersions   []AddedVersion
	RemovedVersions []string
}

// Empty reports whether the document and the known list agree.
func (d DiffResult) Empty() bool {
	return len(d.AddedVersions) == 0 && len(d.RemovedVersions) == 0
}
