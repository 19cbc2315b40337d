package core

import (
	"errors"
	"maps"
)

// Package is an indexed npm packument ("package document").
// See https://github.com/npm/registry/blob/main/docs/responses/package-metadata.md
//
// A Package borrows the buffer it was built from: the buffer must not be
// modified while the Package or any ByteSpan obtained from it is in use.
// A Package is immutable and safe for concurrent use.
type Package struct {
	data  []byte
	index *DocumentIndex
}

// FromBytes indexes a packument. It fails with a *SyntaxError if data is not
// a well-formed JSON object and with a *MissingFieldError if it has no string
// "name". No Package is returned on error.
func FromBytes(data []byte) (*Package, error) {
	idx, err := BuildIndex(data)
	if err != nil {
		return nil, err
	}
	return &Package{data: data, index: idx}, nil
}

// Bytes returns the buffer the package was built from.
func (p *Package) Bytes() []byte {
	return p.data
}

// Index returns a shallow copy of the document index.
func (p *Package) Index() DocumentIndex {
	return *p.index
}

func (p *Package) Name() string {
	return p.index.Name
}

func (p *Package) Description() (string, bool) {
	if p.index.Description == nil {
		return "", false
	}
	return *p.index.Description, true
}

func (p *Package) Readme() (string, bool) {
	if p.index.Readme == nil {
		return "", false
	}
	return *p.index.Readme, true
}

// ReadmePosition returns the span of the encoded readme string, quotes
// included.
func (p *Package) ReadmePosition() (ByteSpan, bool) {
	if p.index.ReadmePosition == nil {
		return ByteSpan{}, false
	}
	return *p.index.ReadmePosition, true
}

// Time returns the shallow "time" object, or nil when the document has none.
func (p *Package) Time() *TimeInfo {
	return p.index.Time
}

// Modified returns time.modified, or "" when absent.
func (p *Package) Modified() string {
	if p.index.Time == nil {
		return ""
	}
	return p.index.Time.Modified
}

// TimeEntries decodes every string-valued member of the "time" object: the
// created and modified stamps plus one publish time per version.
func (p *Package) TimeEntries() ([]TimeEntry, error) {
	if p.index.timeSpan == nil {
		return nil, nil
	}
	return timeEntries(p.data, *p.index.timeSpan)
}

// IsUnpublished reports whether the document's "time" object carries an
// "unpublished" marker.
func (p *Package) IsUnpublished() bool {
	return p.index.Time != nil && p.index.Time.HasUnpublishedMarker
}

// DistTags returns a copy of the dist-tags mapping.
func (p *Package) DistTags() map[string]string {
	return maps.Clone(p.index.DistTags)
}

// DistTag returns the version a tag points at.
func (p *Package) DistTag(tag string) (string, bool) {
	v, ok := p.index.DistTags[tag]
	return v, ok
}

// Versions returns the version index.
func (p *Package) Versions() *VersionIndex {
	return p.index.Versions
}

// Version materializes a single version. It returns nil, nil when the
// document has no such version.
func (p *Package) Version(id string) (*VersionRecord, error) {
	span, ok := p.index.Versions.Get(id)
	if !ok {
		return nil, nil
	}
	rec, err := MaterializeVersion(p.data, span)
	if err != nil {
		var malformed *MalformedVersionError
		if errors.As(err, &malformed) {
			malformed.Version = id
		}
		return nil, err
	}
	return rec, nil
}

// LatestVersion materializes the version the "latest" dist-tag points at.
// It returns nil, nil when there is no latest tag or the tag names a version
// the document does not contain.
func (p *Package) LatestVersion() (*VersionRecord, error) {
	id, ok := p.index.DistTags["latest"]
	if !ok {
		return nil, nil
	}
	return p.Version(id)
}

// Diff compares the document's versions with a list of known versions.
func (p *Package) Diff(known []string) DiffResult {
	return Diff(p.index.Versions, known)
}
