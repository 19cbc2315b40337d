package core

import (
	"github.com/git-pkgs/packument/internal/scanner"
)

type indexBuilder struct {
	idx     DocumentIndex
	present map[string]bool
}

// BuildIndex scans buf once and returns the index of its top-level fields.
// buf must hold a JSON object with a string "name" member. The index refers
// back into buf through ByteSpans but does not retain it.
func BuildIndex(buf []byte) (*DocumentIndex, error) {
	s := scanner.New(buf)

	start := s.Mark()
	kind, err := s.Peek()
	if err != nil {
		return nil, err
	}
	if kind != scanner.Object {
		return nil, s.Errorf(start, "top-level value is a %s, not an object", kind)
	}

	b := &indexBuilder{
		idx: DocumentIndex{
			DistTags: map[string]string{},
			Versions: newVersionIndex(),
		},
		present: make(map[string]bool, len(fieldRules)),
	}

	err = s.Object(func(key string) error {
		rule := ruleFor(key)
		if rule == nil {
			return s.SkipValue()
		}
		ok, err := rule.extract(b, s)
		if err != nil {
			return err
		}
		b.present[key] = ok
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.ExpectEOF(); err != nil {
		return nil, err
	}

	for _, rule := range fieldRules {
		if rule.policy == policyRequired && !b.present[rule.key] {
			return nil, &MissingFieldError{Field: rule.key}
		}
	}
	return &b.idx, nil
}

// optionalString decodes a string member, skipping values of any other kind.
func optionalString(s *scanner.Scanner) (string, bool, error) {
	kind, err := s.Peek()
	if err != nil {
		return "", false, err
	}
	if kind != scanner.String {
		return "", false, s.SkipValue()
	}
	v, err := s.DecodeString()
	return v, err == nil, err
}

func extractName(b *indexBuilder, s *scanner.Scanner) (bool, error) {
	name, ok, err := optionalString(s)
	b.idx.Name = name
	return ok, err
}

func extractDescription(b *indexBuilder, s *scanner.Scanner) (bool, error) {
	desc, ok, err := optionalString(s)
	b.idx.Description = nil
	if ok {
		b.idx.Description = &desc
	}
	return ok, err
}

func extractReadme(b *indexBuilder, s *scanner.Scanner) (bool, error) {
	start := s.Mark()
	readme, ok, err := optionalString(s)
	b.idx.Readme, b.idx.ReadmePosition = nil, nil
	if ok {
		b.idx.Readme = &readme
		b.idx.ReadmePosition = &ByteSpan{Start: start, End: s.Offset()}
	}
	return ok, err
}

func extractTime(b *indexBuilder, s *scanner.Scanner) (bool, error) {
	b.idx.Time, b.idx.timeSpan = nil, nil

	start := s.Mark()
	kind, err := s.Peek()
	if err != nil {
		return false, err
	}
	if kind != scanner.Object {
		return false, s.SkipValue()
	}

	info := &TimeInfo{}
	err = s.Object(func(key string) error {
		switch key {
		case "unpublished":
			info.HasUnpublishedMarker = true
			return s.SkipValue()
		case "created":
			v, ok, err := optionalString(s)
			if ok {
				info.Created = v
			}
			return err
		case "modified":
			v, ok, err := optionalString(s)
			if ok {
				info.Modified = v
			}
			return err
		}
		return s.SkipValue()
	})
	if err != nil {
		return false, err
	}
	b.idx.Time = info
	b.idx.timeSpan = &ByteSpan{Start: start, End: s.Offset()}
	return true, nil
}

func extractDistTags(b *indexBuilder, s *scanner.Scanner) (bool, error) {
	tags := map[string]string{}
	b.idx.DistTags = tags

	kind, err := s.Peek()
	if err != nil {
		return false, err
	}
	if kind != scanner.Object {
		return false, s.SkipValue()
	}
	err = s.Object(func(tag string) error {
		v, ok, err := optionalString(s)
		if ok {
			tags[tag] = v
		} else {
			delete(tags, tag)
		}
		return err
	})
	return err == nil, err
}

// indexVersions records each member of "versions" with the span of its value.
// Version values are validated by the skip but never decoded.
func indexVersions(b *indexBuilder, s *scanner.Scanner) (bool, error) {
	versions := newVersionIndex()
	b.idx.Versions = versions

	kind, err := s.Peek()
	if err != nil {
		return false, err
	}
	if kind != scanner.Object {
		return false, s.SkipValue()
	}
	err = s.Object(func(id string) error {
		start := s.Mark()
		if err := s.SkipValue(); err != nil {
			return err
		}
		versions.set(id, ByteSpan{Start: start, End: s.Offset()})
		return nil
	})
	return err == nil, err
}

// timeEntries decodes the string-valued members of the "time" object at span.
// The "unpublished" marker is not included.
func timeEntries(buf []byte, span ByteSpan) ([]TimeEntry, error) {
	s := scanner.NewAt(buf[:span.End], span.Start)
	var entries []TimeEntry
	err := s.Object(func(key string) error {
		if key == "unpublished" {
			return s.SkipValue()
		}
		v, ok, err := optionalString(s)
		if ok {
			entries = append(entries, TimeEntry{Key: key, Value: v})
		}
		return err
	})
	return entries, err
}
