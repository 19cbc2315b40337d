package core

// Diff compares the versions in an index against a list of previously known
// version identifiers. AddedVersions holds every indexed version missing from
// known, in document order. RemovedVersions holds every distinct entry of
// known missing from the index, in input order. Identifiers are compared by
// exact string equality.
func Diff(versions *VersionIndex, known []string) DiffResult {
	seen := make(map[string]struct{}, len(known))
	var result DiffResult

	for _, id := range known {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !versions.Has(id) {
			result.RemovedVersions = append(result.RemovedVersions, id)
		}
	}

	versions.Each(func(id string, span ByteSpan) bool {
		if _, ok := seen[id]; !ok {
			result.AddedVersions = append(result.AddedVersions, AddedVersion{Version: id, Span: span})
		}
		return true
	})

	return result
}
