package catalog

import "slices"

// Delta compares two catalog snapshots and returns a full-fidelity
// catalog containing only the records of next that are new or
// materially changed relative to prev. "Materially changed" means a
// different cover-art URL (suppressed when ignoreCovers is set) or any
// difference in the ordered audio-file URL list. Unchanged records are
// omitted. The result is suitable for downstream consumers to apply via
// Merge.
//
// prev is sorted in place to admit binary search by identifier.
func Delta(prev, next *Catalog, ignoreCovers bool) *Catalog {
	prev.Sort()

	delta := New(next.Version)
	for _, b := range next.Books {
		old, ok := prev.Find(b.ID)
		if !ok {
			delta.Add(b)
			continue
		}
		if !ignoreCovers && b.CoverURL != "" && b.CoverURL != old.CoverURL {
			delta.Add(b)
			continue
		}
		if !slices.Equal(b.AudioURLs, old.AudioURLs) {
			delta.Add(b)
		}
	}
	return delta
}
