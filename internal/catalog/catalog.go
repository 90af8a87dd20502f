package catalog

import (
	"slices"
	"strconv"
	"strings"
)

// Catalog is an ordered collection of audiobook records. After Sort the
// collection is strictly ordered by identifier, which enables binary
// search; duplicate identifiers are resolved by Merge's record-level
// set semantics.
type Catalog struct {
	Version string       `json:"version,omitempty" xml:"version,attr,omitempty"`
	Books   []*Audiobook `json:"books" xml:"books>book"`
}

// New returns an empty catalog carrying the given format version.
func New(version string) *Catalog {
	return &Catalog{Version: version}
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.Books)
}

// Add appends a record to the catalog.
func (c *Catalog) Add(b *Audiobook) {
	c.Books = append(c.Books, b)
}

// Append concatenates another catalog's records verbatim. Used when a
// harvest resumes from a new starting identifier on top of an earlier
// snapshot; callers re-sort afterwards.
func (c *Catalog) Append(other *Catalog) {
	c.Books = append(c.Books, other.Books...)
}

// Sort orders the records by identifier. Identifiers are numeric
// strings; purely numeric ones sort by value so that "99" precedes
// "100".
func (c *Catalog) Sort() {
	slices.SortFunc(c.Books, func(a, b *Audiobook) int {
		return compareID(a.ID, b.ID)
	})
}

// Find binary-searches a sorted catalog for the record with the given
// identifier. Returns nil, false when no record matches.
func (c *Catalog) Find(id string) (*Audiobook, bool) {
	i, ok := slices.BinarySearchFunc(c.Books, id, func(b *Audiobook, target string) int {
		return compareID(b.ID, target)
	})
	if !ok {
		return nil, false
	}
	return c.Books[i], true
}

// Merge treats the catalog as a set keyed by record identifier: each
// incoming record that collides with an existing one replaces it
// outright (record-level last-writer-wins, not a field overlay). New
// identifiers are appended. The result is re-sorted. This is how
// "updates" and "corrections" feeds are applied over a baseline
// snapshot.
func (c *Catalog) Merge(other *Catalog) {
	index := make(map[string]int, len(c.Books))
	for i, b := range c.Books {
		index[b.ID] = i
	}
	for _, incoming := range other.Books {
		if i, ok := index[incoming.ID]; ok {
			c.Books[i] = incoming
			continue
		}
		index[incoming.ID] = len(c.Books)
		c.Books = append(c.Books, incoming)
	}
	c.Sort()
}

// Finalize applies the catalog-boot normalizations to every record and
// sorts the result.
func (c *Catalog) Finalize(defaultGenres []Genre) {
	for _, b := range c.Books {
		b.Finalize(defaultGenres)
	}
	c.Sort()
}

// HighestID returns the numerically largest identifier in the catalog,
// or 0 for an empty catalog. Logged at the end of a harvest so the next
// run knows where to resume.
func (c *Catalog) HighestID() int {
	var highest int
	for _, b := range c.Books {
		if n, err := strconv.Atoi(b.ID); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

func compareID(a, b string) int {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
