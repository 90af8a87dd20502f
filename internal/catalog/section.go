package catalog

// Section is one chapter of an audiobook. BookID is a weak reference to
// the parent audiobook's identifier: identity only, no ownership. The
// composite key (BookID, Number) is globally unique within a catalog.
type Section struct {
	Work
	Number    int      `json:"section_number" xml:"number"`
	ListenURL string   `json:"listen_url,omitempty" xml:"listen-url,omitempty"`
	Playtime  int      `json:"playtime,omitempty" xml:"playtime,omitempty"`
	Readers   []Reader `json:"readers,omitempty" xml:"readers>reader,omitempty"`
	BookID    string   `json:"book_id,omitempty" xml:"book-id,omitempty"`
}

// TitleKey returns the normalized sorting key for a section title.
func (s *Section) TitleKey() string {
	return titleKey(s.Title)
}

// DurationSeconds returns the section's playing time in seconds.
func (s *Section) DurationSeconds() int {
	return s.Playtime
}

// Merge overlays every non-empty field of src onto s, per the
// destructive merge protocol. The composite key fields (BookID, Number)
// follow the same rule as the identifier: set once, never regenerated,
// so they are only adopted when s has none.
func (s *Section) Merge(src *Section) {
	mergeWork(&s.Work, &src.Work)
	if s.BookID == "" {
		s.BookID = src.BookID
	}
	if s.Number == 0 {
		s.Number = src.Number
	}
	if src.ListenURL != "" {
		s.ListenURL = src.ListenURL
	}
	if src.Playtime != 0 {
		s.Playtime = src.Playtime
	}
	if len(src.Readers) > 0 {
		s.Readers = src.Readers
	}
}
