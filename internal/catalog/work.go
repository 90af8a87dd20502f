package catalog

// Work holds the fields shared by audiobooks and their sections. The
// identifier is assigned once by the record API during harvesting and
// is never regenerated; it is the source-of-truth unique key.
//
// Work is embedded by value in Audiobook and Section rather than acting
// as a base class; variant-specific behavior lives on the embedding
// types.
type Work struct {
	ID            string   `json:"id" xml:"id"`
	Title         string   `json:"title" xml:"title"`
	DisplayTitle  string   `json:"display_title,omitempty" xml:"display-title,omitempty"`
	Description   string   `json:"description,omitempty" xml:"description,omitempty"`
	TextSourceURL string   `json:"url_text_source,omitempty" xml:"text-source-url,omitempty"`
	Language      Language `json:"language,omitempty" xml:"language,omitempty"`
	CopyrightYear string   `json:"copyright_year,omitempty" xml:"copyright-year,omitempty"`
	Authors       []Author `json:"authors,omitempty" xml:"authors>author,omitempty"`
	Genres        []Genre  `json:"genres,omitempty" xml:"genres>genre,omitempty"`
	Translators   []Author `json:"translators,omitempty" xml:"translators>translator,omitempty"`
}

// mergeWork overlays every non-empty field of src onto dst. Empty
// fields in src leave dst untouched. The identifier is deliberately
// excluded: it is assigned exactly once by the harvester.
func mergeWork(dst, src *Work) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.DisplayTitle != "" {
		dst.DisplayTitle = src.DisplayTitle
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.TextSourceURL != "" {
		dst.TextSourceURL = src.TextSourceURL
	}
	if src.Language != "" {
		dst.Language = src.Language
	}
	if src.CopyrightYear != "" {
		dst.CopyrightYear = src.CopyrightYear
	}
	if len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if len(src.Genres) > 0 {
		dst.Genres = src.Genres
	}
	if len(src.Translators) > 0 {
		dst.Translators = src.Translators
	}
}
