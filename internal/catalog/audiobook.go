package catalog

import (
	"strings"
	"unicode"
)

// Audiobook is a complete catalog record. Created nearly empty by the
// harvester, progressively enriched by the page, archive and wiki
// stages, and finalized (genre defaulting, reader aggregation, author
// propagation) at catalog boot.
type Audiobook struct {
	Work
	PageURL      string    `json:"url_librivox,omitempty" xml:"page-url,omitempty"`
	RSSURL       string    `json:"url_rss,omitempty" xml:"rss-url,omitempty"`
	ZipURL       string    `json:"url_zip_file,omitempty" xml:"zip-url,omitempty"`
	ProjectURL   string    `json:"url_project,omitempty" xml:"project-url,omitempty"`
	ArchiveURL   string    `json:"url_iarchive,omitempty" xml:"archive-url,omitempty"`
	TotalSeconds int       `json:"totaltimesecs,omitempty" xml:"total-seconds,omitempty"`
	CoverURL     string    `json:"cover_url,omitempty" xml:"cover-url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty" xml:"thumbnail-url,omitempty"`
	AudioURLs    []string  `json:"audio_urls,omitempty" xml:"audio-urls>url,omitempty"`
	Downloads    int       `json:"downloads,omitempty" xml:"downloads,omitempty"`
	PublicDate   string    `json:"publicdate,omitempty" xml:"public-date,omitempty"`
	Sections     []Section `json:"sections,omitempty" xml:"sections>section,omitempty"`
}

// TitleKey returns the normalized sorting key for the audiobook title,
// preferring the display title when present.
func (b *Audiobook) TitleKey() string {
	if b.DisplayTitle != "" {
		return titleKey(b.DisplayTitle)
	}
	return titleKey(b.Title)
}

// DurationSeconds returns the total playing time in seconds, falling
// back to the sum of section playtimes when the API total is missing.
func (b *Audiobook) DurationSeconds() int {
	if b.TotalSeconds > 0 {
		return b.TotalSeconds
	}
	var total int
	for i := range b.Sections {
		total += b.Sections[i].Playtime
	}
	return total
}

// Readers returns the distinct readers across all sections, in first
// appearance order, deduplicated by normalized key.
func (b *Audiobook) Readers() []Reader {
	var readers []Reader
	seen := make(map[string]bool)
	for i := range b.Sections {
		for _, r := range b.Sections[i].Readers {
			key := r.Key()
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			readers = append(readers, r)
		}
	}
	return readers
}

// Merge overlays every non-empty field of src onto b, per the
// destructive merge protocol: non-empty source fields win, empty source
// fields leave the target untouched. Callers that must preserve an
// already reconciled section list clear src.Sections first.
func (b *Audiobook) Merge(src *Audiobook) {
	mergeWork(&b.Work, &src.Work)
	if src.PageURL != "" {
		b.PageURL = src.PageURL
	}
	if src.RSSURL != "" {
		b.RSSURL = src.RSSURL
	}
	if src.ZipURL != "" {
		b.ZipURL = src.ZipURL
	}
	if src.ProjectURL != "" {
		b.ProjectURL = src.ProjectURL
	}
	if src.ArchiveURL != "" {
		b.ArchiveURL = src.ArchiveURL
	}
	if src.TotalSeconds != 0 {
		b.TotalSeconds = src.TotalSeconds
	}
	if src.CoverURL != "" {
		b.CoverURL = src.CoverURL
	}
	if src.ThumbnailURL != "" {
		b.ThumbnailURL = src.ThumbnailURL
	}
	if len(src.AudioURLs) > 0 {
		b.AudioURLs = src.AudioURLs
	}
	if src.Downloads != 0 {
		b.Downloads = src.Downloads
	}
	if src.PublicDate != "" {
		b.PublicDate = src.PublicDate
	}
	if len(src.Sections) > 0 {
		b.Sections = src.Sections
	}
}

// Finalize applies the catalog-boot normalizations: default genres for
// records without any, and author propagation from the audiobook down
// to sections that have none of their own.
func (b *Audiobook) Finalize(defaultGenres []Genre) {
	if len(b.Genres) == 0 && len(defaultGenres) > 0 {
		b.Genres = defaultGenres
	}
	for i := range b.Sections {
		if len(b.Sections[i].Authors) == 0 {
			b.Sections[i].Authors = b.Authors
		}
		if b.Sections[i].BookID == "" {
			b.Sections[i].BookID = b.ID
		}
	}
}

// titleKey lower-cases a title and strips leading punctuation and
// whitespace so that quoted titles sort with their unquoted peers.
func titleKey(title string) string {
	key := strings.ToLower(strings.TrimSpace(title))
	return strings.TrimLeftFunc(key, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}
