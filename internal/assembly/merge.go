package assembly

import (
	"log/slog"

	"github.com/mkorpi/alexandria/internal/catalog"
)

// MergeSummary accumulates the audio-link merge counters.
type MergeSummary struct {
	Linked  int
	Kept    int
	Orphans int
}

// Log prints the merge summary.
func (s *MergeSummary) Log() {
	slog.Info("Audio link merge complete",
		"linked", s.Linked,
		"kept", s.Kept,
		"orphans", s.Orphans,
	)
}

// MergeAudioLinks copies audio URLs from the link records onto the
// matching catalog records, keyed by normalized page URL. A record that
// already carries audio URLs keeps them; link records citing a page no
// catalog record knows are logged and dropped.
func MergeAudioLinks(cat *catalog.Catalog, links *catalog.Catalog) *MergeSummary {
	summary := &MergeSummary{}

	byPage := make(map[string]*catalog.Audiobook, cat.Len())
	for _, book := range cat.Books {
		if book.PageURL != "" {
			byPage[NormalizeURL(book.PageURL)] = book
		}
	}

	for _, link := range links.Books {
		book, ok := byPage[NormalizeURL(link.PageURL)]
		if !ok {
			slog.Warn("Audio links for unknown page", "url", link.PageURL)
			summary.Orphans++
			continue
		}
		if len(book.AudioURLs) > 0 {
			summary.Kept++
			continue
		}
		book.AudioURLs = link.AudioURLs
		summary.Linked++
	}

	summary.Log()
	return summary
}
