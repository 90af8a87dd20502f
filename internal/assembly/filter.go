package assembly

import (
	"log/slog"

	"github.com/mkorpi/alexandria/internal/catalog"
)

// FilterSummary accumulates the completeness filter counters.
type FilterSummary struct {
	Kept    int
	Removed int
}

// Log prints the filter summary.
func (s *FilterSummary) Log() {
	slog.Info("Completeness filter complete", "kept", s.Kept, "removed", s.Removed)
}

// FilterIncomplete returns a new catalog holding only the records that
// carry both a page URL and an archive URL. Everything else cannot be
// presented or resolved to audio and is dropped.
func FilterIncomplete(cat *catalog.Catalog) (*catalog.Catalog, *FilterSummary) {
	summary := &FilterSummary{}
	out := catalog.New(cat.Version)

	for _, book := range cat.Books {
		if book.PageURL == "" || book.ArchiveURL == "" {
			slog.Debug("Dropping incomplete record",
				"id", book.ID,
				"title", book.Title,
				"page_url", book.PageURL,
				"archive_url", book.ArchiveURL,
			)
			summary.Removed++
			continue
		}
		out.Add(book)
		summary.Kept++
	}

	summary.Log()
	return out, summary
}
