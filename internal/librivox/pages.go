package librivox

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mkorpi/alexandria/internal/catalog"
	"github.com/mkorpi/alexandria/internal/config"
	apperrors "github.com/mkorpi/alexandria/internal/errors"
	"github.com/mkorpi/alexandria/internal/fetch"
)

// EnrichSummary accumulates the stage 2 counters.
type EnrichSummary struct {
	Processed          int
	CoversFound        int
	Blocklisted        int
	SectionsEnriched   int
	TransportFailures  int
	ExtractionFailures int
}

// Log prints the stage summary.
func (s *EnrichSummary) Log() {
	slog.Info("Page enrichment complete",
		"processed", s.Processed,
		"covers_found", s.CoversFound,
		"blocklisted", s.Blocklisted,
		"sections_enriched", s.SectionsEnriched,
		"transport_failures", s.TransportFailures,
		"extraction_failures", s.ExtractionFailures,
	)
}

// EnrichPages scrapes each record's canonical catalog page for its
// cover-art URL and, for multi-author collections marked with the
// "various authors" sentinel, per-section author and source-text links.
// Failures here are fatal only to the current record.
func EnrichPages(ctx context.Context, fetcher *fetch.Client, api *Client, cat *catalog.Catalog, settings *config.Settings) (*EnrichSummary, error) {
	summary := &EnrichSummary{}

	for _, book := range cat.Books {
		if err := apperrors.Interrupted(ctx, "page enrichment"); err != nil {
			return summary, err
		}
		if book.PageURL == "" {
			continue
		}
		if blocklisted(book.PageURL, settings.PageURLBlocklist) {
			// Known-invalid page links (forum threads and the like) are
			// cleared so no later stage trips over them.
			slog.Debug("Clearing blocklisted page URL", "id", book.ID, "url", book.PageURL)
			book.PageURL = ""
			summary.Blocklisted++
			continue
		}

		summary.Processed++
		body, err := fetcher.Text(ctx, book.PageURL)
		if err != nil {
			slog.Warn("Failed to fetch catalog page", "id", book.ID, "url", book.PageURL, "error", err)
			summary.TransportFailures++
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			slog.Warn("Failed to parse catalog page", "id", book.ID, "url", book.PageURL, "error", err)
			summary.ExtractionFailures++
			continue
		}

		if cover := extractCoverURL(doc); cover != "" {
			book.CoverURL = cover
			summary.CoversFound++
		} else {
			slog.Warn("No cover anchor on catalog page", "id", book.ID, "url", book.PageURL)
			summary.ExtractionFailures++
		}

		if hasVariousAuthor(book, settings.VariousAuthorID) {
			if err := enrichSections(ctx, api, book, doc); err != nil {
				if apperrors.IsInterruptedError(err) {
					return summary, err
				}
				// The record keeps whatever metadata it already had.
				slog.Warn("Section enrichment failed", "id", book.ID, "url", book.PageURL, "error", err)
				summary.ExtractionFailures++
				continue
			}
			summary.SectionsEnriched++
		}
	}

	summary.Log()
	return summary, nil
}

// extractCoverURL returns the href of the first download-cover anchor
// ending in .jpg, or "".
func extractCoverURL(doc *goquery.Document) string {
	var cover string
	doc.Find("a.download-cover").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if ok && strings.HasSuffix(strings.ToLower(href), ".jpg") {
			cover = href
			return false
		}
		return true
	})
	return cover
}

// enrichSections recovers per-section author identifiers and source
// links from the chapter-download table. Rows are declared in section
// order; a row-count mismatch is a hard extraction failure for the
// record.
func enrichSections(ctx context.Context, api *Client, book *catalog.Audiobook, doc *goquery.Document) error {
	table := doc.Find("table.chapter-download").First()
	if table.Length() == 0 {
		return apperrors.NewExtractionError(book.ID, book.PageURL, "no chapter-download table")
	}

	authorCol, sourceCol := -1, -1
	table.Find("th").Each(func(i int, th *goquery.Selection) {
		switch strings.TrimSpace(th.Text()) {
		case "Author":
			authorCol = i
		case "Source":
			sourceCol = i
		}
	})
	if authorCol < 0 || sourceCol < 0 {
		return apperrors.NewExtractionError(book.ID, book.PageURL, "chapter table lacks Author/Source headers")
	}

	type row struct {
		authorID  string
		sourceURL string
	}
	var rows []row
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		var r row
		if cell := cells.Eq(authorCol); cell.Length() > 0 {
			if href, ok := cell.Find("a[href]").First().Attr("href"); ok {
				r.authorID = trailingSegment(href)
			}
		}
		if cell := cells.Eq(sourceCol); cell.Length() > 0 {
			if href, ok := cell.Find("a[href]").First().Attr("href"); ok {
				r.sourceURL = href
			}
		}
		rows = append(rows, r)
	})

	if len(rows) != len(book.Sections) {
		return apperrors.NewExtractionError(book.ID, book.PageURL,
			"chapter table rows do not match sections")
	}

	for i, r := range rows {
		if err := apperrors.Interrupted(ctx, "page enrichment"); err != nil {
			return err
		}
		section := &book.Sections[i]
		if r.sourceURL != "" {
			section.TextSourceURL = r.sourceURL
		}
		if r.authorID == "" {
			continue
		}
		author, err := api.Author(ctx, r.authorID)
		if err != nil {
			if apperrors.IsNotFoundError(err) {
				slog.Debug("Section author not in API", "id", book.ID, "author_id", r.authorID)
				continue
			}
			return err
		}
		section.Authors = []catalog.Author{author}
	}
	return nil
}

func hasVariousAuthor(book *catalog.Audiobook, sentinelID string) bool {
	for _, a := range book.Authors {
		if a.ID == sentinelID {
			return true
		}
	}
	return false
}

func blocklisted(pageURL string, prefixes []string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(u.Path, prefix) {
			return true
		}
	}
	return false
}

func trailingSegment(href string) string {
	trimmed := strings.TrimRight(href, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
