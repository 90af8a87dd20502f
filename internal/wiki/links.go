// Package wiki harvests (catalog-URL, audio-URL-list) pairs from the
// static listing pages that predate the archive service carrying audio
// bundles for every item.
package wiki

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

// Summary accumulates the stage 4 counters.
type Summary struct {
	Pages             int
	Items             int
	Kept              int
	Discarded         int
	TransportFailures int
}

// Log prints the stage summary.
func (s *Summary) Log() {
	slog.Info("Wiki extraction complete",
		"pages", s.Pages,
		"items", s.Items,
		"kept", s.Kept,
		"discarded", s.Discarded,
		"transport_failures", s.TransportFailures,
	)
}

// Extract builds a fresh catalog of minimal records from the listing
// pages. Each gallery item yields one record whose page URL is the
// first catalog-domain link and whose audio URLs are every
// archive-domain link ending in .m4b. Items without a catalog-domain
// link are discarded. The records carry no identifiers; identity is
// established later by URL-keyed merging.
func Extract(ctx context.Context, fetcher *fetch.Client, settings *config.Settings) (*catalog.Catalog, *Summary, error) {
	cat := catalog.New(settings.Version)
	summary := &Summary{}

	for _, pageURL := range settings.WikiPages {
		if err := apperrors.Interrupted(ctx, "wiki extraction"); err != nil {
			return cat, summary, err
		}

		body, err := fetcher.Text(ctx, pageURL)
		if err != nil {
			slog.Warn("Failed to fetch listing page", "url", pageURL, "error", err)
			summary.TransportFailures++
			continue
		}
		summary.Pages++

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			slog.Warn("Failed to parse listing page", "url", pageURL, "error", err)
			summary.TransportFailures++
			continue
		}

		doc.Find("li.gallerybox").Each(func(_ int, item *goquery.Selection) {
			summary.Items++
			record := extractItem(item, settings)
			if record == nil {
				slog.Debug("Gallery item without catalog link discarded", "page", pageURL)
				summary.Discarded++
				return
			}
			cat.Add(record)
			summary.Kept++
		})
	}

	summary.Log()
	return cat, summary, nil
}

func extractItem(item *goquery.Selection, settings *config.Settings) *catalog.Audiobook {
	record := &catalog.Audiobook{}

	item.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		switch {
		case record.PageURL == "" && onDomain(u, settings.CatalogDomain):
			record.PageURL = href
		case onDomain(u, settings.ArchiveDomain) && strings.HasSuffix(strings.ToLower(u.Path), ".m4b"):
			record.AudioURLs = append(record.AudioURLs, href)
		}
	})

	if record.PageURL == "" {
		return nil
	}
	return record
}

func onDomain(u *url.URL, domain string) bool {
	host := strings.ToLower(u.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}
