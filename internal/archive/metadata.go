// Package archive extracts per-item metadata from the secondary hosting
// service: download counts, publish dates, cover art and audio files.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/mkorpi/alexandria/internal/catalog"
	"github.com/mkorpi/alexandria/internal/config"
	apperrors "github.com/mkorpi/alexandria/internal/errors"
	"github.com/mkorpi/alexandria/internal/fetch"
)

// itemDoc mirrors the archive metadata document. The display title
// lives under the nested "metadata" object only; the service also emits
// a same-named sibling key at the top level, which must be ignored, so
// no field is declared for it here.
type itemDoc struct {
	Identifier  string              `json:"identifier"`
	PublicDate  string              `json:"publicdate"`
	Downloads   int                 `json:"downloads"`
	Description string              `json:"description"`
	Metadata    struct {
		Title string `json:"title"`
	} `json:"metadata"`
	Files map[string]itemFile `json:"files"`
}

type itemFile struct {
	Format string `json:"format"`
	Source string `json:"source"`
}

// Some items publish their audio links only inside the free-text
// description.
var audioLinkPattern = regexp.MustCompile(`https?://[^\s"'<>)]+\.m4b`)

// Summary accumulates the stage 3 counters.
type Summary struct {
	Processed          int
	Enriched           int
	Skipped            int
	Bypassed           int
	SizeMismatches     int
	TransportFailures  int
	ExtractionFailures int
}

// Log prints the stage summary.
func (s *Summary) Log() {
	slog.Info("Archive extraction complete",
		"processed", s.Processed,
		"enriched", s.Enriched,
		"skipped", s.Skipped,
		"bypassed", s.Bypassed,
		"size_mismatches", s.SizeMismatches,
		"transport_failures", s.TransportFailures,
		"extraction_failures", s.ExtractionFailures,
	)
}

// ExtractAll runs the archive extraction over every record. In normal
// mode records without an archive URL are skipped; in overwrite mode
// (download-count refresh) records whose count is already non-zero are
// bypassed instead. A record whose count legitimately fell back to zero
// is therefore never refreshed; the bypass counter makes the effect
// visible across runs.
func ExtractAll(ctx context.Context, fetcher *fetch.Client, cat *catalog.Catalog, settings *config.Settings) (*Summary, error) {
	summary := &Summary{}

	for _, book := range cat.Books {
		if err := apperrors.Interrupted(ctx, "archive extraction"); err != nil {
			return summary, err
		}
		if book.ArchiveURL == "" {
			summary.Skipped++
			continue
		}
		if settings.OverwriteDownloads && book.Downloads != 0 {
			summary.Bypassed++
			continue
		}

		summary.Processed++
		if err := Extract(ctx, fetcher, book, settings, summary); err != nil {
			if apperrors.IsInterruptedError(err) {
				return summary, err
			}
			if apperrors.IsExtractionError(err) {
				slog.Warn("Archive extraction failed", "id", book.ID, "url", book.ArchiveURL, "error", err)
				summary.ExtractionFailures++
			} else {
				slog.Warn("Archive fetch failed", "id", book.ID, "url", book.ArchiveURL, "error", err)
				summary.TransportFailures++
			}
			continue
		}
		summary.Enriched++
	}

	summary.Log()
	return summary, nil
}

// Extract fetches one record's archive metadata and overlays it onto
// the record via the destructive merge protocol. The freshly extracted
// fragment's section list is cleared before the merge so it cannot
// clobber the positionally reconciled section list.
func Extract(ctx context.Context, fetcher *fetch.Client, book *catalog.Audiobook, settings *config.Settings, summary *Summary) error {
	url := fmt.Sprintf(settings.ArchiveAPITemplate, strings.TrimSuffix(book.ArchiveURL, "/"))
	body, err := fetcher.Text(ctx, url)
	if err != nil {
		return err
	}

	var doc itemDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return apperrors.NewExtractionError(book.ID, url, fmt.Sprintf("bad metadata document: %v", err))
	}
	if doc.Identifier == "" {
		return apperrors.NewExtractionError(book.ID, url, "metadata document has no identifier")
	}

	fragment, audioSections := doc.toFragment(book.ArchiveURL)

	// Reconcile section audio positionally; existing Section objects are
	// never discarded.
	if len(book.Sections) > 0 {
		if len(audioSections) != len(book.Sections) {
			slog.Warn("Archive file count differs from section count",
				"id", book.ID,
				"sections", len(book.Sections),
				"audio_files", len(audioSections),
			)
			summary.SizeMismatches++
		}
		for i := 0; i < len(book.Sections) && i < len(audioSections); i++ {
			book.Sections[i].ListenURL = audioSections[i]
		}
	} else if len(audioSections) > 0 {
		for i, listenURL := range audioSections {
			book.Sections = append(book.Sections, catalog.Section{
				Number:    i + 1,
				ListenURL: listenURL,
				BookID:    book.ID,
			})
		}
	}

	fragment.Sections = nil
	book.Merge(fragment)
	return nil
}

// toFragment converts the wire document into a merge fragment plus the
// ordered per-section listening URLs. Only files whose source is the
// literal "original" count; derivative and transcoded copies are
// ignored.
func (doc *itemDoc) toFragment(archiveURL string) (*catalog.Audiobook, []string) {
	fragment := &catalog.Audiobook{
		Work: catalog.Work{
			DisplayTitle: strings.TrimSpace(doc.Metadata.Title),
		},
		Downloads:  doc.Downloads,
		PublicDate: doc.PublicDate,
	}

	downloadBase := strings.Replace(strings.TrimSuffix(archiveURL, "/"), "/details/", "/download/", 1)

	// File entries are keyed by name; names carry the section ordering.
	names := make([]string, 0, len(doc.Files))
	for name := range doc.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	var audioSections []string
	for _, name := range names {
		file := doc.Files[name]
		if file.Source != "original" {
			continue
		}
		fileURL := downloadBase + ensureLeadingSlash(name)
		switch {
		case strings.HasSuffix(strings.ToLower(name), ".jpg"):
			if strings.Contains(strings.ToLower(file.Format), "thumb") {
				fragment.ThumbnailURL = fileURL
			} else {
				fragment.CoverURL = fileURL
			}
		case strings.HasSuffix(strings.ToLower(name), ".mp3"):
			audioSections = append(audioSections, fileURL)
		case strings.HasSuffix(strings.ToLower(name), ".m4b"):
			fragment.AudioURLs = append(fragment.AudioURLs, fileURL)
		}
	}

	for _, link := range audioLinkPattern.FindAllString(doc.Description, -1) {
		if !contains(fragment.AudioURLs, link) {
			fragment.AudioURLs = append(fragment.AudioURLs, link)
		}
	}

	return fragment, audioSections
}

func ensureLeadingSlash(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
