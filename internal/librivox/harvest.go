package librivox

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mkorpi/alexandria/internal/catalog"
	"github.com/mkorpi/alexandria/internal/config"
	apperrors "github.com/mkorpi/alexandria/internal/errors"
)

// HarvestSummary accumulates the stage 1 counters reported at stage
// end. The summary is the primary data-quality signal across runs.
type HarvestSummary struct {
	Processed int
	Harvested int
	NotFound  int
	Skipped   int
	HighestID int
}

// Log prints the stage summary.
func (s *HarvestSummary) Log() {
	slog.Info("Harvest complete",
		"processed", s.Processed,
		"harvested", s.Harvested,
		"not_found", s.NotFound,
		"skipped", s.Skipped,
		"highest_id", s.HighestID,
	)
}

// Harvest polls the record API one identifier at a time, from
// settings.StartID up to settings.MaxID, and builds the master catalog.
// Identifiers are sparse, so "not found" is the expected frequent case
// and the loop simply continues; any other transport error aborts the
// whole stage. Batch queries against this API return unreliable result
// sets, which is why the harvest stays strictly one call per id.
//
// Cancellation is polled before each identifier; partial progress up to
// the interruption stays valid.
func Harvest(ctx context.Context, api *Client, settings *config.Settings) (*catalog.Catalog, *HarvestSummary, error) {
	cat := catalog.New(settings.Version)
	summary := &HarvestSummary{}

	slog.Info("Harvesting records", "start_id", settings.StartID, "max_id", settings.MaxID, "limit", settings.Limit)

	for id := settings.StartID; id <= settings.MaxID; id++ {
		if settings.Limit > 0 && summary.Processed >= settings.Limit {
			break
		}
		if err := apperrors.Interrupted(ctx, "harvest"); err != nil {
			return cat, summary, err
		}
		if slices.Contains(settings.SkipIDs, id) {
			summary.Skipped++
			continue
		}

		summary.Processed++
		book, err := api.Book(ctx, id)
		if err != nil {
			if apperrors.IsNotFoundError(err) {
				summary.NotFound++
				continue
			}
			// Transport failures stop the harvest outright; the caller
			// has already snapshotted everything before this stage.
			return cat, summary, fmt.Errorf("harvest aborted at id %d: %w", id, err)
		}

		cat.Add(book)
		summary.Harvested++
		if id > summary.HighestID {
			summary.HighestID = id
		}
	}

	cat.Sort()
	summary.Log()
	return cat, summary, nil
}
