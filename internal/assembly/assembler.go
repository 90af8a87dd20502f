package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mkorpi/alexandria/internal/archive"
	"github.com/mkorpi/alexandria/internal/catalog"
	"github.com/mkorpi/alexandria/internal/config"
	apperrors "github.com/mkorpi/alexandria/internal/errors"
	"github.com/mkorpi/alexandria/internal/fetch"
	"github.com/mkorpi/alexandria/internal/fileutil"
	"github.com/mkorpi/alexandria/internal/genres"
	"github.com/mkorpi/alexandria/internal/librivox"
	"github.com/mkorpi/alexandria/internal/snapshot"
	"github.com/mkorpi/alexandria/internal/wiki"
)

// Stage numbers of the persisted snapshots. Harvest through wiki
// extraction each write one; the merge mutates in memory and the
// completeness filter writes the final snapshot.
const (
	stageHarvest = 1
	stagePages   = 2
	stageArchive = 3
	stageWiki    = 4
	stageFinal   = 7
)

// Assembler runs the build stages against one build directory.
type Assembler struct {
	Settings *config.Settings
	Fetcher  *fetch.Client
	API      *librivox.Client
	Genres   *genres.Table
}

// New wires an Assembler from resolved settings.
func New(settings *config.Settings, fetcher *fetch.Client) (*Assembler, error) {
	table, err := genres.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load genre table: %w", err)
	}
	return &Assembler{
		Settings: settings,
		Fetcher:  fetcher,
		API:      librivox.NewClient(fetcher, settings),
		Genres:   table,
	}, nil
}

// BuildDir returns the current build's output directory.
func (a *Assembler) BuildDir() string {
	return filepath.Join(a.Settings.ProjectDir, a.Settings.CurrBuild)
}

func (a *Assembler) stagePath(stage int) string {
	return filepath.Join(a.BuildDir(), fmt.Sprintf("catalog-stage%d.xml", stage))
}

// FinalPath returns the final catalog snapshot location.
func (a *Assembler) FinalPath() string {
	return a.stagePath(stageFinal)
}

// DeltaPath returns the delta snapshot location.
func (a *Assembler) DeltaPath() string {
	return filepath.Join(a.BuildDir(), "delta.xml")
}

// loadStage reads an existing stage snapshot. Overwrite mode never
// resumes; every stage is recomputed.
func (a *Assembler) loadStage(stage int) (*catalog.Catalog, bool) {
	if config.OverwriteFiles {
		return nil, false
	}
	path := a.stagePath(stage)
	if !fileutil.FileExists(path) {
		return nil, false
	}
	cat, err := snapshot.Read(path)
	if err != nil {
		slog.Warn("Unreadable stage snapshot, recomputing", "path", path, "error", err)
		return nil, false
	}
	slog.Info("Resuming from stage snapshot", "stage", stage, "records", cat.Len())
	return cat, true
}

func (a *Assembler) writeStage(stage int, cat *catalog.Catalog) error {
	path := a.stagePath(stage)
	if err := snapshot.Write(path, cat); err != nil {
		return fmt.Errorf("failed to write stage %d snapshot: %w", stage, err)
	}
	slog.Info("Stage snapshot written", "stage", stage, "path", path, "records", cat.Len())
	return nil
}

// AssembleCatalog runs the full stage sequence and returns the final
// catalog. Each completed stage is snapshotted so an interrupted run
// resumes where it stopped instead of re-harvesting from scratch.
func (a *Assembler) AssembleCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if err := os.MkdirAll(a.BuildDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}

	cat, err := a.harvested(ctx)
	if err != nil {
		return nil, err
	}

	if next, ok := a.loadStage(stagePages); ok {
		cat = next
	} else {
		if _, err := librivox.EnrichPages(ctx, a.Fetcher, a.API, cat, a.Settings); err != nil {
			return nil, err
		}
		if err := a.writeStage(stagePages, cat); err != nil {
			return nil, err
		}
	}

	if next, ok := a.loadStage(stageArchive); ok {
		cat = next
	} else {
		if _, err := archive.ExtractAll(ctx, a.Fetcher, cat, a.Settings); err != nil {
			return nil, err
		}
		if err := a.writeStage(stageArchive, cat); err != nil {
			return nil, err
		}
	}

	links, ok := a.loadStage(stageWiki)
	if !ok {
		links, _, err = wiki.Extract(ctx, a.Fetcher, a.Settings)
		if err != nil {
			return nil, err
		}
		if err := a.writeStage(stageWiki, links); err != nil {
			return nil, err
		}
	}

	MergeAudioLinks(cat, links)
	a.canonicalizeGenres(cat)
	cat.Finalize([]catalog.Genre{a.Genres.Default()})

	final, _ := FilterIncomplete(cat)
	final.Sort()
	if err := a.writeStage(stageFinal, final); err != nil {
		return nil, err
	}
	if err := snapshot.WriteFormatted(filepath.Join(a.BuildDir(), "catalog.xml"), final); err != nil {
		return nil, fmt.Errorf("failed to write formatted catalog: %w", err)
	}

	return final, nil
}

func (a *Assembler) harvested(ctx context.Context) (*catalog.Catalog, error) {
	if cat, ok := a.loadStage(stageHarvest); ok {
		return cat, nil
	}
	cat, _, err := librivox.Harvest(ctx, a.API, a.Settings)
	if err != nil {
		return nil, err
	}
	if err := a.writeStage(stageHarvest, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (a *Assembler) canonicalizeGenres(cat *catalog.Catalog) {
	for _, book := range cat.Books {
		for i, g := range book.Genres {
			book.Genres[i] = a.Genres.Canonical(g)
		}
	}
}

// AssembleDelta computes the change set between the previous and the
// current build's final snapshots and writes it into the current build
// directory. A missing previous snapshot yields a delta containing
// every current record.
func (a *Assembler) AssembleDelta() (*catalog.Catalog, error) {
	curr, err := snapshot.Read(a.stagePath(stageFinal))
	if err != nil {
		return nil, fmt.Errorf("failed to read current catalog: %w", err)
	}

	prev := catalog.New(curr.Version)
	if a.Settings.PrevBuild != "" {
		prevPath := filepath.Join(a.Settings.ProjectDir, a.Settings.PrevBuild,
			fmt.Sprintf("catalog-stage%d.xml", stageFinal))
		if fileutil.FileExists(prevPath) {
			prev, err = snapshot.Read(prevPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read previous catalog: %w", err)
			}
		} else {
			slog.Warn("No previous build snapshot, delta covers everything", "path", prevPath)
		}
	}

	delta := catalog.Delta(prev, curr, a.Settings.KeepCovers)
	slog.Info("Delta computed",
		"previous", prev.Len(),
		"current", curr.Len(),
		"changed", delta.Len(),
	)

	if err := snapshot.WriteFormatted(a.DeltaPath(), delta); err != nil {
		return nil, fmt.Errorf("failed to write delta: %w", err)
	}
	return delta, nil
}

// CoverSummary accumulates the cover download counters.
type CoverSummary struct {
	Downloaded int
	Skipped    int
	Failures   int
}

// Log prints the cover download summary.
func (s *CoverSummary) Log() {
	slog.Info("Cover download complete",
		"downloaded", s.Downloaded,
		"skipped", s.Skipped,
		"failures", s.Failures,
	)
}

// DownloadCovers fetches cover art for every record that cites one and
// generates thumbnails alongside. Individual failures are logged and
// counted; only cancellation aborts the pass.
func (a *Assembler) DownloadCovers(ctx context.Context, cat *catalog.Catalog) (*CoverSummary, error) {
	summary := &CoverSummary{}

	for _, book := range cat.Books {
		if err := apperrors.Interrupted(ctx, "cover download"); err != nil {
			summary.Log()
			return summary, err
		}
		if book.CoverURL == "" {
			summary.Skipped++
			continue
		}
		result, err := fileutil.DownloadCover(fileutil.CoverDownloadOptions{
			URL:          book.CoverURL,
			OutputDir:    a.BuildDir(),
			Filename:     fileutil.BuildCoverFilename(book.Title),
			UpdateCovers: config.UpdateCovers,
		})
		if err != nil {
			slog.Warn("Cover download failed", "id", book.ID, "url", book.CoverURL, "error", err)
			summary.Failures++
			continue
		}
		if result.Downloaded {
			summary.Downloaded++
		} else {
			summary.Skipped++
		}
	}

	summary.Log()
	return summary, nil
}
