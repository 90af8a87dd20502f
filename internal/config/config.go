package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// OverwriteFiles controls whether existing output files should be overwritten
	OverwriteFiles bool
	// UpdateCovers forces re-downloading cover art even if it already exists
	UpdateCovers bool
)

// Settings carries every externally configurable value the pipeline
// needs, resolved once at boot and passed explicitly into each stage.
// Nothing below is read from package globals during a run.
type Settings struct {
	// Version is the catalog format version stamped into snapshots.
	Version string

	// ProjectDir is the root under which build folders live. It must
	// already exist; the CLI validates this before any network activity.
	ProjectDir string
	// PrevBuild and CurrBuild are subfolder names under ProjectDir
	// holding the previous and current build's snapshots.
	PrevBuild string
	CurrBuild string

	// StartID is the first record identifier to harvest and MaxID the
	// last; the API rejects batch queries, so every identifier in the
	// range costs one call. Limit bounds how many identifiers are
	// processed (0 = unlimited). SkipIDs lists identifiers bypassed
	// without an API call.
	StartID int
	MaxID   int
	Limit   int
	SkipIDs []int

	// OverwriteDownloads switches the archive stage into download-count
	// refresh mode.
	OverwriteDownloads bool
	// KeepCovers suppresses cover-art changes when computing deltas.
	KeepCovers bool

	// CatalogDomain is the canonical record site; ArchiveDomain hosts
	// the audio files and metadata service.
	CatalogDomain string
	ArchiveDomain string

	// BookAPITemplate and AuthorAPITemplate are printf templates taking
	// one numeric identifier.
	BookAPITemplate   string
	AuthorAPITemplate string
	// ArchiveAPITemplate takes a record's archive details URL and
	// yields the URL of its JSON metadata document.
	ArchiveAPITemplate string

	// WikiPages are the static listing pages mined for audio links.
	WikiPages []string

	// PageURLBlocklist holds path prefixes of known-invalid catalog
	// page URLs (forum links and the like); matching URLs are cleared.
	PageURLBlocklist []string

	// VariousAuthorID is the sentinel author identifier that marks
	// multi-author collections eligible for per-section enrichment.
	VariousAuthorID string

	// RequestsPerSecond throttles each remote host.
	RequestsPerSecond int

	// CacheDBFile is the response cache location ("" disables caching).
	CacheDBFile string

	// DatastoreFile is the optional sqlite catalog export ("" disables it).
	DatastoreFile string
}

// InitDefaults seeds viper with the built-in defaults. Called once
// before the config file is read.
func InitDefaults() {
	viper.SetDefault("version", "1")
	viper.SetDefault("catalog.domain", "librivox.org")
	viper.SetDefault("archive.domain", "archive.org")
	viper.SetDefault("api.book", "https://librivox.org/api/feed/audiobooks/?id=%d&format=json&extended=1")
	viper.SetDefault("api.author", "https://librivox.org/api/feed/authors/?id=%d&format=json")
	viper.SetDefault("api.archive", "%s?output=json")
	viper.SetDefault("harvest.max_id", 9999)
	viper.SetDefault("wiki.pages", []string{
		"https://wiki.librivox.org/index.php/M4B_Audiobooks_Part_1",
		"https://wiki.librivox.org/index.php/M4B_Audiobooks_Part_2",
	})
	viper.SetDefault("page.blocklist", []string{"/forum"})
	viper.SetDefault("authors.various_id", "18")
	viper.SetDefault("requests_per_second", 2)
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("datastore.dbfile", "")
	viper.SetDefault("overwritefiles", false)
}

// Load resolves the final Settings from viper. Flag-driven values
// (project dir, build folders, start id, limit) are applied by the CLI
// on top of the returned struct.
func Load() (*Settings, error) {
	s := &Settings{
		Version:            viper.GetString("version"),
		CatalogDomain:      viper.GetString("catalog.domain"),
		ArchiveDomain:      viper.GetString("archive.domain"),
		BookAPITemplate:    viper.GetString("api.book"),
		AuthorAPITemplate:  viper.GetString("api.author"),
		ArchiveAPITemplate: viper.GetString("api.archive"),
		WikiPages:          viper.GetStringSlice("wiki.pages"),
		PageURLBlocklist:   viper.GetStringSlice("page.blocklist"),
		VariousAuthorID:    viper.GetString("authors.various_id"),
		MaxID:              viper.GetInt("harvest.max_id"),
		RequestsPerSecond:  viper.GetInt("requests_per_second"),
		CacheDBFile:        viper.GetString("cache.dbfile"),
		DatastoreFile:      viper.GetString("datastore.dbfile"),
	}
	for _, id := range viper.GetIntSlice("harvest.skip_ids") {
		s.SkipIDs = append(s.SkipIDs, id)
	}
	if s.RequestsPerSecond < 1 {
		return nil, fmt.Errorf("requests_per_second must be at least 1, got %d", s.RequestsPerSecond)
	}
	return s, nil
}

// Validate checks the flag-driven preconditions that must hold before
// any network activity starts.
func (s *Settings) Validate() error {
	if s.ProjectDir == "" {
		return fmt.Errorf("project dir is required")
	}
	info, err := os.Stat(s.ProjectDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("project dir %q: folder must already exist", s.ProjectDir)
	}
	if s.StartID < 1 {
		return fmt.Errorf("start id must be at least 1, got %d", s.StartID)
	}
	if s.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", s.Limit)
	}
	if s.MaxID > 0 && s.MaxID < s.StartID {
		return fmt.Errorf("max id %d is below start id %d", s.MaxID, s.StartID)
	}
	return nil
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}

// SetUpdateCovers sets the UpdateCovers flag
func SetUpdateCovers(update bool) {
	UpdateCovers = update
}
