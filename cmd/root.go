package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/mkorpi/alexandria/internal/assembly"
	"github.com/mkorpi/alexandria/internal/cache"
	"github.com/mkorpi/alexandria/internal/config"
	"github.com/mkorpi/alexandria/internal/datastore"
	apperrors "github.com/mkorpi/alexandria/internal/errors"
	"github.com/mkorpi/alexandria/internal/fetch"
	"github.com/mkorpi/alexandria/internal/snapshot"
	"github.com/spf13/viper"
)

// CLI represents the complete command structure for the alexandria application
type CLI struct {
	// Global flags
	Overwrite    bool `help:"Recompute stages even when their snapshots already exist"`
	UpdateCovers bool `help:"Re-download cover images even if they already exist"`

	ProjectDir string `short:"p" help:"Project directory holding build folders" default:"."`
	PrevBuild  string `help:"Previous build folder name under the project directory"`
	CurrBuild  string `help:"Current build folder name under the project directory" default:"current"`

	StartID int `help:"First record identifier to harvest" default:"1"`
	MaxID   int `help:"Last record identifier to harvest (0 = configured default)"`
	Limit   int `help:"Maximum number of identifiers to process (0 = unlimited)"`

	KeepCovers         bool `help:"Suppress cover art changes when computing the delta"`
	OverwriteDownloads bool `help:"Refresh download counts on records that have none yet"`

	CacheDBFile string `help:"Path to response cache SQLite file (empty disables caching)"`

	Assemble AssembleCmd `cmd:"" help:"Full run: build the catalog, compute the delta, download covers"`
	Catalog  CatalogCmd  `cmd:"" help:"Run the build stages and write the catalog"`
	Delta    DeltaCmd    `cmd:"" help:"Compute the change set against the previous build"`
	Covers   CoversCmd   `cmd:"" help:"Download cover art for the records in the delta"`
	Cache    CacheCmd    `cmd:"" help:"Response cache maintenance"`
}

// AssembleCmd runs the whole pipeline end to end.
type AssembleCmd struct{}

// CatalogCmd runs the build stages only.
type CatalogCmd struct{}

// DeltaCmd computes the change set between builds.
type DeltaCmd struct{}

// CoversCmd downloads cover art for the changed records.
type CoversCmd struct{}

// CacheCmd groups cache maintenance subcommands.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Drop every cached response"`
}

// CacheClearCmd drops the response cache contents.
type CacheClearCmd struct{}

// Execute parses the command line and runs the selected command.
func Execute() {
	initLogging()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("alexandria"),
		kong.Description("Assembles an audiobook catalog from the public record API, catalog pages, archive metadata and wiki audio listings."),
		kong.UsageOnError(),
	)

	initConfig()

	settings, err := resolveSettings(&cli)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := ctx.Run(settings); err != nil {
		if apperrors.IsInterruptedError(err) {
			slog.Warn("Interrupted", "error", err)
			os.Exit(130)
		}
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initLogging() {
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	config.InitDefaults()

	viper.AutomaticEnv()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
		slog.Debug("No config file found, using defaults")
	}
}

// resolveSettings layers the CLI flags over the file-backed settings
// and validates the result before any network activity.
func resolveSettings(cli *CLI) (*config.Settings, error) {
	config.SetOverwriteFiles(cli.Overwrite)
	config.SetUpdateCovers(cli.UpdateCovers)

	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	settings.ProjectDir = cli.ProjectDir
	settings.PrevBuild = cli.PrevBuild
	settings.CurrBuild = cli.CurrBuild
	settings.StartID = cli.StartID
	settings.Limit = cli.Limit
	settings.KeepCovers = cli.KeepCovers
	settings.OverwriteDownloads = cli.OverwriteDownloads
	if cli.MaxID > 0 {
		settings.MaxID = cli.MaxID
	}
	if cli.CacheDBFile != "" {
		settings.CacheDBFile = cli.CacheDBFile
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newFetcher builds the shared HTTP client, attaching the response
// cache when one is configured. The returned cleanup closes the cache.
func newFetcher(settings *config.Settings) (*fetch.Client, func()) {
	var opts []fetch.Option
	cleanup := func() {}

	if settings.CacheDBFile != "" {
		db, err := cache.Open(settings.CacheDBFile)
		if err != nil {
			slog.Warn("Response cache unavailable, fetching uncached", "path", settings.CacheDBFile, "error", err)
		} else {
			opts = append(opts, fetch.WithCache(db, cache.DefaultTTL))
			cleanup = func() { _ = db.Close() }
		}
	}

	return fetch.New(settings.RequestsPerSecond, opts...), cleanup
}

func newAssembler(settings *config.Settings) (*assembly.Assembler, func(), error) {
	fetcher, cleanup := newFetcher(settings)
	asm, err := assembly.New(settings, fetcher)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return asm, cleanup, nil
}

func exportCatalog(settings *config.Settings, asm *assembly.Assembler) error {
	if settings.DatastoreFile == "" {
		return nil
	}
	cat, err := snapshot.Read(asm.FinalPath())
	if err != nil {
		return err
	}

	store := datastore.NewSQLiteStore(settings.DatastoreFile)
	if err := store.Connect(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.ExportCatalog(cat); err != nil {
		return fmt.Errorf("failed to export catalog: %w", err)
	}
	slog.Info("Catalog exported", "path", settings.DatastoreFile, "records", cat.Len())
	return nil
}

// Run methods for each command

func (a *AssembleCmd) Run(settings *config.Settings) error {
	ctx, stop := signalContext()
	defer stop()

	asm, cleanup, err := newAssembler(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	cat, err := asm.AssembleCatalog(ctx)
	if err != nil {
		return err
	}
	slog.Info("Catalog assembled", "records", cat.Len(), "dir", asm.BuildDir())

	delta, err := asm.AssembleDelta()
	if err != nil {
		return err
	}
	if _, err := asm.DownloadCovers(ctx, delta); err != nil {
		return err
	}
	return exportCatalog(settings, asm)
}

func (d *DeltaCmd) Run(settings *config.Settings) error {
	asm, cleanup, err := newAssembler(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	_, err = asm.AssembleDelta()
	return err
}

func (c *CatalogCmd) Run(settings *config.Settings) error {
	ctx, stop := signalContext()
	defer stop()

	asm, cleanup, err := newAssembler(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	cat, err := asm.AssembleCatalog(ctx)
	if err != nil {
		return err
	}
	slog.Info("Catalog assembled", "records", cat.Len(), "dir", asm.BuildDir())

	return exportCatalog(settings, asm)
}

func (c *CoversCmd) Run(settings *config.Settings) error {
	ctx, stop := signalContext()
	defer stop()

	asm, cleanup, err := newAssembler(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	// Covers follow the delta so only new and changed records are
	// fetched; a run without a delta falls back to the full catalog.
	cat, err := snapshot.Read(asm.DeltaPath())
	if err != nil {
		slog.Info("No delta snapshot, downloading covers for the full catalog")
		cat, err = snapshot.Read(asm.FinalPath())
		if err != nil {
			return fmt.Errorf("no assembled catalog to download covers for: %w", err)
		}
	}

	_, err = asm.DownloadCovers(ctx, cat)
	return err
}

func (c *CacheClearCmd) Run(settings *config.Settings) error {
	if settings.CacheDBFile == "" {
		return fmt.Errorf("no cache file configured")
	}
	db, err := cache.Open(settings.CacheDBFile)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	removed, err := db.Invalidate()
	if err != nil {
		return err
	}
	slog.Info("Response cache cleared", "path", db.Path(), "removed", removed)
	return nil
}
