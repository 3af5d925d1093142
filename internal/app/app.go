package app

import (
	"context"
	"fmt"

	"github.com/article-ingest/internal/config"
	"github.com/article-ingest/internal/database"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/repository"
	"github.com/article-ingest/internal/service"
	"github.com/article-ingest/internal/store"
	"github.com/article-ingest/internal/store/sanity"
	"github.com/rs/zerolog"
)

// App holds the wired components shared by the importer CLI and the server
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	DB       *database.DB
	Store    store.Store
	Services *service.Services
}

// New opens the database when the configuration needs one, selects the
// store backend and builds the services. A database needed only for the run
// ledger may be unavailable: the ledger is then disabled and imports go on.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	var repos *repository.Repositories
	if cfg.NeedsDatabase() {
		db, err := openDatabase(ctx, &cfg.Database, log)
		switch {
		case err == nil:
			a.DB = db
			repos = repository.New(db)
		case cfg.StoreNeedsDatabase():
			return nil, err
		default:
			log.Warn().Err(err).Msg("Run ledger unavailable, continuing without it")
		}
	}

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		if repos == nil {
			// Dry runs never write, but the services still need a store.
			a.Store = noopStore{}
		} else {
			a.Store = repos.Document
		}
	case config.BackendSanity:
		a.Store = sanity.NewClient(cfg.Store.ProjectID, cfg.Store.Dataset, cfg.Store.Token,
			sanity.WithAPIVersion(cfg.Store.APIVersion),
			sanity.WithRateLimit(cfg.Store.RateLimit),
			sanity.WithTimeout(cfg.Store.Timeout),
			sanity.WithLogger(log),
		)
	default:
		a.Close()
		return nil, &config.ConfigError{Key: "STORE_BACKEND", Reason: fmt.Sprintf("unknown backend %q", cfg.Store.Backend)}
	}

	var runRepo repository.RunRepository
	if cfg.Import.RecordRuns && repos != nil {
		runRepo = repos.Run
	}

	a.Services = service.NewServices(a.Store, runRepo, cfg, log)

	log.Debug().
		Str("backend", cfg.Store.Backend).
		Str("strategy", cfg.Import.Strategy).
		Bool("record_runs", runRepo != nil).
		Bool("dry_run", cfg.Import.DryRun).
		Msg("Application initialized")

	return a, nil
}

// openDatabase connects and applies pending migrations
func openDatabase(ctx context.Context, cfg *config.DatabaseConfig, log zerolog.Logger) (*database.DB, error) {
	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the database connection, if one was opened
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// noopStore refuses every write. It backs dry runs against the postgres
// backend, where no connection is opened.
type noopStore struct{}

func (noopStore) CreateOrReplace(ctx context.Context, doc *models.Article) (*models.Article, error) {
	return nil, errDryRun
}

func (noopStore) Create(ctx context.Context, doc *models.Article) (*models.Article, error) {
	return nil, errDryRun
}

func (noopStore) Delete(ctx context.Context, q store.Query) error {
	return errDryRun
}

var errDryRun = store.NewWriteError("dry-run", 0, "store is not connected in dry-run mode", nil)
