package service

import (
	"context"
	"errors"

	"github.com/article-ingest/internal/canonical"
	"github.com/article-ingest/internal/config"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/repository"
	"github.com/article-ingest/internal/store"
	"github.com/rs/zerolog"
)

// ErrLedgerDisabled is returned by RunService when no run ledger is configured
var ErrLedgerDisabled = errors.New("run ledger is not enabled")

// ErrDocumentsUnavailable is returned by DocumentService when documents are
// not written to PostgreSQL
var ErrDocumentsUnavailable = errors.New("documents are not stored in the database")

// ImportService defines the interface for import operations
type ImportService interface {
	// Run imports the named files from the content directory, one after another.
	Run(ctx context.Context, files []string) (*models.Run, error)
	// ImportBlob imports one in-memory document. An empty strategy uses the
	// configured one.
	ImportBlob(ctx context.Context, source string, raw []byte, strategy string) (*models.Run, error)
}

// RunService defines the interface for reading the run ledger
type RunService interface {
	GetRun(ctx context.Context, id string) (*models.RunResponse, error)
	GetOutcomes(ctx context.Context, id string) ([]models.Outcome, error)
}

// DocumentService reads back documents published to the PostgreSQL store
type DocumentService interface {
	Get(ctx context.Context, id string) (*models.Article, error)
	FindBySlug(ctx context.Context, slug string) ([]*models.Article, error)
	Stats(ctx context.Context) (*models.StoreStats, error)
}

// Services holds all service interfaces
type Services struct {
	Import    ImportService
	Runs      RunService
	Documents DocumentService
}

// NewServices creates all services. runRepo may be nil, in which case runs
// are not recorded and RunService reports ErrLedgerDisabled. Documents can
// only be read back when st is a repository.DocumentRepository.
func NewServices(st store.Store, runRepo repository.RunRepository, cfg *config.Config, log zerolog.Logger) *Services {
	upserter := NewUpserter(st, cfg.Import, log)
	docs, _ := st.(repository.DocumentRepository)
	return &Services{
		Import:    newBatchService(upserter, canonical.New(), runRepo, cfg, log),
		Runs:      newRunService(runRepo, log),
		Documents: newDocumentService(docs, cfg.Import.DocumentType, log),
	}
}
