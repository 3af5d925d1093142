package repository

import (
	"context"

	"github.com/article-ingest/internal/database"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/store"
)

// DocumentRepository stores published articles in PostgreSQL
type DocumentRepository interface {
	store.Store
	GetByID(ctx context.Context, id string) (*models.Article, error)
	FindBySlug(ctx context.Context, docType, slug string) ([]*models.Article, error)
	Count(ctx context.Context) (int, error)
	HealthCheck(ctx context.Context) error
}

// RunRepository defines the interface for the import run ledger
type RunRepository interface {
	Create(ctx context.Context, run *models.Run) error
	Update(ctx context.Context, run *models.Run) error
	GetByID(ctx context.Context, id string) (*models.Run, error)
	AddOutcomes(ctx context.Context, runID string, outcomes []models.Outcome) error
	GetOutcomes(ctx context.Context, runID string, limit int) ([]models.Outcome, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Document DocumentRepository
	Run      RunRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Document: NewDocumentRepo(db),
		Run:      NewRunRepo(db),
	}
}
