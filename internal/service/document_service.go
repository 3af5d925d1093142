package service

import (
	"context"

	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/repository"
	"github.com/rs/zerolog"
)

// documentService is the concrete implementation of DocumentService
type documentService struct {
	docs    repository.DocumentRepository
	docType string
	log     zerolog.Logger
}

// newDocumentService creates a new DocumentService. docs is nil unless
// documents are written to PostgreSQL.
func newDocumentService(docs repository.DocumentRepository, docType string, log zerolog.Logger) *documentService {
	return &documentService{
		docs:    docs,
		docType: docType,
		log:     log.With().Str("service", "documents").Logger(),
	}
}

// Get retrieves a published document by id
func (s *documentService) Get(ctx context.Context, id string) (*models.Article, error) {
	if s.docs == nil {
		return nil, ErrDocumentsUnavailable
	}
	return s.docs.GetByID(ctx, id)
}

// FindBySlug lists the published documents of the configured type with slug
func (s *documentService) FindBySlug(ctx context.Context, slug string) ([]*models.Article, error) {
	if s.docs == nil {
		return nil, ErrDocumentsUnavailable
	}
	return s.docs.FindBySlug(ctx, s.docType, slug)
}

// Stats pings the database and counts the stored documents
func (s *documentService) Stats(ctx context.Context) (*models.StoreStats, error) {
	if s.docs == nil {
		return nil, ErrDocumentsUnavailable
	}

	stats := &models.StoreStats{Database: models.DatabaseUnreachable}
	if err := s.docs.HealthCheck(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Database health check failed")
		return stats, nil
	}
	stats.Database = models.DatabaseOK

	count, err := s.docs.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats.Documents = count
	return stats, nil
}
