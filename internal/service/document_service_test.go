package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/article-ingest/internal/config"
	"github.com/article-ingest/internal/mocks"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/service"
	"github.com/article-ingest/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeOnlyStore hides the read methods of the wrapped store, like the
// Sanity client.
type writeOnlyStore struct {
	store.Store
}

func TestDocumentService_ReadsBackPublishedDocuments(t *testing.T) {
	h := newTestHarness(t)
	h.writeFile(t, "a.json", validArticle)

	_, err := h.services.Import.Run(context.Background(), []string{"a.json"})
	require.NoError(t, err)

	doc, err := h.services.Documents.Get(context.Background(), "drafts.rural-broadband")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Rural Broadband Expansion", doc.Title)

	docs, err := h.services.Documents.FindBySlug(context.Background(), "rural-broadband")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	stats, err := h.services.Documents.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.StoreStats{Database: models.DatabaseOK, Documents: 1}, stats)
}

func TestDocumentService_UnhealthyDatabase(t *testing.T) {
	h := newTestHarness(t)
	h.store.HealthError = errors.New("connection refused")

	stats, err := h.services.Documents.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DatabaseUnreachable, stats.Database)
}

func TestDocumentService_WithoutDocumentRepository(t *testing.T) {
	cfg := &config.Config{Import: config.ImportConfig{Strategy: config.StrategyReplace, DocumentType: "policyAnalysis"}}
	services := service.NewServices(writeOnlyStore{mocks.NewMockStore()}, nil, cfg, zerolog.Nop())

	_, err := services.Documents.Get(context.Background(), "drafts.a")
	assert.ErrorIs(t, err, service.ErrDocumentsUnavailable)
	_, err = services.Documents.FindBySlug(context.Background(), "a")
	assert.ErrorIs(t, err, service.ErrDocumentsUnavailable)
	_, err = services.Documents.Stats(context.Background())
	assert.ErrorIs(t, err, service.ErrDocumentsUnavailable)
}
