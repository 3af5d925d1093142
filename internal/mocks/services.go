package mocks

import (
	"context"

	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/service"
)

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	RunFunc    func(ctx context.Context, files []string) (*models.Run, error)
	BlobFunc   func(ctx context.Context, source string, raw []byte, strategy string) (*models.Run, error)
	Blobs      []string
	Strategies []string
}

// Verify interface compliance
var _ service.ImportService = (*MockImportService)(nil)

func NewMockImportService() *MockImportService {
	return &MockImportService{}
}

func (m *MockImportService) Run(ctx context.Context, files []string) (*models.Run, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, files)
	}
	run := &models.Run{ID: "test-run-id", Status: models.RunStatusCompleted, TotalFiles: len(files)}
	for _, f := range files {
		run.Add(models.Outcome{Source: f, Status: models.OutcomeImported})
	}
	return run, nil
}

func (m *MockImportService) ImportBlob(ctx context.Context, source string, raw []byte, strategy string) (*models.Run, error) {
	m.Blobs = append(m.Blobs, string(raw))
	m.Strategies = append(m.Strategies, strategy)
	if m.BlobFunc != nil {
		return m.BlobFunc(ctx, source, raw, strategy)
	}
	run := &models.Run{ID: "test-run-id", Status: models.RunStatusCompleted, TotalFiles: 1}
	run.Add(models.Outcome{Source: source, Status: models.OutcomeImported, DocumentID: "drafts.test"})
	return run, nil
}

// MockRunService is a mock implementation of RunService
type MockRunService struct {
	Runs     map[string]*models.RunResponse
	Outcomes map[string][]models.Outcome
	Err      error
}

// Verify interface compliance
var _ service.RunService = (*MockRunService)(nil)

func NewMockRunService() *MockRunService {
	return &MockRunService{
		Runs:     make(map[string]*models.RunResponse),
		Outcomes: make(map[string][]models.Outcome),
	}
}

func (m *MockRunService) GetRun(ctx context.Context, id string) (*models.RunResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Runs[id], nil
}

func (m *MockRunService) GetOutcomes(ctx context.Context, id string) ([]models.Outcome, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Outcomes[id], nil
}

// MockDocumentService is a mock implementation of DocumentService
type MockDocumentService struct {
	Docs  map[string]*models.Article
	Stat  *models.StoreStats
	Err   error
	Slugs []string
}

// Verify interface compliance
var _ service.DocumentService = (*MockDocumentService)(nil)

func NewMockDocumentService() *MockDocumentService {
	return &MockDocumentService{Docs: make(map[string]*models.Article)}
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*models.Article, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Docs[id], nil
}

func (m *MockDocumentService) FindBySlug(ctx context.Context, slug string) ([]*models.Article, error) {
	m.Slugs = append(m.Slugs, slug)
	if m.Err != nil {
		return nil, m.Err
	}
	var docs []*models.Article
	for _, doc := range m.Docs {
		if doc.Slug.Current == slug {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockDocumentService) Stats(ctx context.Context) (*models.StoreStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Stat, nil
}
