package mocks

import (
	"context"
	"fmt"
	"sort"

	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/repository"
	"github.com/article-ingest/internal/store"
)

// MockStore is an in-memory implementation of store.Store and
// repository.DocumentRepository
type MockStore struct {
	Docs  map[string]*models.Article
	order []string

	// Errors returned by the matching operation when set
	CreateOrReplaceError error
	CreateError          error
	DeleteError          error
	HealthError          error
	// SlugErrors fails every write for the given slug
	SlugErrors map[string]error

	CreateOrReplaceCalls int
	CreateCalls          int
	DeleteCalls          int
	Deleted              []store.Query

	nextID int
}

var (
	_ store.Store                   = (*MockStore)(nil)
	_ repository.DocumentRepository = (*MockStore)(nil)
)

func NewMockStore() *MockStore {
	return &MockStore{
		Docs:       make(map[string]*models.Article),
		SlugErrors: make(map[string]error),
	}
}

func (m *MockStore) CreateOrReplace(ctx context.Context, doc *models.Article) (*models.Article, error) {
	m.CreateOrReplaceCalls++
	if m.CreateOrReplaceError != nil {
		return nil, m.CreateOrReplaceError
	}
	if err := m.SlugErrors[doc.Slug.Current]; err != nil {
		return nil, err
	}
	m.put(doc)
	return doc, nil
}

func (m *MockStore) Create(ctx context.Context, doc *models.Article) (*models.Article, error) {
	m.CreateCalls++
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	if err := m.SlugErrors[doc.Slug.Current]; err != nil {
		return nil, err
	}
	written := *doc
	if written.ID == "" {
		m.nextID++
		written.ID = fmt.Sprintf("doc-%d", m.nextID)
	}
	if _, exists := m.Docs[written.ID]; exists {
		return nil, store.NewWriteError(store.OpCreate, 409, "document already exists", nil)
	}
	m.put(&written)
	return &written, nil
}

func (m *MockStore) Delete(ctx context.Context, q store.Query) error {
	m.DeleteCalls++
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.Deleted = append(m.Deleted, q)
	for id, doc := range m.Docs {
		if doc.Type == q.Type && doc.Slug.Current == q.Slug {
			delete(m.Docs, id)
		}
	}
	return nil
}

func (m *MockStore) GetByID(ctx context.Context, id string) (*models.Article, error) {
	return m.Docs[id], nil
}

func (m *MockStore) FindBySlug(ctx context.Context, docType, slug string) ([]*models.Article, error) {
	var docs []*models.Article
	for _, id := range m.order {
		doc, ok := m.Docs[id]
		if ok && doc.Type == docType && doc.Slug.Current == slug {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockStore) Count(ctx context.Context) (int, error) {
	return len(m.Docs), nil
}

func (m *MockStore) HealthCheck(ctx context.Context) error {
	return m.HealthError
}

// IDs returns the stored document ids in sorted order
func (m *MockStore) IDs() []string {
	ids := make([]string, 0, len(m.Docs))
	for id := range m.Docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *MockStore) put(doc *models.Article) {
	if _, exists := m.Docs[doc.ID]; !exists {
		m.order = append(m.order, doc.ID)
	}
	m.Docs[doc.ID] = doc
}

// MockRunRepository is a mock implementation of RunRepository
type MockRunRepository struct {
	Runs     map[string]*models.Run
	Outcomes map[string][]models.Outcome

	CreateError      error
	AddOutcomesError error
	UpdateCalls      int
}

var _ repository.RunRepository = (*MockRunRepository)(nil)

func NewMockRunRepository() *MockRunRepository {
	return &MockRunRepository{
		Runs:     make(map[string]*models.Run),
		Outcomes: make(map[string][]models.Outcome),
	}
}

func (m *MockRunRepository) Create(ctx context.Context, run *models.Run) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	stored := *run
	stored.Outcomes = nil
	m.Runs[run.ID] = &stored
	return nil
}

func (m *MockRunRepository) Update(ctx context.Context, run *models.Run) error {
	m.UpdateCalls++
	stored := *run
	stored.Outcomes = nil
	m.Runs[run.ID] = &stored
	return nil
}

func (m *MockRunRepository) GetByID(ctx context.Context, id string) (*models.Run, error) {
	run, ok := m.Runs[id]
	if !ok {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}

func (m *MockRunRepository) AddOutcomes(ctx context.Context, runID string, outcomes []models.Outcome) error {
	if m.AddOutcomesError != nil {
		return m.AddOutcomesError
	}
	m.Outcomes[runID] = append(m.Outcomes[runID], outcomes...)
	return nil
}

func (m *MockRunRepository) GetOutcomes(ctx context.Context, runID string, limit int) ([]models.Outcome, error) {
	outcomes := m.Outcomes[runID]
	if limit > 0 && len(outcomes) > limit {
		return outcomes[:limit], nil
	}
	return outcomes, nil
}
