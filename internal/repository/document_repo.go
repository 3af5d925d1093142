package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/article-ingest/internal/database"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/store"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgreSQL error codes mapped to store errors
const (
	pqInsufficientPrivilege = "42501"
	pqInvalidAuthorization  = "28000"
	pqInvalidPassword       = "28P01"
	pqUniqueViolation       = "23505"
)

// PermissionHint is shown to operators when PostgreSQL refuses a write.
const PermissionHint = "the database role cannot write the documents table; check DB_USER and DB_PASSWORD and grant INSERT, UPDATE and DELETE on documents"

// documentRepo stores canonical articles as JSONB documents. It implements
// store.Store so the importer can publish into PostgreSQL instead of Sanity.
type documentRepo struct {
	db *database.DB
}

// NewDocumentRepo creates a new document repository
func NewDocumentRepo(db *database.DB) DocumentRepository {
	return &documentRepo{db: db}
}

// CreateOrReplace inserts the document or replaces the one stored under its id
func (r *documentRepo) CreateOrReplace(ctx context.Context, doc *models.Article) (*models.Article, error) {
	if doc.ID == "" {
		return nil, store.NewWriteError(store.OpCreateOrReplace, http.StatusBadRequest, "document has no _id", nil)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, store.NewWriteError(store.OpCreateOrReplace, 0, "failed to encode document", err)
	}

	query := `
		INSERT INTO documents (id, doc_type, slug, title, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			doc_type = EXCLUDED.doc_type, slug = EXCLUDED.slug, title = EXCLUDED.title,
			document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		doc.ID, doc.Type, doc.Slug.Current, doc.Title, string(payload), time.Now(),
	)
	if err != nil {
		return nil, writeError(store.OpCreateOrReplace, err)
	}

	return doc, nil
}

// Create inserts a new document, assigning a fresh id when it has none
func (r *documentRepo) Create(ctx context.Context, doc *models.Article) (*models.Article, error) {
	written := *doc
	if written.ID == "" {
		written.ID = uuid.New().String()
	}

	payload, err := json.Marshal(written)
	if err != nil {
		return nil, store.NewWriteError(store.OpCreate, 0, "failed to encode document", err)
	}

	query := `
		INSERT INTO documents (id, doc_type, slug, title, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		written.ID, written.Type, written.Slug.Current, written.Title, string(payload), time.Now(),
	)
	if err != nil {
		return nil, writeError(store.OpCreate, err)
	}

	return &written, nil
}

// Delete removes every document of the query's type with the query's slug
func (r *documentRepo) Delete(ctx context.Context, q store.Query) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM documents WHERE doc_type = $1 AND slug = $2",
		q.Type, q.Slug,
	)
	if err != nil {
		return writeError(store.OpDelete, err)
	}
	return nil
}

// GetByID retrieves a document by id
func (r *documentRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, "SELECT document FROM documents WHERE id = $1", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc models.Article
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindBySlug retrieves the documents of one type with the given slug
func (r *documentRepo) FindBySlug(ctx context.Context, docType, slug string) ([]*models.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT document FROM documents WHERE doc_type = $1 AND slug = $2 ORDER BY created_at",
		docType, slug,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Article
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var doc models.Article
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Count returns the total number of documents
func (r *documentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	return count, err
}

// HealthCheck pings the database holding the documents
func (r *documentRepo) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// writeError maps a database error onto the store error taxonomy.
func writeError(op string, err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return store.NewWriteError(op, 0, "", err)
	}

	status := 0
	switch pqErr.Code {
	case pqInsufficientPrivilege:
		status = http.StatusForbidden
	case pqInvalidAuthorization, pqInvalidPassword:
		status = http.StatusUnauthorized
	case pqUniqueViolation:
		status = http.StatusConflict
	}

	werr := store.NewWriteError(op, status, pqErr.Message, err)
	if permErr, ok := werr.(*store.PermissionError); ok {
		permErr.Remedy = PermissionHint
	}
	return werr
}
