// Package store defines the content store operations the importer relies on
// and the errors they report.
package store

import (
	"context"
	"fmt"

	"github.com/article-ingest/internal/models"
)

// Store is the destination for canonical articles.
type Store interface {
	// CreateOrReplace writes the document under its _id, replacing any
	// document already stored with that id.
	CreateOrReplace(ctx context.Context, doc *models.Article) (*models.Article, error)
	// Create writes a new document. The store assigns the _id when it is empty.
	Create(ctx context.Context, doc *models.Article) (*models.Article, error)
	// Delete removes every document matching q.
	Delete(ctx context.Context, q Query) error
}

// Query selects documents of one type by slug.
type Query struct {
	Type string
	Slug string
}

// GROQ renders the query with $type and $slug parameters; see Params.
func (q Query) GROQ() string {
	return `*[_type == $type && slug.current == $slug]`
}

// Params returns the GROQ parameters for the query.
func (q Query) Params() map[string]string {
	return map[string]string{"type": q.Type, "slug": q.Slug}
}

func (q Query) String() string {
	return fmt.Sprintf("%s[slug=%s]", q.Type, q.Slug)
}

// Store operations, as reported in RemoteWriteError.Op
const (
	OpCreateOrReplace = "createOrReplace"
	OpCreate          = "create"
	OpDelete          = "delete"
)

// PermissionHint is shown to operators when Sanity refuses a write.
const PermissionHint = "the write token lacks write access to this dataset; create a token with Editor permissions and set SANITY_WRITE_TOKEN"

// RemoteWriteError reports a failed store operation.
type RemoteWriteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteWriteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("store %s failed (status %d): %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("store %s failed: %s", e.Op, msg)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// PermissionError is a RemoteWriteError caused by insufficient credentials.
type PermissionError struct {
	*RemoteWriteError
	// Remedy replaces PermissionHint for stores with their own credentials.
	Remedy string
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.RemoteWriteError.Error()
}

// Unwrap exposes the underlying RemoteWriteError to errors.As.
func (e *PermissionError) Unwrap() error {
	return e.RemoteWriteError
}

// Hint returns remediation guidance for the operator.
func (e *PermissionError) Hint() string {
	if e.Remedy != "" {
		return e.Remedy
	}
	return PermissionHint
}

// NewWriteError builds the error for a failed operation, returning a
// PermissionError for 401 and 403 responses.
func NewWriteError(op string, statusCode int, message string, err error) error {
	rwe := &RemoteWriteError{Op: op, StatusCode: statusCode, Message: message, Err: err}
	if statusCode == 401 || statusCode == 403 {
		return &PermissionError{RemoteWriteError: rwe}
	}
	return rwe
}
