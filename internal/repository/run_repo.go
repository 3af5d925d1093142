package repository

import (
	"context"
	"database/sql"

	"github.com/article-ingest/internal/database"
	"github.com/article-ingest/internal/models"
	"github.com/lib/pq"
)

// runRepo is the concrete implementation of RunRepository
type runRepo struct {
	db *database.DB
}

// NewRunRepo creates a new run repository
func NewRunRepo(db *database.DB) RunRepository {
	return &runRepo{db: db}
}

// Create inserts a new run
func (r *runRepo) Create(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO import_runs (id, strategy, backend, status, dry_run, total_files,
			imported_count, skipped_count, failed_count, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Strategy, run.Backend, run.Status, run.DryRun, run.TotalFiles,
		run.ImportedCount, run.SkippedCount, run.FailedCount, run.StartedAt,
	)
	return err
}

// Update updates run status and counters
func (r *runRepo) Update(ctx context.Context, run *models.Run) error {
	query := `
		UPDATE import_runs SET
			status = $1, total_files = $2, imported_count = $3, skipped_count = $4,
			failed_count = $5, duration_ms = $6, completed_at = $7
		WHERE id = $8
	`
	_, err := r.db.ExecContext(ctx, query,
		run.Status, run.TotalFiles, run.ImportedCount, run.SkippedCount,
		run.FailedCount, run.DurationMs, run.CompletedAt, run.ID,
	)
	return err
}

// GetByID retrieves a run by ID
func (r *runRepo) GetByID(ctx context.Context, id string) (*models.Run, error) {
	query := `
		SELECT id, strategy, backend, status, dry_run, total_files, imported_count,
			skipped_count, failed_count, duration_ms, started_at, completed_at
		FROM import_runs WHERE id = $1
	`

	var run models.Run
	var completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Strategy, &run.Backend, &run.Status, &run.DryRun, &run.TotalFiles,
		&run.ImportedCount, &run.SkippedCount, &run.FailedCount, &run.DurationMs,
		&run.StartedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

// AddOutcomes stores the outcomes of a run using the COPY protocol
func (r *runRepo) AddOutcomes(ctx context.Context, runID string, outcomes []models.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("run_outcomes",
		"run_id", "source", "item_index", "in_array", "status", "title", "slug",
		"document_id", "field", "message", "hint",
	))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.ExecContext(ctx, runID, o.Source, o.Index, o.InArray, o.Status, o.Title, o.Slug,
			nullString(o.DocumentID), nullString(o.Field), nullString(o.Message), nullString(o.Hint),
		); err != nil {
			return err
		}
	}

	// Flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		return err
	}

	return tx.Commit()
}

// GetOutcomes retrieves the outcomes of a run in processing order
func (r *runRepo) GetOutcomes(ctx context.Context, runID string, limit int) ([]models.Outcome, error) {
	query := `
		SELECT source, item_index, in_array, status, title, slug, document_id, field, message, hint
		FROM run_outcomes WHERE run_id = $1 ORDER BY id
	`
	args := []interface{}{runID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []models.Outcome
	for rows.Next() {
		var o models.Outcome
		var documentID, field, message, hint sql.NullString
		if err := rows.Scan(&o.Source, &o.Index, &o.InArray, &o.Status, &o.Title, &o.Slug,
			&documentID, &field, &message, &hint); err != nil {
			return nil, err
		}
		o.DocumentID = documentID.String
		o.Field = field.String
		o.Message = message.String
		o.Hint = hint.String
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
