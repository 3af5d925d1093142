package models

import (
	"fmt"
	"time"
)

// OutcomeStatus is the result of importing one article
type OutcomeStatus string

const (
	OutcomeImported OutcomeStatus = "imported"
	OutcomeSkipped  OutcomeStatus = "skipped"
	OutcomeFailed   OutcomeStatus = "failed"
)

// RunStatus represents the status of an import run
type RunStatus string

const (
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusCancelled  RunStatus = "cancelled"
)

// Outcome is the reported result for one article of one source file.
// Index is the article's position inside the file; InArray is set when the
// file held an array of articles rather than a single object.
type Outcome struct {
	Source     string        `json:"source" db:"source"`
	Index      int           `json:"index" db:"item_index"`
	InArray    bool          `json:"in_array,omitempty" db:"in_array"`
	Status     OutcomeStatus `json:"status" db:"status"`
	Title      string        `json:"title,omitempty" db:"title"`
	Slug       string        `json:"slug,omitempty" db:"slug"`
	DocumentID string        `json:"document_id,omitempty" db:"document_id"`
	Field      string        `json:"field,omitempty" db:"field"`
	Message    string        `json:"message,omitempty" db:"message"`
	Hint       string        `json:"hint,omitempty" db:"hint"`
	Err        error         `json:"-" db:"-"`
}

// Run is the report of one batch of imports.
type Run struct {
	ID            string     `json:"run_id" db:"id"`
	Strategy      string     `json:"strategy" db:"strategy"`
	Backend       string     `json:"backend" db:"backend"`
	Status        RunStatus  `json:"status" db:"status"`
	DryRun        bool       `json:"dry_run" db:"dry_run"`
	TotalFiles    int        `json:"total_files" db:"total_files"`
	ImportedCount int        `json:"imported" db:"imported_count"`
	SkippedCount  int        `json:"skipped" db:"skipped_count"`
	FailedCount   int        `json:"failed" db:"failed_count"`
	DurationMs    int64      `json:"duration_ms,omitempty" db:"duration_ms"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Outcomes      []Outcome  `json:"outcomes,omitempty" db:"-"`
}

// Add appends an outcome and updates the counters.
func (r *Run) Add(outcomes ...Outcome) {
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeImported:
			r.ImportedCount++
		case OutcomeSkipped:
			r.SkippedCount++
		case OutcomeFailed:
			r.FailedCount++
		}
		r.Outcomes = append(r.Outcomes, o)
	}
}

// OutcomesFor returns the outcomes reported for one source file.
func (r *Run) OutcomesFor(source string) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Source == source {
			out = append(out, o)
		}
	}
	return out
}

// Label identifies the article within its source file.
func (o Outcome) Label() string {
	if o.InArray {
		return fmt.Sprintf("%s[%d]", o.Source, o.Index)
	}
	return o.Source
}

// String renders the outcome as one human-readable report line.
func (o Outcome) String() string {
	switch o.Status {
	case OutcomeImported:
		if o.DocumentID == "" {
			return fmt.Sprintf("imported %s: %q", o.Label(), o.Title)
		}
		return fmt.Sprintf("imported %s: %q (%s)", o.Label(), o.Title, o.DocumentID)
	case OutcomeSkipped:
		return fmt.Sprintf("skipped  %s: %s", o.Label(), o.Message)
	default:
		line := fmt.Sprintf("failed   %s: %s", o.Label(), o.Message)
		if o.Hint != "" {
			line += "\n         hint: " + o.Hint
		}
		return line
	}
}

// RunResponse is a run with the first page of its outcomes.
type RunResponse struct {
	Run
	OutcomeCount  int    `json:"outcome_count"`
	OutcomeReport string `json:"outcome_report,omitempty"`
}

// Database health as reported by StoreStats
const (
	DatabaseOK          = "ok"
	DatabaseUnreachable = "unreachable"
)

// StoreStats describes the PostgreSQL document store.
type StoreStats struct {
	Database  string `json:"database"`
	Documents int    `json:"documents"`
}
