package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/article-ingest/internal/canonical"
	"github.com/article-ingest/internal/config"
	"github.com/article-ingest/internal/extract"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/repository"
	"github.com/article-ingest/internal/store"
	"github.com/article-ingest/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// batchService is the concrete implementation of ImportService
type batchService struct {
	upserter *Upserter
	canon    *canonical.Canonicalizer
	runRepo  repository.RunRepository
	cfg      *config.Config
	readFile func(name string) ([]byte, error)
	log      zerolog.Logger
}

// newBatchService creates a new ImportService
func newBatchService(upserter *Upserter, canon *canonical.Canonicalizer, runRepo repository.RunRepository, cfg *config.Config, log zerolog.Logger) *batchService {
	return &batchService{
		upserter: upserter,
		canon:    canon,
		runRepo:  runRepo,
		cfg:      cfg,
		readFile: os.ReadFile,
		log:      log.With().Str("service", "import").Logger(),
	}
}

// Run imports each file in order. A failing file never stops the batch; the
// returned error is non-nil only when ctx is cancelled, in which case the
// partial run is still returned.
func (s *batchService) Run(ctx context.Context, files []string) (*models.Run, error) {
	run := s.startRun(ctx, s.upserter.Strategy(), len(files))

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			s.finishRun(run, models.RunStatusCancelled)
			return run, err
		}

		raw, err := s.readFile(s.resolve(name))
		if err != nil {
			run.Add(s.report(models.Outcome{
				Source:  name,
				Status:  models.OutcomeFailed,
				Message: fmt.Sprintf("read file: %v", err),
				Err:     err,
			}))
			continue
		}

		run.Add(s.importSource(ctx, s.upserter, name, string(raw))...)
	}

	s.finishRun(run, models.RunStatusCompleted)
	return run, nil
}

// ImportBlob imports one in-memory document through the same pipeline as Run
func (s *batchService) ImportBlob(ctx context.Context, source string, raw []byte, strategy string) (*models.Run, error) {
	upserter := s.upserter
	if strategy != "" && strategy != upserter.Strategy() {
		if strategy != config.StrategyReplace && strategy != config.StrategyDeleteCreate {
			return nil, &config.ConfigError{Key: "strategy", Reason: fmt.Sprintf("unknown strategy %q", strategy)}
		}
		upserter = upserter.WithStrategy(strategy)
	}

	run := s.startRun(ctx, upserter.Strategy(), 1)
	run.Add(s.importSource(ctx, upserter, source, string(raw))...)
	s.finishRun(run, models.RunStatusCompleted)

	if err := ctx.Err(); err != nil {
		return run, err
	}
	return run, nil
}

// resolve returns the path of a file named relative to the content directory
func (s *batchService) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.cfg.Import.ContentDir, name)
}

// importSource extracts every article from raw and imports each one
func (s *batchService) importSource(ctx context.Context, upserter *Upserter, source, raw string) []models.Outcome {
	payload, err := extract.Extract(raw)
	var articles []*models.Article
	if err == nil {
		articles, err = extract.Decode(payload)
	}
	if err != nil {
		return []models.Outcome{s.report(models.Outcome{
			Source:  source,
			Status:  models.OutcomeFailed,
			Message: err.Error(),
			Err:     err,
		})}
	}

	inArray := strings.HasPrefix(strings.TrimSpace(payload), "[")
	outcomes := make([]models.Outcome, 0, len(articles))
	for i, article := range articles {
		outcome := s.importArticle(ctx, upserter, source, i, article)
		outcome.InArray = inArray
		outcomes = append(outcomes, s.report(outcome))
	}
	return outcomes
}

// importArticle validates, canonicalizes and writes one article
func (s *batchService) importArticle(ctx context.Context, upserter *Upserter, source string, index int, article *models.Article) models.Outcome {
	outcome := models.Outcome{
		Source: source,
		Index:  index,
		Title:  article.Title,
		Slug:   article.Slug.Current,
	}

	if err := validation.ValidateArticle(article); err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			outcome.Field = verr.Field
		}
		outcome.Status = models.OutcomeSkipped
		outcome.Message = err.Error()
		outcome.Err = err
		return outcome
	}

	s.canon.Canonicalize(article)

	if s.cfg.Import.DryRun {
		if upserter.Strategy() == config.StrategyReplace {
			outcome.DocumentID = DerivedID(s.cfg.Import.DraftIDPrefix, article.Slug.Current)
		}
		outcome.Status = models.OutcomeImported
		outcome.Message = "dry run: nothing written"
		return outcome
	}

	written, err := upserter.Upsert(ctx, article)
	if err != nil {
		outcome.Status = models.OutcomeFailed
		outcome.Message = err.Error()
		outcome.Err = err

		var permErr *store.PermissionError
		if errors.As(err, &permErr) {
			outcome.Hint = permErr.Hint()
		}
		return outcome
	}

	outcome.Status = models.OutcomeImported
	outcome.DocumentID = written.ID
	if written.Title != "" {
		outcome.Title = written.Title
	}
	return outcome
}

// report logs the outcome and returns it unchanged
func (s *batchService) report(o models.Outcome) models.Outcome {
	var event *zerolog.Event
	switch o.Status {
	case models.OutcomeImported:
		event = s.log.Info()
	case models.OutcomeSkipped:
		event = s.log.Warn().Str("field", o.Field)
	default:
		event = s.log.Error().Err(o.Err)
		if o.Hint != "" {
			event = event.Str("hint", o.Hint)
		}
	}

	event.
		Str("source", o.Source).
		Int("index", o.Index).
		Str("status", string(o.Status)).
		Str("title", o.Title).
		Str("document_id", o.DocumentID).
		Msg("Article processed")

	return o
}

func (s *batchService) startRun(ctx context.Context, strategy string, totalFiles int) *models.Run {
	run := &models.Run{
		ID:         uuid.New().String(),
		Strategy:   strategy,
		Backend:    s.cfg.Store.Backend,
		Status:     models.RunStatusProcessing,
		DryRun:     s.cfg.Import.DryRun,
		TotalFiles: totalFiles,
		StartedAt:  time.Now(),
	}

	s.log.Info().
		Str("run_id", run.ID).
		Str("strategy", strategy).
		Int("files", totalFiles).
		Bool("dry_run", run.DryRun).
		Msg("Starting import run")

	if s.runRepo != nil {
		if err := s.runRepo.Create(ctx, run); err != nil {
			s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record run")
		}
	}

	return run
}

// finishRun stamps the final status and persists the run. The ledger is
// written with a fresh context so a cancelled batch is still recorded.
func (s *batchService) finishRun(run *models.Run, status models.RunStatus) {
	completedAt := time.Now()
	run.Status = status
	run.CompletedAt = &completedAt
	run.DurationMs = completedAt.Sub(run.StartedAt).Milliseconds()

	s.log.Info().
		Str("run_id", run.ID).
		Str("status", string(status)).
		Int("imported", run.ImportedCount).
		Int("skipped", run.SkippedCount).
		Int("failed", run.FailedCount).
		Int64("duration_ms", run.DurationMs).
		Msg("Import run finished")

	if s.runRepo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.runRepo.AddOutcomes(ctx, run.ID, run.Outcomes); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record run outcomes")
	}
	if err := s.runRepo.Update(ctx, run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to update run")
	}
}
