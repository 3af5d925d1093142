package service

import (
	"context"

	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/repository"
	"github.com/rs/zerolog"
)

// outcomePageSize is the number of outcomes embedded in a run response
const outcomePageSize = 100

// runService is the concrete implementation of RunService
type runService struct {
	runRepo repository.RunRepository
	log     zerolog.Logger
}

// newRunService creates a new RunService
func newRunService(runRepo repository.RunRepository, log zerolog.Logger) *runService {
	return &runService{
		runRepo: runRepo,
		log:     log.With().Str("service", "runs").Logger(),
	}
}

// GetRun retrieves a run with the first page of its outcomes
func (s *runService) GetRun(ctx context.Context, id string) (*models.RunResponse, error) {
	if s.runRepo == nil {
		return nil, ErrLedgerDisabled
	}

	run, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}

	outcomes, err := s.runRepo.GetOutcomes(ctx, id, outcomePageSize)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", id).Msg("Failed to get run outcomes")
	}
	run.Outcomes = outcomes

	response := &models.RunResponse{
		Run:          *run,
		OutcomeCount: run.ImportedCount + run.SkippedCount + run.FailedCount,
	}
	if response.OutcomeCount > len(outcomes) {
		response.OutcomeReport = "/v1/runs/" + run.ID + "/outcomes"
	}

	return response, nil
}

// GetOutcomes retrieves every outcome of a run
func (s *runService) GetOutcomes(ctx context.Context, id string) ([]models.Outcome, error) {
	if s.runRepo == nil {
		return nil, ErrLedgerDisabled
	}
	return s.runRepo.GetOutcomes(ctx, id, 0)
}
