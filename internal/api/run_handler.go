package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/article-ingest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RunHandler serves the import run ledger
type RunHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewRunHandler creates a new RunHandler
func NewRunHandler(services *service.Services, log zerolog.Logger) *RunHandler {
	return &RunHandler{
		services: services,
		log:      log.With().Str("handler", "runs").Logger(),
	}
}

// GetRun handles GET /v1/runs/:run_id
func (h *RunHandler) GetRun(c *gin.Context) {
	runID := c.Param("run_id")

	run, err := h.services.Runs.GetRun(c.Request.Context(), runID)
	if errors.Is(err, service.ErrLedgerDisabled) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run ledger is not enabled"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to get run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetOutcomes handles GET /v1/runs/:run_id/outcomes
func (h *RunHandler) GetOutcomes(c *gin.Context) {
	runID := c.Param("run_id")

	outcomes, err := h.services.Runs.GetOutcomes(c.Request.Context(), runID)
	if errors.Is(err, service.ErrLedgerDisabled) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run ledger is not enabled"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to get run outcomes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get outcomes"})
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=outcomes_%s.csv", runID))
		writer := csv.NewWriter(c.Writer)
		writer.Write([]string{"source", "index", "status", "title", "slug", "document_id", "field", "message", "hint"})
		for _, o := range outcomes {
			writer.Write([]string{
				o.Source, strconv.Itoa(o.Index), string(o.Status), o.Title, o.Slug,
				o.DocumentID, o.Field, o.Message, o.Hint,
			})
		}
		writer.Flush()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":        runID,
		"outcome_count": len(outcomes),
		"outcomes":      outcomes,
	})
}
