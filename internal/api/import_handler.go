package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/article-ingest/internal/config"
	"github.com/article-ingest/internal/extract"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/service"
	"github.com/article-ingest/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// defaultSource names a posted blob when the caller gives no source
const defaultSource = "request"

// ImportHandler handles import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// CreateImport handles POST /v1/imports. The request body is the raw
// document text, JSON or JSON wrapped in prose.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	source := c.DefaultQuery("source", defaultSource)
	strategy := c.Query("strategy")

	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Server.MaxUploadSize)
	raw, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("body too large, max size is %d bytes", maxErr.Limit),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	if len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body is empty"})
		return
	}

	run, err := h.services.Import.ImportBlob(c.Request.Context(), source, raw, strategy)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": cfgErr.Error()})
			return
		}
		h.log.Error().Err(err).Str("source", source).Msg("Import failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}

	h.log.Info().
		Str("run_id", run.ID).
		Str("source", source).
		Int("size_bytes", len(raw)).
		Int("imported", run.ImportedCount).
		Int("skipped", run.SkippedCount).
		Int("failed", run.FailedCount).
		Msg("Import request handled")

	c.JSON(statusFor(run), run)
}

// statusFor picks the response code for a finished run. Failures take
// precedence over skips; a permission failure outranks other store failures.
func statusFor(run *models.Run) int {
	status := http.StatusCreated
	for _, o := range run.Outcomes {
		switch o.Status {
		case models.OutcomeSkipped:
			if status == http.StatusCreated {
				status = http.StatusUnprocessableEntity
			}
		case models.OutcomeFailed:
			if code := failureStatus(o.Err); rank(code) > rank(status) {
				status = code
			}
		}
	}
	return status
}

func failureStatus(err error) int {
	var permErr *store.PermissionError
	var writeErr *store.RemoteWriteError
	var extractErr *extract.ExtractionError
	var parseErr *extract.ParseError

	switch {
	case errors.As(err, &permErr):
		return http.StatusForbidden
	case errors.As(err, &writeErr):
		return http.StatusBadGateway
	case errors.As(err, &extractErr), errors.As(err, &parseErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func rank(status int) int {
	switch status {
	case http.StatusCreated:
		return 0
	case http.StatusUnprocessableEntity:
		return 1
	case http.StatusBadRequest:
		return 2
	case http.StatusBadGateway:
		return 3
	case http.StatusForbidden:
		return 4
	default:
		return 5
	}
}
