package api

import (
	"errors"
	"net/http"

	"github.com/article-ingest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DocumentHandler reads back documents published to the PostgreSQL store
type DocumentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(services *service.Services, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		services: services,
		log:      log.With().Str("handler", "documents").Logger(),
	}
}

// GetDocument handles GET /v1/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id := c.Param("id")

	doc, err := h.services.Documents.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrDocumentsUnavailable) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("document_id", id).Msg("Failed to get document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get document"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// ListDocuments handles GET /v1/documents?slug=...
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slug query parameter is required"})
		return
	}

	docs, err := h.services.Documents.FindBySlug(c.Request.Context(), slug)
	if errors.Is(err, service.ErrDocumentsUnavailable) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("slug", slug).Msg("Failed to find documents")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to find documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slug":      slug,
		"count":     len(docs),
		"documents": docs,
	})
}
