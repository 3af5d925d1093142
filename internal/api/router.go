package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/article-ingest/internal/config"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	importHandler := NewImportHandler(services, cfg, log)
	runHandler := NewRunHandler(services, log)
	documentHandler := NewDocumentHandler(services, log)

	router.GET("/health", healthCheck(services, cfg, log))

	v1 := router.Group("/v1")
	{
		v1.POST("/imports", importHandler.CreateImport)

		runs := v1.Group("/runs")
		{
			runs.GET("/:run_id", runHandler.GetRun)
			runs.GET("/:run_id/outcomes", runHandler.GetOutcomes)
		}

		documents := v1.Group("/documents")
		{
			documents.GET("", documentHandler.ListDocuments)
			documents.GET("/:id", documentHandler.GetDocument)
		}
	}

	return router
}

// healthCheck returns the health status. With the postgres backend it also
// reports the database state and the number of stored documents.
func healthCheck(services *service.Services, cfg *config.Config, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "article-ingest",
			"backend":   cfg.Store.Backend,
			"strategy":  cfg.Import.Strategy,
		}

		stats, err := services.Documents.Stats(c.Request.Context())
		switch {
		case errors.Is(err, service.ErrDocumentsUnavailable):
		case err != nil:
			log.Error().Err(err).Msg("Failed to read store stats")
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
		default:
			body["database"] = stats.Database
			body["documents"] = stats.Documents
			if stats.Database != models.DatabaseOK {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
			}
		}

		c.JSON(status, body)
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		event := log.Info()
		switch {
		case statusCode >= 500:
			event = log.Error()
		case statusCode >= 400:
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
