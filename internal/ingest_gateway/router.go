package ingest_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jasiri-lending/jasiri-sub007/internal/ingest_gateway/handler"
	"github.com/jasiri-lending/jasiri-sub007/internal/ingest_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	paymentHandler *handler.PaymentHandler,
	suspenseHandler *handler.SuspenseHandler,
	ledgerHandler *handler.LedgerHandler,
) {
	// Correlation runs first so the request log and any panic response
	// carry the id.
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Payment ingest and inspection
		payments := v1.Group("/payments")
		{
			payments.POST("/notifications", paymentHandler.ReceiveNotification)
			payments.POST("/statements", paymentHandler.UploadStatement)
			payments.GET("/:id", paymentHandler.GetByID)
		}

		// Manual suspense resolution
		suspense := v1.Group("/suspense")
		{
			suspense.GET("", suspenseHandler.List)
			suspense.POST("/:id/rematch", suspenseHandler.Rematch)
		}

		// Journal entry operations
		entries := v1.Group("/ledger/entries")
		{
			entries.POST("", ledgerHandler.PostEntry)
			entries.POST("/import", ledgerHandler.ImportEntries)
			entries.GET("", ledgerHandler.ListEntries)
			entries.GET("/:id", ledgerHandler.GetEntryByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
