package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/customer"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/ingest_gateway/middleware"
	"github.com/jasiri-lending/jasiri-sub007/internal/ingest_gateway/service"
)

// SuspenseHandler handles HTTP requests for the manual resolution queue
type SuspenseHandler struct {
	suspenseService service.SuspenseService
	logger          *slog.Logger
}

// NewSuspenseHandler creates a new suspense handler
func NewSuspenseHandler(logger *slog.Logger, suspenseService service.SuspenseService) *SuspenseHandler {
	return &SuspenseHandler{
		suspenseService: suspenseService,
		logger:          logger,
	}
}

// List returns paginated suspense payments for operator review
func (h *SuspenseHandler) List(c *gin.Context) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	events, total, err := h.suspenseService.ListSuspense(c.Request.Context(), params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to list suspense payments", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]PaymentResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, mapEventToResponse(e))
	}

	RespondWithPaginatedData(c, 200, responses, params.Page, params.PerPage, int(total))
}

// Rematch requeues a suspense payment against an operator-chosen customer
func (h *SuspenseHandler) Rematch(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid payment ID")
		return
	}

	var req RematchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		RespondBadRequest(c, "Invalid customer ID")
		return
	}

	event, err := h.suspenseService.Rematch(c.Request.Context(), eventID, customerID, middleware.GetCorrelationID(c))
	if err != nil {
		switch {
		case errors.Is(err, customer.ErrCustomerNotFound{}):
			RespondNotFound(c, "Customer not found")
		case errors.Is(err, payment.ErrEventNotFound{}):
			// Requeue matched no suspense row: unknown id or not in suspense.
			RespondConflict(c, "Payment is not in suspense")
		default:
			h.logger.Error("Failed to rematch suspense payment",
				"payment_id", eventID.String(),
				"error", err,
			)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, mapEventToResponse(event))
}
