package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/ingest_gateway/middleware"
	"github.com/jasiri-lending/jasiri-sub007/internal/ingest_gateway/service"
	"github.com/jasiri-lending/jasiri-sub007/internal/phone"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles HTTP requests for payment ingest operations
type PaymentHandler struct {
	ingestService service.IngestService
	phones        *phone.Normalizer
	logger        *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, ingestService service.IngestService, phones *phone.Normalizer) *PaymentHandler {
	return &PaymentHandler{
		ingestService: ingestService,
		phones:        phones,
		logger:        logger,
	}
}

// ReceiveNotification accepts a gateway webhook, records it and returns
// immediately. Processing happens asynchronously; callers poll GetByID.
func (h *PaymentHandler) ReceiveNotification(c *gin.Context) {
	var req PaymentNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid notification body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	in, err := notificationInput(&req, c)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.ingestService.IngestNotification(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, payment.ErrNonPositiveAmount) {
			RespondBadRequest(c, "Amount must be positive")
			return
		}
		h.logger.Error("Failed to ingest payment notification", "error", err)
		RespondInternalError(c)
		return
	}

	resp := IngestResponse{
		Payment:   mapEventToResponse(result.Event),
		Duplicate: !result.Created,
	}
	if result.JobID != nil {
		resp.JobID = result.JobID.String()
	}

	if !result.Created {
		// The original outcome is returned so gateway retries are safe.
		RespondOK(c, resp)
		return
	}
	RespondAccepted(c, resp)
}

// UploadStatement accepts a batch of bank statement rows
func (h *PaymentHandler) UploadStatement(c *gin.Context) {
	var req StatementUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid statement body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp := StatementUploadResponse{Rows: make([]StatementRowResponse, 0, len(req.Rows))}
	inputs := make([]*service.NotificationInput, 0, len(req.Rows))
	inputRows := make([]int, 0, len(req.Rows))

	for i := range req.Rows {
		in, err := h.statementInput(&req.Rows[i], c)
		if err != nil {
			resp.Rejected++
			resp.Rows = append(resp.Rows, StatementRowResponse{Row: i, Error: err.Error()})
			continue
		}
		inputs = append(inputs, in)
		inputRows = append(inputRows, i)
	}

	results, err := h.ingestService.IngestStatement(c.Request.Context(), inputs)
	if err != nil {
		h.logger.Error("Failed to ingest statement batch", "error", err)
		RespondInternalError(c)
		return
	}

	for idx, row := range results {
		rowNo := inputRows[idx]
		switch {
		case row.Err != nil:
			resp.Rejected++
			resp.Rows = append(resp.Rows, StatementRowResponse{Row: rowNo, Error: row.Err.Error()})
		case !row.Result.Created:
			resp.Duplicates++
			resp.Rows = append(resp.Rows, StatementRowResponse{Row: rowNo, PaymentID: row.Result.Event.ID.String(), Duplicate: true})
		default:
			resp.Accepted++
			resp.Rows = append(resp.Rows, StatementRowResponse{Row: rowNo, PaymentID: row.Result.Event.ID.String()})
		}
	}

	RespondAccepted(c, resp)
}

// GetByID retrieves a payment event and its processing outcome
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid payment ID")
		return
	}

	event, err := h.ingestService.GetPaymentByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, payment.ErrEventNotFound{}) {
			RespondNotFound(c, "Payment not found")
			return
		}
		h.logger.Error("Failed to get payment", "payment_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapEventToResponse(event))
}

func notificationInput(req *PaymentNotificationRequest, c *gin.Context) (*service.NotificationInput, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, errors.New("invalid amount: " + req.Amount)
	}

	receivedAt := time.Time{}
	if req.ReceivedAt != "" {
		receivedAt, err = time.Parse(time.RFC3339, req.ReceivedAt)
		if err != nil {
			return nil, errors.New("invalid received_at timestamp")
		}
	}

	raw, _ := json.Marshal(req)
	externalID := req.ExternalTransactionID

	return &service.NotificationInput{
		ExternalTransactionID: &externalID,
		Amount:                amount,
		PayerPhone:            req.PayerPhone,
		PayerName:             req.PayerName,
		RoutingKey:            req.RoutingKey,
		Source:                payment.SourceWebhook,
		RawPayload:            raw,
		ReceivedAt:            receivedAt,
		CorrelationID:         middleware.GetCorrelationID(c),
	}, nil
}

// statementInput validates one statement row before ingest. Rows bypass
// the webhook's routing key, so a blank payer name or an unparseable phone
// leaves nothing to match on; such rows are rejected, never enqueued.
func (h *PaymentHandler) statementInput(req *StatementRowRequest, c *gin.Context) (*service.NotificationInput, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, errors.New("invalid amount: " + req.Amount)
	}

	if strings.TrimSpace(req.PayerName) == "" {
		return nil, errors.New("payer_name is required")
	}
	if !h.phones.Valid(req.PayerPhone) {
		return nil, errors.New("invalid payer_phone: " + req.PayerPhone)
	}

	receivedAt := time.Time{}
	if req.ValueDate != "" {
		receivedAt, err = time.Parse(time.RFC3339, req.ValueDate)
		if err != nil {
			// Statement exports often carry a bare date.
			receivedAt, err = time.Parse("2006-01-02", req.ValueDate)
			if err != nil {
				return nil, errors.New("invalid value_date")
			}
		}
	}

	raw, _ := json.Marshal(req)
	var externalID *string
	if req.ExternalTransactionID != "" {
		externalID = &req.ExternalTransactionID
	}

	return &service.NotificationInput{
		ExternalTransactionID: externalID,
		Amount:                amount,
		PayerPhone:            req.PayerPhone,
		PayerName:             req.PayerName,
		RoutingKey:            req.RoutingKey,
		Source:                payment.SourceStatement,
		RawPayload:            raw,
		ReceivedAt:            receivedAt,
		CorrelationID:         middleware.GetCorrelationID(c),
	}, nil
}

func mapEventToResponse(e *payment.Event) PaymentResponse {
	resp := PaymentResponse{
		ID:              e.ID.String(),
		Amount:          e.Amount.String(),
		PayerPhone:      e.PayerPhone,
		PayerName:       e.PayerName,
		Source:          string(e.Source),
		Status:          string(e.Status),
		Reason:          e.Reason,
		UnappliedAmount: e.UnappliedAmount.String(),
		ReceivedAt:      e.ReceivedAt.Format(time.RFC3339),
	}
	if e.ExternalTransactionID != nil {
		resp.ExternalTransactionID = *e.ExternalTransactionID
	}
	if e.TenantID != nil {
		resp.TenantID = e.TenantID.String()
	}
	if e.CustomerID != nil {
		resp.CustomerID = e.CustomerID.String()
	}
	if e.ProcessedAt != nil {
		resp.ProcessedAt = e.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}
