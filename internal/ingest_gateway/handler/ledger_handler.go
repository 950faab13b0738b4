package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/ledger"
	"github.com/jasiri-lending/jasiri-sub007/internal/ingest_gateway/service"
	"github.com/shopspring/decimal"
)

// LedgerHandler handles HTTP requests for journal entry operations
type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// PostEntry posts a manual journal entry
func (h *LedgerHandler) PostEntry(c *gin.Context) {
	var req ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	in, err := manualEntryInput(&req)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	entry, err := h.ledgerService.PostManualEntry(c.Request.Context(), in)
	if err != nil {
		var dup ledger.ErrDuplicateReference
		switch {
		case errors.Is(err, ledger.ErrImbalancedEntry{}):
			RespondUnprocessable(c, "IMBALANCED_ENTRY", err.Error())
		case errors.Is(err, ledger.ErrTooFewLines),
			errors.Is(err, ledger.ErrAmbiguousLine),
			errors.Is(err, ledger.ErrNegativeLine),
			errors.Is(err, ledger.ErrInactiveAccount):
			RespondUnprocessable(c, "INVALID_ENTRY", err.Error())
		case errors.Is(err, ledger.ErrAccountNotFound{}):
			RespondNotFound(c, err.Error())
		case errors.As(err, &dup):
			RespondConflict(c, err.Error())
		default:
			h.logger.Error("Failed to post manual entry", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapEntryToResponse(entry))
}

// ImportEntries posts a batch of bulk-imported journal entries. Entries
// post independently; the response pairs every input row with its outcome.
func (h *LedgerHandler) ImportEntries(c *gin.Context) {
	var req BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp := BulkImportResponse{Rows: make([]BulkEntryRowResponse, 0, len(req.Entries))}
	inputs := make([]*service.ManualEntryInput, 0, len(req.Entries))
	inputRows := make([]int, 0, len(req.Entries))

	for i := range req.Entries {
		in, err := manualEntryInput(&req.Entries[i])
		if err != nil {
			resp.Rejected++
			resp.Rows = append(resp.Rows, BulkEntryRowResponse{Row: i, Error: err.Error()})
			continue
		}
		inputs = append(inputs, in)
		inputRows = append(inputRows, i)
	}

	results, err := h.ledgerService.ImportEntries(c.Request.Context(), inputs)
	if err != nil {
		h.logger.Error("Failed to import journal entries", "error", err)
		RespondInternalError(c)
		return
	}

	for idx, res := range results {
		rowNo := inputRows[idx]
		if res.Err != nil {
			resp.Rejected++
			resp.Rows = append(resp.Rows, BulkEntryRowResponse{Row: rowNo, Error: res.Err.Error()})
			continue
		}
		resp.Posted++
		resp.Rows = append(resp.Rows, BulkEntryRowResponse{Row: rowNo, EntryID: res.Entry.ID.String()})
	}

	RespondOK(c, resp)
}

// GetEntryByID retrieves a journal entry with its lines
func (h *LedgerHandler) GetEntryByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.ledgerService.GetEntryByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			RespondNotFound(c, "Journal entry not found")
			return
		}
		h.logger.Error("Failed to get journal entry", "entry_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}

// ListEntries lists a tenant's journal entries by reference type. With a
// reference_id the query pins one source entity; the (type, id) pair is
// unique, so the result is at most one entry.
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	referenceType := c.DefaultQuery("reference_type", ledger.ReferencePaymentAllocation)

	if referenceID := c.Query("reference_id"); referenceID != "" {
		entry, err := h.ledgerService.GetEntryByReference(c.Request.Context(), referenceType, referenceID)
		if err != nil {
			if errors.Is(err, ledger.ErrEntryNotFound{}) {
				RespondOK(c, []JournalEntryResponse{})
				return
			}
			h.logger.Error("Failed to get journal entry by reference",
				"reference_type", referenceType, "reference_id", referenceID, "error", err)
			RespondInternalError(c)
			return
		}
		RespondOK(c, []JournalEntryResponse{mapEntryToResponse(entry)})
		return
	}

	tenantID, err := uuid.Parse(c.Query("tenant_id"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing tenant_id")
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	entries, err := h.ledgerService.ListEntries(c.Request.Context(), tenantID, referenceType, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to list journal entries", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]JournalEntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, mapEntryToResponse(e))
	}

	RespondOK(c, responses)
}

func manualEntryInput(req *ManualEntryRequest) (*service.ManualEntryInput, error) {
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return nil, errors.New("invalid tenant ID")
	}

	entryDate := time.Time{}
	if req.EntryDate != "" {
		entryDate, err = time.Parse("2006-01-02", req.EntryDate)
		if err != nil {
			return nil, errors.New("invalid entry_date, expected YYYY-MM-DD")
		}
	}

	lines := make([]service.ManualLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		debit, err := parseOptionalAmount(l.Debit)
		if err != nil {
			return nil, errors.New("invalid debit amount: " + l.Debit)
		}
		credit, err := parseOptionalAmount(l.Credit)
		if err != nil {
			return nil, errors.New("invalid credit amount: " + l.Credit)
		}
		lines = append(lines, service.ManualLineInput{
			AccountCode: l.AccountCode,
			Debit:       debit,
			Credit:      credit,
			Memo:        l.Memo,
		})
	}

	return &service.ManualEntryInput{
		TenantID:    tenantID,
		ReferenceID: req.ReferenceID,
		Memo:        req.Memo,
		EntryDate:   entryDate,
		Lines:       lines,
	}, nil
}

func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func mapEntryToResponse(e *ledger.Entry) JournalEntryResponse {
	resp := JournalEntryResponse{
		ID:            e.ID.String(),
		TenantID:      e.TenantID.String(),
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		Memo:          e.Memo,
		EntryDate:     e.EntryDate.Format(time.RFC3339),
		PostedAt:      e.PostedAt.Format(time.RFC3339),
		Lines:         make([]JournalLineResponse, 0, len(e.Lines)),
	}
	for _, l := range e.Lines {
		resp.Lines = append(resp.Lines, JournalLineResponse{
			ID:        l.ID.String(),
			AccountID: l.AccountID.String(),
			Debit:     l.Debit.String(),
			Credit:    l.Credit.String(),
			Memo:      l.Memo,
		})
	}
	return resp
}
