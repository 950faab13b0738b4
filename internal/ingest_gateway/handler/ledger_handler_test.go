package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jasiri-lending/jasiri-sub007/internal/domain/ledger"
	"github.com/jasiri-lending/jasiri-sub007/internal/ingest_gateway/service"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) PostManualEntry(ctx context.Context, in *service.ManualEntryInput) (*ledger.Entry, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerService) ImportEntries(ctx context.Context, entries []*service.ManualEntryInput) ([]*service.BulkEntryResult, error) {
	args := m.Called(ctx, entries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*service.BulkEntryResult), args.Error(1)
}

func (m *MockLedgerService) GetEntryByReference(ctx context.Context, referenceType, referenceID string) (*ledger.Entry, error) {
	args := m.Called(ctx, referenceType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerService) GetEntryByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerService) ListEntries(ctx context.Context, tenantID uuid.UUID, referenceType string, page, perPage int) ([]*ledger.Entry, error) {
	args := m.Called(ctx, tenantID, referenceType, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func postedEntry(tenantID uuid.UUID) *ledger.Entry {
	entryID := uuid.New()
	return &ledger.Entry{
		ID:            entryID,
		TenantID:      tenantID,
		ReferenceType: ledger.ReferenceManualEntry,
		ReferenceID:   uuid.New().String(),
		EntryDate:     time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		PostedAt:      time.Now(),
		Lines: []*ledger.Line{
			{ID: uuid.New(), EntryID: entryID, AccountID: uuid.New(), Debit: decimal.NewFromInt(100)},
			{ID: uuid.New(), EntryID: entryID, AccountID: uuid.New(), Credit: decimal.NewFromInt(100)},
		},
	}
}

func manualEntryBody(tenantID uuid.UUID) []byte {
	body, _ := json.Marshal(ManualEntryRequest{
		TenantID:  tenantID.String(),
		Memo:      "write-off adjustment",
		EntryDate: "2026-08-30",
		Lines: []ManualLineRequest{
			{AccountCode: "1001", Debit: "100"},
			{AccountCode: "1200", Credit: "100"},
		},
	})
	return body
}

func TestLedgerHandler_PostEntry(t *testing.T) {
	logger := testLogger()
	tenantID := uuid.New()

	t.Run("created", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		entry := postedEntry(tenantID)
		mockService.On("PostManualEntry", mock.Anything, mock.MatchedBy(func(in *service.ManualEntryInput) bool {
			return in.TenantID == tenantID &&
				len(in.Lines) == 2 &&
				in.Lines[0].AccountCode == "1001" &&
				in.Lines[0].Debit.Equal(decimal.NewFromInt(100))
		})).Return(entry, nil)

		router := setupTestRouter()
		router.POST("/ledger/entries", handler.PostEntry)

		req, _ := http.NewRequest(http.MethodPost, "/ledger/entries", bytes.NewBuffer(manualEntryBody(tenantID)))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		data, _ := json.Marshal(resp.Data)
		var entryResp JournalEntryResponse
		require.NoError(t, json.Unmarshal(data, &entryResp))
		assert.Equal(t, entry.ID.String(), entryResp.ID)
		assert.Len(t, entryResp.Lines, 2)
	})

	t.Run("imbalanced entry", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		mockService.On("PostManualEntry", mock.Anything, mock.Anything).
			Return(nil, ledger.ErrImbalancedEntry{Imbalance: decimal.NewFromInt(10)})

		router := setupTestRouter()
		router.POST("/ledger/entries", handler.PostEntry)

		req, _ := http.NewRequest(http.MethodPost, "/ledger/entries", bytes.NewBuffer(manualEntryBody(tenantID)))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, "IMBALANCED_ENTRY", resp.Error.Code)
	})

	t.Run("unknown account code", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		mockService.On("PostManualEntry", mock.Anything, mock.Anything).
			Return(nil, ledger.ErrAccountNotFound{Code: "1001"})

		router := setupTestRouter()
		router.POST("/ledger/entries", handler.PostEntry)

		req, _ := http.NewRequest(http.MethodPost, "/ledger/entries", bytes.NewBuffer(manualEntryBody(tenantID)))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("duplicate reference", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		mockService.On("PostManualEntry", mock.Anything, mock.Anything).
			Return(nil, ledger.ErrDuplicateReference{ReferenceType: ledger.ReferenceManualEntry, ReferenceID: "adj-1"})

		router := setupTestRouter()
		router.POST("/ledger/entries", handler.PostEntry)

		req, _ := http.NewRequest(http.MethodPost, "/ledger/entries", bytes.NewBuffer(manualEntryBody(tenantID)))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("single line rejected by binding", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/ledger/entries", handler.PostEntry)

		body, _ := json.Marshal(ManualEntryRequest{
			TenantID: tenantID.String(),
			Lines:    []ManualLineRequest{{AccountCode: "1001", Debit: "100"}},
		})
		req, _ := http.NewRequest(http.MethodPost, "/ledger/entries", bytes.NewBuffer(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "PostManualEntry", mock.Anything, mock.Anything)
	})
}

func TestLedgerHandler_GetEntryByID(t *testing.T) {
	logger := testLogger()

	t.Run("found", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		entry := postedEntry(uuid.New())
		mockService.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

		router := setupTestRouter()
		router.GET("/ledger/entries/:id", handler.GetEntryByID)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/entries/"+entry.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		id := uuid.New()
		mockService.On("GetEntryByID", mock.Anything, id).Return(nil, ledger.ErrEntryNotFound{EntryID: id})

		router := setupTestRouter()
		router.GET("/ledger/entries/:id", handler.GetEntryByID)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/entries/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestLedgerHandler_ListEntries(t *testing.T) {
	logger := testLogger()

	t.Run("defaults to payment allocations", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		tenantID := uuid.New()
		entry := postedEntry(tenantID)
		mockService.On("ListEntries", mock.Anything, tenantID, ledger.ReferencePaymentAllocation, 1, 10).
			Return([]*ledger.Entry{entry}, nil)

		router := setupTestRouter()
		router.GET("/ledger/entries", handler.ListEntries)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/entries?tenant_id="+tenantID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("missing tenant id", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/ledger/entries", handler.ListEntries)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/entries", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "ListEntries", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reference id pins one entry", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		entry := postedEntry(uuid.New())
		entry.ReferenceType = ledger.ReferencePaymentAllocation
		entry.ReferenceID = "pay-77"
		mockService.On("GetEntryByReference", mock.Anything, ledger.ReferencePaymentAllocation, "pay-77").
			Return(entry, nil)

		router := setupTestRouter()
		router.GET("/ledger/entries", handler.ListEntries)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/entries?reference_type=PAYMENT_ALLOCATION&reference_id=pay-77", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		data, _ := json.Marshal(resp.Data)
		var entries []JournalEntryResponse
		require.NoError(t, json.Unmarshal(data, &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, entry.ID.String(), entries[0].ID)
		assert.Equal(t, "pay-77", entries[0].ReferenceID)
		mockService.AssertNotCalled(t, "ListEntries", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown reference id returns empty list", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		mockService.On("GetEntryByReference", mock.Anything, ledger.ReferenceManualEntry, "missing").
			Return(nil, ledger.ErrEntryNotFound{})

		router := setupTestRouter()
		router.GET("/ledger/entries", handler.ListEntries)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/entries?reference_type=MANUAL_ENTRY&reference_id=missing", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		data, _ := json.Marshal(resp.Data)
		var entries []JournalEntryResponse
		require.NoError(t, json.Unmarshal(data, &entries))
		assert.Empty(t, entries)
	})
}

func TestLedgerHandler_ImportEntries(t *testing.T) {
	logger := testLogger()
	tenantID := uuid.New()

	t.Run("entries post independently", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		posted := postedEntry(tenantID)
		posted.ReferenceType = ledger.ReferenceBulkImport
		mockService.On("ImportEntries", mock.Anything, mock.MatchedBy(func(inputs []*service.ManualEntryInput) bool {
			return len(inputs) == 2
		})).Return([]*service.BulkEntryResult{
			{Row: 0, Entry: posted},
			{Row: 1, Err: ledger.ErrImbalancedEntry{Imbalance: decimal.NewFromInt(25)}},
		}, nil)

		router := setupTestRouter()
		router.POST("/ledger/entries/import", handler.ImportEntries)

		// The middle entry carries a bad debit and is rejected before the
		// batch call.
		body, _ := json.Marshal(BulkImportRequest{Entries: []ManualEntryRequest{
			{TenantID: tenantID.String(), ReferenceID: "mig-1", Lines: []ManualLineRequest{
				{AccountCode: "1001", Debit: "100"}, {AccountCode: "1200", Credit: "100"},
			}},
			{TenantID: tenantID.String(), ReferenceID: "mig-2", Lines: []ManualLineRequest{
				{AccountCode: "1001", Debit: "oops"}, {AccountCode: "1200", Credit: "50"},
			}},
			{TenantID: tenantID.String(), ReferenceID: "mig-3", Lines: []ManualLineRequest{
				{AccountCode: "1001", Debit: "75"}, {AccountCode: "1200", Credit: "50"},
			}},
		}})
		req, _ := http.NewRequest(http.MethodPost, "/ledger/entries/import", bytes.NewBuffer(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		data, _ := json.Marshal(resp.Data)
		var upload BulkImportResponse
		require.NoError(t, json.Unmarshal(data, &upload))

		assert.Equal(t, 1, upload.Posted)
		assert.Equal(t, 2, upload.Rejected)
		require.Len(t, upload.Rows, 3)

		byRow := make(map[int]BulkEntryRowResponse, len(upload.Rows))
		for _, row := range upload.Rows {
			byRow[row.Row] = row
		}
		assert.Equal(t, posted.ID.String(), byRow[0].EntryID)
		assert.Contains(t, byRow[1].Error, "invalid debit amount")
		assert.Contains(t, byRow[2].Error, "does not balance")
		mockService.AssertExpectations(t)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/ledger/entries/import", handler.ImportEntries)

		req, _ := http.NewRequest(http.MethodPost, "/ledger/entries/import", bytes.NewBufferString(`{"entries":[]}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "ImportEntries", mock.Anything, mock.Anything)
	})
}
