package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/ledger"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// TxRunner runs a function inside one database transaction. Satisfied by
// persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// NotificationInput is one inbound payment notification after transport
// decoding, before any matching.
type NotificationInput struct {
	ExternalTransactionID *string
	Amount                decimal.Decimal
	PayerPhone            string
	PayerName             string
	RoutingKey            string
	Source                payment.EventSource
	RawPayload            json.RawMessage
	ReceivedAt            time.Time
	CorrelationID         string
}

// IngestResult reports what recording one notification produced. Duplicate
// deliveries return the original event with Created false and no new job.
type IngestResult struct {
	Event   *payment.Event
	Created bool
	JobID   *uuid.UUID
}

// StatementRowResult pairs one statement row with its ingest outcome.
type StatementRowResult struct {
	Row    int
	Result *IngestResult
	Err    error
}

// IngestService records payment notifications and enqueues processing work.
type IngestService interface {
	// IngestNotification records the event and, for first deliveries,
	// creates the durable job and publishes its wake-up.
	IngestNotification(ctx context.Context, in *NotificationInput) (*IngestResult, error)

	// IngestStatement ingests a batch of statement rows independently: one
	// bad row never blocks the rest.
	IngestStatement(ctx context.Context, rows []*NotificationInput) ([]*StatementRowResult, error)

	// GetPaymentByID retrieves a payment event with its processing outcome.
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*payment.Event, error)
}

// SuspenseService exposes the manual resolution queue.
type SuspenseService interface {
	ListSuspense(ctx context.Context, page, perPage int) ([]*payment.Event, int64, error)

	// Rematch requeues a suspense event with an operator-chosen customer
	// and enqueues a fresh processing job for it.
	Rematch(ctx context.Context, eventID, customerID uuid.UUID, correlationID string) (*payment.Event, error)
}

// ManualLineInput is one proposed line of a manual journal entry.
type ManualLineInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Memo        string
}

// ManualEntryInput is an operator-submitted journal entry before account
// resolution and balance validation.
type ManualEntryInput struct {
	TenantID    uuid.UUID
	ReferenceID string
	Memo        string
	EntryDate   time.Time
	Lines       []ManualLineInput
}

// BulkEntryResult pairs one imported journal entry with its posting outcome.
type BulkEntryResult struct {
	Row   int
	Entry *ledger.Entry
	Err   error
}

// LedgerService exposes journal posting and inspection.
type LedgerService interface {
	// PostManualEntry validates and posts an operator-submitted entry.
	// Validation is all-or-nothing; an imbalanced entry writes nothing.
	PostManualEntry(ctx context.Context, in *ManualEntryInput) (*ledger.Entry, error)

	// ImportEntries posts a batch of entries under the bulk-import
	// reference type. Entries post independently; one invalid entry never
	// blocks the rest.
	ImportEntries(ctx context.Context, entries []*ManualEntryInput) ([]*BulkEntryResult, error)

	GetEntryByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error)

	// GetEntryByReference finds the entry posted for a source entity. The
	// (referenceType, referenceID) pair is unique across tenants.
	GetEntryByReference(ctx context.Context, referenceType, referenceID string) (*ledger.Entry, error)

	ListEntries(ctx context.Context, tenantID uuid.UUID, referenceType string, page, perPage int) ([]*ledger.Entry, error)
}
