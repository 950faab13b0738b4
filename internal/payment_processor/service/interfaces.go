package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/customer"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/loan"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/tenant"
	"github.com/shopspring/decimal"
)

// ProcessingService defines the interface for processing payment jobs.
type ProcessingService interface {
	ProcessPaymentJob(ctx context.Context, msg *shared.PaymentJobMessage) error
}

// Resolution carries the identities that matching produced for one event:
// the gateway config (and through it the tenant) plus the owning customer.
type Resolution struct {
	Config   *tenant.GatewayConfig
	Customer *customer.Customer
}

// PaymentResolver matches an event to a tenant and customer. Domain
// not-found errors mean the payment belongs in suspense; any other error
// is transient.
type PaymentResolver interface {
	Resolve(ctx context.Context, event *payment.Event) (*Resolution, error)
}

// LoanAllocator runs selection and the installment waterfall under row
// locks inside the caller's transaction, persisting installment and loan
// state changes before returning.
type LoanAllocator interface {
	LockAndAllocate(ctx context.Context, tx pgx.Tx, event *payment.Event, res *Resolution) (*loan.AllocationResult, error)
}

// ReconRecorder writes the immutable audit trail for a processed payment.
type ReconRecorder interface {
	RecordAllocation(ctx context.Context, event *payment.Event, res *Resolution, result *loan.AllocationResult) error
	RecordMismatch(ctx context.Context, event *payment.Event, res *Resolution) error
}

// LedgerPoster posts the balanced journal entry for an applied payment
// inside the caller's transaction. Posting is idempotent per payment.
type LedgerPoster interface {
	PostAllocation(ctx context.Context, tx pgx.Tx, event *payment.Event, res *Resolution, applied decimal.Decimal) error
}
