package reconciliation

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists immutable reconciliation records. There is exactly
// one record set per payment id; CreateSet is the idempotency boundary.
type Repository interface {
	// CreateSet writes the complete record set for a payment in one call.
	// If a set already exists for the payment id, the existing records are
	// returned unchanged (created false); resubmitted payments never grow
	// a second audit trail.
	CreateSet(ctx context.Context, paymentID uuid.UUID, records []*Record) (created bool, existing []*Record, err error)

	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*Record, error)
	ListByLoanID(ctx context.Context, loanID uuid.UUID, limit, offset int) ([]*Record, error)
}

// ErrNoRecords indicates no reconciliation records exist for a payment
type ErrNoRecords struct {
	PaymentID uuid.UUID
}

func (e ErrNoRecords) Error() string {
	return "no reconciliation records for payment: " + e.PaymentID.String()
}

// Is matches any ErrNoRecords when the target carries no id.
func (e ErrNoRecords) Is(target error) bool {
	t, ok := target.(ErrNoRecords)
	if !ok {
		return false
	}
	if t.PaymentID == uuid.Nil {
		return true
	}
	return e.PaymentID == t.PaymentID
}
