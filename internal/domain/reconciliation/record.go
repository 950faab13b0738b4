// Package reconciliation models the immutable audit trail linking each
// payment to the installments it settled. Records are written once and
// never updated; they are sufficient to reconstruct fund destination
// without re-running allocation logic.
package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Kind distinguishes a normal allocation record from a mismatch marker.
type Kind string

const (
	// KindAllocation records "amount X of payment P applied to installment I".
	KindAllocation Kind = "ALLOCATION"
	// KindMismatch records a matched customer with zero eligible
	// installments; the full amount stays unapplied and the payment event
	// is failed, not suspended, because the customer WAS identified.
	KindMismatch Kind = "MISMATCH"
)

// Record is one immutable reconciliation row.
type Record struct {
	ID            uuid.UUID `json:"id" bson:"_id"`
	PaymentID     uuid.UUID `json:"payment_id" bson:"payment_id"`
	TenantID      uuid.UUID `json:"tenant_id" bson:"tenant_id"`
	CustomerID    uuid.UUID `json:"customer_id" bson:"customer_id"`
	LoanID        uuid.UUID `json:"loan_id,omitempty" bson:"loan_id,omitempty"`
	InstallmentID uuid.UUID `json:"installment_id,omitempty" bson:"installment_id,omitempty"`
	Kind          Kind      `json:"kind" bson:"kind"`
	Amount        int64     `json:"amount" bson:"amount"` // Stored in minor units
	RecordedAt    time.Time `json:"recorded_at" bson:"recorded_at"`
}

// AmountDecimal returns the record's amount as a decimal.
func (r *Record) AmountDecimal() decimal.Decimal {
	return shared.FromMinorUnits(r.Amount)
}

// NewAllocation builds the audit record for one applied installment amount.
func NewAllocation(paymentID, tenantID, customerID, loanID, installmentID uuid.UUID, amount decimal.Decimal) *Record {
	return &Record{
		ID:            uuid.New(),
		PaymentID:     paymentID,
		TenantID:      tenantID,
		CustomerID:    customerID,
		LoanID:        loanID,
		InstallmentID: installmentID,
		Kind:          KindAllocation,
		Amount:        shared.ToMinorUnits(amount),
		RecordedAt:    time.Now(),
	}
}

// NewMismatch builds the single record for an unallocatable matched payment.
func NewMismatch(paymentID, tenantID, customerID uuid.UUID, unapplied decimal.Decimal) *Record {
	return &Record{
		ID:         uuid.New(),
		PaymentID:  paymentID,
		TenantID:   tenantID,
		CustomerID: customerID,
		Kind:       KindMismatch,
		Amount:     shared.ToMinorUnits(unapplied),
		RecordedAt: time.Now(),
	}
}
