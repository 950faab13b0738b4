// Package loan holds the loan and installment model together with the two
// pieces of pure business logic at the heart of repayment processing: the
// eligible-loan selection cascade and the installment waterfall allocator.
package loan

import (
	"time"

	"github.com/google/uuid"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the loan's approval lifecycle state.
type Status string

const (
	StatusBooked    Status = "BOOKED"
	StatusReview    Status = "REVIEW"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusDisbursed Status = "DISBURSED"
	StatusClosed    Status = "CLOSED"
	StatusDefaulted Status = "DEFAULTED"
)

// RepaymentState is the schedule-completion rollup, tracked independently
// of Status: a DISBURSED loan may be ongoing, partial or completed, and a
// DEFAULTED loan still carries the repayment picture it defaulted with.
type RepaymentState string

const (
	RepaymentOngoing   RepaymentState = "ONGOING"
	RepaymentPartial   RepaymentState = "PARTIAL"
	RepaymentCompleted RepaymentState = "COMPLETED"
	RepaymentOverdue   RepaymentState = "OVERDUE"
	RepaymentDefaulted RepaymentState = "DEFAULTED"
)

// InstallmentStatus tracks a single installment's payment progress.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPartial InstallmentStatus = "PARTIAL"
	InstallmentPaid    InstallmentStatus = "PAID"
	InstallmentOverdue InstallmentStatus = "OVERDUE"
)

// Loan belongs to one customer. TotalPayable is fixed at disbursement and
// always equals the sum of the schedule's due amounts.
type Loan struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	Status         Status          `json:"status"`
	RepaymentState RepaymentState  `json:"repayment_state"`
	Principal      decimal.Decimal `json:"principal"`
	TotalPayable   decimal.Decimal `json:"total_payable"`
	DisbursedAt    *time.Time      `json:"disbursed_at,omitempty"`
	Version        int             `json:"version"` // optimistic guard, bumped on every state write
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Installment is one scheduled repayment. PaidAmount is monotonically
// non-decreasing and never exceeds DueAmount.
type Installment struct {
	ID         uuid.UUID         `json:"id"`
	LoanID     uuid.UUID         `json:"loan_id"`
	Sequence   int               `json:"sequence"`
	DueDate    time.Time         `json:"due_date"`
	DueAmount  decimal.Decimal   `json:"due_amount"`
	PaidAmount decimal.Decimal   `json:"paid_amount"`
	Status     InstallmentStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Outstanding returns due minus paid, floored at zero.
func (i *Installment) Outstanding() decimal.Decimal {
	out := i.DueAmount.Sub(i.PaidAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Settled reports whether the installment is fully paid within epsilon.
func (i *Installment) Settled() bool {
	return i.Outstanding().LessThanOrEqual(shared.MoneyEpsilon)
}

// RollupRepaymentState derives a loan's repayment state after an allocation
// pass without mutating anything. COMPLETED iff every installment is paid;
// PARTIAL when this run changed something; otherwise current is kept.
func RollupRepaymentState(current RepaymentState, installments []*Installment, changedThisRun bool) RepaymentState {
	allPaid := len(installments) > 0
	for _, inst := range installments {
		if !inst.Settled() {
			allPaid = false
			break
		}
	}
	switch {
	case allPaid:
		return RepaymentCompleted
	case changedThisRun:
		return RepaymentPartial
	default:
		return current
	}
}
