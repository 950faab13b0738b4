package loan

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines loan and installment persistence operations
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Loan, error)
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*Loan, error)
	GetInstallments(ctx context.Context, loanID uuid.UUID) ([]*Installment, error)

	// LockForAllocation acquires a row lock on the loan for the duration of
	// the surrounding transaction. Allocation against a loan is serialized
	// through this lock; two workers can never both read the same
	// installment's pre-update paid amount.
	LockForAllocation(ctx context.Context, id uuid.UUID) (*Loan, error)

	// ApplyInstallmentUpdate advances one installment's paid amount and
	// status. The WHERE clause re-checks the expected prior paid amount so
	// that a stale read fails loudly instead of double-applying.
	ApplyInstallmentUpdate(ctx context.Context, upd InstallmentUpdate, expectedPaid decimal.Decimal) error

	// UpdateRepaymentState writes the post-allocation rollup.
	UpdateRepaymentState(ctx context.Context, loanID uuid.UUID, state RepaymentState, version int) error

	WithTx(tx pgx.Tx) Repository
}

// ErrLoanNotFound indicates a missing loan
type ErrLoanNotFound struct {
	LoanID uuid.UUID
}

func (e ErrLoanNotFound) Error() string {
	return "loan not found: " + e.LoanID.String()
}

// ErrStaleInstallment indicates the installment changed between the
// allocator's read and its write, i.e. a serialization violation.
type ErrStaleInstallment struct {
	InstallmentID uuid.UUID
}

func (e ErrStaleInstallment) Error() string {
	return "installment modified concurrently: " + e.InstallmentID.String()
}

// ErrConcurrentLoanUpdate indicates the loan version guard failed
type ErrConcurrentLoanUpdate struct {
	LoanID uuid.UUID
}

func (e ErrConcurrentLoanUpdate) Error() string {
	return "concurrent modification detected for loan: " + e.LoanID.String()
}
