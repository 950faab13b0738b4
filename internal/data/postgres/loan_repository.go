package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/loan"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

// LoanRepository implements the loan.Repository interface for PostgreSQL
type LoanRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewLoanRepository creates a new PostgreSQL loan repository
func NewLoanRepository(logger *slog.Logger, db *persistence.PostgresDB) loan.Repository {
	return &LoanRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *LoanRepository) WithTx(tx pgx.Tx) loan.Repository {
	return &LoanRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const loanColumns = `id, tenant_id, customer_id, status, repayment_state, principal, total_payable, disbursed_at, version, created_at, updated_at`

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID,
		&l.TenantID,
		&l.CustomerID,
		&l.Status,
		&l.RepaymentState,
		&l.Principal,
		&l.TotalPayable,
		&l.DisbursedAt,
		&l.Version,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetByID retrieves a loan by its ID
func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	l, err := scanLoan(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrLoanNotFound{LoanID: id}
		}
		r.logger.Error("Failed to get loan", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}

	return l, nil
}

// GetByCustomerID retrieves all of a customer's loans, oldest first
func (r *LoanRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 ORDER BY created_at ASC`

	rows, err := r.querier.Query(ctx, query, customerID)
	if err != nil {
		r.logger.Error("Failed to get loans by customer", "customer_id", customerID.String(), "error", err)
		return nil, fmt.Errorf("failed to get loans by customer: %w", err)
	}
	defer rows.Close()

	var loans []*loan.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			r.logger.Error("Failed to scan loan", "error", err)
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over loans", "error", err)
		return nil, fmt.Errorf("error iterating over loans: %w", err)
	}

	return loans, nil
}

// GetInstallments retrieves a loan's schedule ordered by due date
func (r *LoanRepository) GetInstallments(ctx context.Context, loanID uuid.UUID) ([]*loan.Installment, error) {
	query := `
		SELECT id, loan_id, sequence, due_date, due_amount, paid_amount, status, created_at, updated_at
		FROM installments
		WHERE loan_id = $1
		ORDER BY due_date ASC, sequence ASC
	`

	rows, err := r.querier.Query(ctx, query, loanID)
	if err != nil {
		r.logger.Error("Failed to get installments", "loan_id", loanID.String(), "error", err)
		return nil, fmt.Errorf("failed to get installments: %w", err)
	}
	defer rows.Close()

	var installments []*loan.Installment
	for rows.Next() {
		var inst loan.Installment
		err := rows.Scan(
			&inst.ID,
			&inst.LoanID,
			&inst.Sequence,
			&inst.DueDate,
			&inst.DueAmount,
			&inst.PaidAmount,
			&inst.Status,
			&inst.CreatedAt,
			&inst.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan installment", "error", err)
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		installments = append(installments, &inst)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over installments", "error", err)
		return nil, fmt.Errorf("error iterating over installments: %w", err)
	}

	return installments, nil
}

// LockForAllocation obtains a row lock on the loan for the duration of the
// surrounding transaction. This is what serializes concurrent allocations
// against the same loan.
func (r *LoanRepository) LockForAllocation(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`

	l, err := scanLoan(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrLoanNotFound{LoanID: id}
		}
		r.logger.Error("Failed to lock loan for allocation", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock loan for allocation: %w", err)
	}

	return l, nil
}

// ApplyInstallmentUpdate advances one installment's paid amount and status.
// The WHERE clause re-checks the expected prior paid amount; zero rows
// affected means the installment moved under us despite the loan lock,
// which must abort the whole allocation.
func (r *LoanRepository) ApplyInstallmentUpdate(ctx context.Context, upd loan.InstallmentUpdate, expectedPaid decimal.Decimal) error {
	query := `
		UPDATE installments
		SET paid_amount = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND paid_amount = $4
	`

	result, err := r.querier.Exec(ctx, query, upd.NewPaidAmount, upd.NewStatus, upd.InstallmentID, expectedPaid)
	if err != nil {
		r.logger.Error("Failed to apply installment update", "installment_id", upd.InstallmentID.String(), "error", err)
		return fmt.Errorf("failed to apply installment update: %w", err)
	}

	if result.RowsAffected() == 0 {
		return loan.ErrStaleInstallment{InstallmentID: upd.InstallmentID}
	}

	return nil
}

// UpdateRepaymentState writes the post-allocation rollup with an optimistic
// version guard.
func (r *LoanRepository) UpdateRepaymentState(ctx context.Context, loanID uuid.UUID, state loan.RepaymentState, version int) error {
	query := `
		UPDATE loans
		SET repayment_state = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`

	result, err := r.querier.Exec(ctx, query, state, loanID, version)
	if err != nil {
		r.logger.Error("Failed to update loan repayment state", "loan_id", loanID.String(), "error", err)
		return fmt.Errorf("failed to update loan repayment state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return loan.ErrConcurrentLoanUpdate{LoanID: loanID}
	}

	return nil
}
