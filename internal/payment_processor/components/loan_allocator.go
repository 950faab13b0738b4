package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/loan"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/payment_processor/service"
	"github.com/shopspring/decimal"
)

// LoanAllocatorImpl implements the LoanAllocator interface
type LoanAllocatorImpl struct {
	loanRepo loan.Repository
	logger   *slog.Logger
}

// NewLoanAllocator creates a new loan allocator
func NewLoanAllocator(loanRepo loan.Repository, logger *slog.Logger) service.LoanAllocator {
	return &LoanAllocatorImpl{
		loanRepo: loanRepo,
		logger:   logger,
	}
}

// LockAndAllocate selects the customer's eligible loans, locks them, runs
// the waterfall and persists every installment and loan change inside the
// given transaction. Locks are taken in eligibility order on all eligible
// loans before any read of the schedule, so concurrent payments for the
// same customer serialize rather than interleave.
func (a *LoanAllocatorImpl) LockAndAllocate(ctx context.Context, tx pgx.Tx, event *payment.Event, res *service.Resolution) (*loan.AllocationResult, error) {
	repo := a.loanRepo.WithTx(tx)

	loans, err := repo.GetByCustomerID(ctx, res.Customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer loans: %w", err)
	}

	eligible, tier, err := loan.SelectEligible(loans)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Selected loans for allocation",
		"payment_id", event.ID.String(),
		"customer_id", res.Customer.ID.String(),
		"tier", tier,
		"loan_count", len(eligible),
	)

	locked := make([]*loan.Loan, 0, len(eligible))
	installments := make(map[uuid.UUID][]*loan.Installment, len(eligible))
	for _, l := range eligible {
		current, err := repo.LockForAllocation(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock loan %s: %w", l.ID.String(), err)
		}
		schedule, err := repo.GetInstallments(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load installments for loan %s: %w", l.ID.String(), err)
		}
		locked = append(locked, current)
		installments[current.ID] = schedule
	}

	result, err := loan.Allocate(event.Amount, locked, installments)
	if err != nil {
		return nil, err
	}

	priorPaid := make(map[uuid.UUID]decimal.Decimal)
	for _, schedule := range installments {
		for _, inst := range schedule {
			priorPaid[inst.ID] = inst.PaidAmount
		}
	}

	for _, upd := range result.Updates {
		if err := repo.ApplyInstallmentUpdate(ctx, upd, priorPaid[upd.InstallmentID]); err != nil {
			return nil, err
		}
	}

	for _, l := range locked {
		state, ok := result.LoanStates[l.ID]
		if !ok || state == l.RepaymentState {
			continue
		}
		if err := repo.UpdateRepaymentState(ctx, l.ID, state, l.Version); err != nil {
			return nil, err
		}
	}

	return result, nil
}
