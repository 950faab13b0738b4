package loan

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount      = errors.New("payment amount must be positive")
	ErrNoEligibleInstallments = errors.New("no unpaid installments to allocate against")
)

// InstallmentUpdate is one step of a waterfall pass: the amount applied to
// an installment and the resulting state. Updates are pure data; nothing is
// persisted until the caller commits them under the loan lock.
type InstallmentUpdate struct {
	LoanID        uuid.UUID
	InstallmentID uuid.UUID
	Applied       decimal.Decimal
	NewPaidAmount decimal.Decimal
	NewStatus     InstallmentStatus
}

// AllocationResult is the outcome of distributing one payment across one or
// more loans. Remainder is any overpayment left after every installment is
// exhausted; it is surfaced explicitly, never discarded, and no installment
// is auto-created to absorb it.
type AllocationResult struct {
	Updates      []InstallmentUpdate
	TotalApplied decimal.Decimal
	Remainder    decimal.Decimal
	LoansTouched []uuid.UUID
	LoanStates   map[uuid.UUID]RepaymentState
}

// Allocate distributes amount across the eligible loans in order, and within
// each loan across unpaid installments by ascending due date. It is a pure
// function over its inputs: the installment slices are not mutated, and an
// error means zero proposed updates.
func Allocate(amount decimal.Decimal, loans []*Loan, installmentsByLoan map[uuid.UUID][]*Installment) (*AllocationResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrNonPositiveAmount
	}

	eligible := 0
	for _, l := range loans {
		for _, inst := range installmentsByLoan[l.ID] {
			if !inst.Settled() {
				eligible++
			}
		}
	}
	if eligible == 0 {
		return nil, ErrNoEligibleInstallments
	}

	result := &AllocationResult{
		TotalApplied: decimal.Zero,
		LoanStates:   make(map[uuid.UUID]RepaymentState),
	}
	remaining := amount

	for _, l := range loans {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		schedule := append([]*Installment(nil), installmentsByLoan[l.ID]...)
		sort.SliceStable(schedule, func(i, j int) bool {
			if schedule[i].DueDate.Equal(schedule[j].DueDate) {
				return schedule[i].Sequence < schedule[j].Sequence
			}
			return schedule[i].DueDate.Before(schedule[j].DueDate)
		})

		changed := false
		// Track post-allocation paid amounts so the loan rollup sees the
		// schedule as it will be after commit.
		projected := make([]*Installment, len(schedule))
		for idx, inst := range schedule {
			copied := *inst
			projected[idx] = &copied
		}

		for _, inst := range projected {
			if remaining.LessThanOrEqual(decimal.Zero) {
				break
			}
			outstanding := inst.Outstanding()
			if outstanding.LessThanOrEqual(shared.MoneyEpsilon) {
				continue
			}

			applied := decimal.Min(remaining, outstanding)
			inst.PaidAmount = inst.PaidAmount.Add(applied)
			if inst.Settled() {
				inst.Status = InstallmentPaid
			} else {
				inst.Status = InstallmentPartial
			}

			result.Updates = append(result.Updates, InstallmentUpdate{
				LoanID:        l.ID,
				InstallmentID: inst.ID,
				Applied:       applied,
				NewPaidAmount: inst.PaidAmount,
				NewStatus:     inst.Status,
			})
			result.TotalApplied = result.TotalApplied.Add(applied)
			remaining = remaining.Sub(applied)
			changed = true
		}

		if changed {
			result.LoansTouched = append(result.LoansTouched, l.ID)
		}
		result.LoanStates[l.ID] = RollupRepaymentState(l.RepaymentState, projected, changed)
	}

	result.Remainder = remaining
	return result, nil
}
