package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTooFewLines     = errors.New("journal entry requires at least two lines")
	ErrAmbiguousLine   = errors.New("journal line must set exactly one of debit or credit")
	ErrNegativeLine    = errors.New("journal line amounts must be positive")
	ErrEmptyReference  = errors.New("journal entry requires a source reference")
	ErrUnknownAccount  = errors.New("journal line references an unknown account")
	ErrForeignAccount  = errors.New("journal line references another tenant's account")
	ErrInactiveAccount = errors.New("journal line references an inactive account")
)

// ErrImbalancedEntry rejects an entry whose debits and credits do not match
// within epsilon. The computed imbalance travels with the error so callers
// can surface it without re-deriving.
type ErrImbalancedEntry struct {
	Imbalance decimal.Decimal
}

func (e ErrImbalancedEntry) Error() string {
	return fmt.Sprintf("journal entry does not balance: imbalance %s", e.Imbalance.String())
}

// Is matches any ErrImbalancedEntry regardless of the amount.
func (e ErrImbalancedEntry) Is(target error) bool {
	_, ok := target.(ErrImbalancedEntry)
	return ok
}

// LineInput is a proposed journal line before account resolution.
type LineInput struct {
	AccountID uuid.UUID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Memo      string
}

// BuildEntry validates a proposed entry against the tenant's chart of
// accounts and returns the entry ready for atomic insertion. Validation is
// all-or-nothing: any failure means nothing may be written.
func BuildEntry(tenantID uuid.UUID, referenceType, referenceID, memo string, entryDate time.Time, lines []LineInput, accounts map[uuid.UUID]*Account) (*Entry, error) {
	if referenceType == "" || referenceID == "" {
		return nil, ErrEmptyReference
	}
	if len(lines) < 2 {
		return nil, ErrTooFewLines
	}

	entry := &Entry{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Memo:          memo,
		EntryDate:     entryDate,
		PostedAt:      time.Now(),
	}

	for _, in := range lines {
		hasDebit := in.Debit.IsPositive()
		hasCredit := in.Credit.IsPositive()
		if in.Debit.IsNegative() || in.Credit.IsNegative() {
			return nil, ErrNegativeLine
		}
		if hasDebit == hasCredit {
			return nil, ErrAmbiguousLine
		}

		acc, ok := accounts[in.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, in.AccountID)
		}
		if acc.TenantID != tenantID {
			return nil, fmt.Errorf("%w: %s", ErrForeignAccount, in.AccountID)
		}
		if !acc.Active {
			return nil, fmt.Errorf("%w: %s", ErrInactiveAccount, acc.Code)
		}

		entry.Lines = append(entry.Lines, &Line{
			ID:        uuid.New(),
			EntryID:   entry.ID,
			AccountID: in.AccountID,
			Debit:     in.Debit,
			Credit:    in.Credit,
			Memo:      in.Memo,
		})
	}

	if !entry.Balanced() {
		return nil, ErrImbalancedEntry{Imbalance: entry.Imbalance()}
	}
	return entry, nil
}
