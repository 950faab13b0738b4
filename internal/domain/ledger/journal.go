package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Reference types linking a journal entry back to its source entity. The
// (ReferenceType, ReferenceID) pair is unique: re-posting the same source
// can never produce a second entry.
const (
	ReferencePaymentAllocation = "PAYMENT_ALLOCATION"
	ReferenceManualEntry       = "MANUAL_ENTRY"
	ReferenceBulkImport        = "BULK_IMPORT"
)

// Entry is one balanced journal entry header. Immutable once posted;
// corrections are posted as reversing entries, never edits.
type Entry struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	ReferenceType string     `json:"reference_type"`
	ReferenceID   string     `json:"reference_id"`
	Memo          string     `json:"memo,omitempty"`
	EntryDate     time.Time  `json:"entry_date"`
	PostedAt      time.Time  `json:"posted_at"`
	Lines         []*Line    `json:"lines,omitempty"`
}

// Line is one leg of an entry. Exactly one of Debit/Credit is nonzero.
type Line struct {
	ID        uuid.UUID       `json:"id"`
	EntryID   uuid.UUID       `json:"entry_id"`
	AccountID uuid.UUID       `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo,omitempty"`
}

// Imbalance returns sum(debits) - sum(credits) across the entry's lines.
func (e *Entry) Imbalance() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit).Sub(l.Credit)
	}
	return total
}

// Balanced reports whether the entry balances within MoneyEpsilon.
func (e *Entry) Balanced() bool {
	return e.Imbalance().Abs().LessThanOrEqual(shared.MoneyEpsilon)
}
