// Package ledger models the double-entry general ledger: the chart of
// accounts (maintained by the administration surface, read here) and the
// immutable journal entries the poster produces.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AccountType classifies chart-of-accounts entries
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Account is one chart-of-accounts record. Every journal line must reference
// an account belonging to the entry's tenant; cross-tenant lines are a
// validation failure, never a silent write.
type Account struct {
	ID        uuid.UUID   `json:"id"`
	TenantID  uuid.UUID   `json:"tenant_id"`
	Code      string      `json:"code"` // unique per tenant
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
