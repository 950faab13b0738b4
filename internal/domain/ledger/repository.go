package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository reads the chart of accounts. Account maintenance lives
// in the administration surface; the engine only resolves and validates.
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Account, error)
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)
	WithTx(tx pgx.Tx) AccountRepository
}

// EntryRepository persists journal entries. CreateWithLines must be atomic:
// header and lines commit together or not at all, a half-written entry can
// never be observed.
type EntryRepository interface {
	CreateWithLines(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetByReference(ctx context.Context, referenceType, referenceID string) (*Entry, error)
	ListByReferenceType(ctx context.Context, tenantID uuid.UUID, referenceType string, limit, offset int) ([]*Entry, error)
	WithTx(tx pgx.Tx) EntryRepository
}

// ErrAccountNotFound indicates a missing chart-of-accounts record
type ErrAccountNotFound struct {
	AccountID uuid.UUID
	Code      string
}

func (e ErrAccountNotFound) Error() string {
	if e.Code != "" {
		return "ledger account not found: " + e.Code
	}
	return "ledger account not found: " + e.AccountID.String()
}

// Is matches any ErrAccountNotFound when the target is empty.
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil && t.Code == "" {
		return true
	}
	return e == t
}

// ErrEntryNotFound indicates a missing journal entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "journal entry not found: " + e.EntryID.String()
}

// Is matches any ErrEntryNotFound when the target carries no id.
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}

// ErrDuplicateReference indicates the source entity already posted an entry
type ErrDuplicateReference struct {
	ReferenceType string
	ReferenceID   string
}

func (e ErrDuplicateReference) Error() string {
	return "journal entry already posted for " + e.ReferenceType + "/" + e.ReferenceID
}
