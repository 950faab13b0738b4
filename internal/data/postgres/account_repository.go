package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/ledger"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/persistence"
)

// AccountRepository implements ledger.AccountRepository for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL chart-of-accounts repository
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.AccountRepository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *AccountRepository) WithTx(tx pgx.Tx) ledger.AccountRepository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const accountColumns = `id, tenant_id, code, name, type, active, created_at, updated_at`

func scanAccount(row pgx.Row) (*ledger.Account, error) {
	var a ledger.Account
	err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.Code,
		&a.Name,
		&a.Type,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves a ledger account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE id = $1`

	a, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get ledger account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger account: %w", err)
	}

	return a, nil
}

// GetByIDs retrieves a batch of accounts keyed by id. Missing ids are simply
// absent from the map; the caller decides whether that is an error.
func (r *AccountRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*ledger.Account, error) {
	accounts := make(map[uuid.UUID]*ledger.Account, len(ids))
	if len(ids) == 0 {
		return accounts, nil
	}

	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE id = ANY($1)`

	rows, err := r.querier.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error("Failed to get ledger accounts", "error", err)
		return nil, fmt.Errorf("failed to get ledger accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			r.logger.Error("Failed to scan ledger account", "error", err)
			return nil, fmt.Errorf("failed to scan ledger account: %w", err)
		}
		accounts[a.ID] = a
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over ledger accounts", "error", err)
		return nil, fmt.Errorf("error iterating over ledger accounts: %w", err)
	}

	return accounts, nil
}

// GetByCode retrieves a tenant's account by its chart code
func (r *AccountRepository) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE tenant_id = $1 AND code = $2`

	a, err := scanAccount(r.querier.QueryRow(ctx, query, tenantID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound{Code: code}
		}
		r.logger.Error("Failed to get ledger account by code", "tenant_id", tenantID.String(), "code", code, "error", err)
		return nil, fmt.Errorf("failed to get ledger account by code: %w", err)
	}

	return a, nil
}
