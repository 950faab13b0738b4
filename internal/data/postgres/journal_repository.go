package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/ledger"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/persistence"
)

const uniqueViolationCode = "23505"

// JournalRepository implements ledger.EntryRepository for PostgreSQL
type JournalRepository struct {
	db      *persistence.PostgresDB
	querier persistence.Querier
	logger  *slog.Logger
}

// NewJournalRepository creates a new PostgreSQL journal entry repository
func NewJournalRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.EntryRepository {
	return &JournalRepository{
		db:      db,
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *JournalRepository) WithTx(tx pgx.Tx) ledger.EntryRepository {
	return &JournalRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreateWithLines persists the entry header and all its lines atomically.
// Outside a caller-supplied transaction it opens its own; a half-written
// entry can never be observed. A unique violation on the reference pair
// maps to ErrDuplicateReference so retried postings are recognized.
func (r *JournalRepository) CreateWithLines(ctx context.Context, entry *ledger.Entry) error {
	if r.db != nil {
		return r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			return r.WithTx(tx).CreateWithLines(ctx, entry)
		})
	}

	headerQuery := `
		INSERT INTO journal_entries (id, tenant_id, reference_type, reference_id, memo, entry_date, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, headerQuery,
		entry.ID,
		entry.TenantID,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.Memo,
		entry.EntryDate,
		entry.PostedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ledger.ErrDuplicateReference{ReferenceType: entry.ReferenceType, ReferenceID: entry.ReferenceID}
		}
		r.logger.Error("Failed to create journal entry", "error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	lineQuery := `
		INSERT INTO journal_lines (id, entry_id, account_id, debit, credit, memo)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, line := range entry.Lines {
		_, err := r.querier.Exec(ctx, lineQuery,
			line.ID,
			line.EntryID,
			line.AccountID,
			line.Debit,
			line.Credit,
			line.Memo,
		)
		if err != nil {
			r.logger.Error("Failed to create journal line", "entry_id", entry.ID.String(), "error", err)
			return fmt.Errorf("failed to create journal line: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a journal entry with its lines
func (r *JournalRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	query := `
		SELECT id, tenant_id, reference_type, reference_id, memo, entry_date, posted_at
		FROM journal_entries WHERE id = $1
	`

	e, err := scanEntry(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get journal entry", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	if err := r.loadLines(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

// GetByReference retrieves the journal entry posted for a source entity
func (r *JournalRepository) GetByReference(ctx context.Context, referenceType, referenceID string) (*ledger.Entry, error) {
	query := `
		SELECT id, tenant_id, reference_type, reference_id, memo, entry_date, posted_at
		FROM journal_entries WHERE reference_type = $1 AND reference_id = $2
	`

	e, err := scanEntry(r.querier.QueryRow(ctx, query, referenceType, referenceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{}
		}
		r.logger.Error("Failed to get journal entry by reference", "reference_type", referenceType, "reference_id", referenceID, "error", err)
		return nil, fmt.Errorf("failed to get journal entry by reference: %w", err)
	}

	if err := r.loadLines(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

// ListByReferenceType lists a tenant's entries of one reference type,
// newest first. Lines are loaded per entry; listings are operator-paged
// and small.
func (r *JournalRepository) ListByReferenceType(ctx context.Context, tenantID uuid.UUID, referenceType string, limit, offset int) ([]*ledger.Entry, error) {
	query := `
		SELECT id, tenant_id, reference_type, reference_id, memo, entry_date, posted_at
		FROM journal_entries
		WHERE tenant_id = $1 AND reference_type = $2
		ORDER BY posted_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.querier.Query(ctx, query, tenantID, referenceType, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list journal entries", "error", err)
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan journal entry", "error", err)
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over journal entries", "error", err)
		return nil, fmt.Errorf("error iterating over journal entries: %w", err)
	}

	for _, e := range entries {
		if err := r.loadLines(ctx, e); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func scanEntry(row pgx.Row) (*ledger.Entry, error) {
	var e ledger.Entry
	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.ReferenceType,
		&e.ReferenceID,
		&e.Memo,
		&e.EntryDate,
		&e.PostedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *JournalRepository) loadLines(ctx context.Context, entry *ledger.Entry) error {
	query := `
		SELECT id, entry_id, account_id, debit, credit, memo
		FROM journal_lines WHERE entry_id = $1
		ORDER BY id
	`

	rows, err := r.querier.Query(ctx, query, entry.ID)
	if err != nil {
		r.logger.Error("Failed to load journal lines", "entry_id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to load journal lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l ledger.Line
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Debit, &l.Credit, &l.Memo); err != nil {
			r.logger.Error("Failed to scan journal line", "error", err)
			return fmt.Errorf("failed to scan journal line: %w", err)
		}
		entry.Lines = append(entry.Lines, &l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over journal lines", "error", err)
		return fmt.Errorf("error iterating over journal lines: %w", err)
	}

	return nil
}
