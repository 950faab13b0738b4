package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

// PaymentEventRepository implements payment.EventRepository for PostgreSQL
type PaymentEventRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPaymentEventRepository creates a new PostgreSQL payment event repository
func NewPaymentEventRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.EventRepository {
	return &PaymentEventRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *PaymentEventRepository) WithTx(tx pgx.Tx) payment.EventRepository {
	return &PaymentEventRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const eventColumns = `id, external_transaction_id, tenant_id, customer_id, amount, payer_phone, payer_name, routing_key, source, raw_payload, status, reason, unapplied_amount, rematch_customer_id, received_at, processed_at, created_at, updated_at`

func scanEvent(row pgx.Row) (*payment.Event, error) {
	var e payment.Event
	err := row.Scan(
		&e.ID,
		&e.ExternalTransactionID,
		&e.TenantID,
		&e.CustomerID,
		&e.Amount,
		&e.PayerPhone,
		&e.PayerName,
		&e.RoutingKey,
		&e.Source,
		&e.RawPayload,
		&e.Status,
		&e.Reason,
		&e.UnappliedAmount,
		&e.RematchCustomerID,
		&e.ReceivedAt,
		&e.ProcessedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts the event, absorbing duplicate deliveries. The partial
// unique index on external_transaction_id arbitrates the conflict, so the
// ON CONFLICT target carries the index predicate; a repeated id is a no-op
// and the existing record is fetched and returned so the caller can hand
// back the original result.
func (r *PaymentEventRepository) Create(ctx context.Context, event *payment.Event) (bool, *payment.Event, error) {
	query := `
		INSERT INTO payment_events (id, external_transaction_id, tenant_id, customer_id, amount, payer_phone, payer_name, routing_key, source, raw_payload, status, reason, unapplied_amount, received_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (external_transaction_id) WHERE external_transaction_id IS NOT NULL DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query,
		event.ID,
		event.ExternalTransactionID,
		event.TenantID,
		event.CustomerID,
		event.Amount,
		event.PayerPhone,
		event.PayerName,
		event.RoutingKey,
		event.Source,
		event.RawPayload,
		event.Status,
		event.Reason,
		event.UnappliedAmount,
		event.ReceivedAt,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment event", "error", err)
		return false, nil, fmt.Errorf("failed to create payment event: %w", err)
	}

	if result.RowsAffected() > 0 {
		return true, event, nil
	}

	// Duplicate delivery: the external id already has a record.
	if event.ExternalTransactionID == nil {
		return false, nil, fmt.Errorf("payment event insert affected no rows without an external id conflict")
	}
	existing, err := r.GetByExternalID(ctx, *event.ExternalTransactionID)
	if err != nil {
		return false, nil, fmt.Errorf("failed to load existing payment event after duplicate insert: %w", err)
	}
	return false, existing, nil
}

// GetByID retrieves a payment event by its ID
func (r *PaymentEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM payment_events WHERE id = $1`

	e, err := scanEvent(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrEventNotFound{EventID: id}
		}
		r.logger.Error("Failed to get payment event", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment event: %w", err)
	}

	return e, nil
}

// GetByExternalID retrieves a payment event by its external transaction id
func (r *PaymentEventRepository) GetByExternalID(ctx context.Context, externalID string) (*payment.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM payment_events WHERE external_transaction_id = $1`

	e, err := scanEvent(r.querier.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrEventNotFound{}
		}
		r.logger.Error("Failed to get payment event by external id", "external_id", externalID, "error", err)
		return nil, fmt.Errorf("failed to get payment event by external id: %w", err)
	}

	return e, nil
}

// MarkApplied records a successful allocation pass. The status guard keeps
// terminal transitions one-way.
func (r *PaymentEventRepository) MarkApplied(ctx context.Context, id uuid.UUID, tenantID, customerID uuid.UUID, unapplied decimal.Decimal) error {
	query := `
		UPDATE payment_events
		SET status = $1, tenant_id = $2, customer_id = $3, unapplied_amount = $4, reason = '', processed_at = $5, updated_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := r.querier.Exec(ctx, query,
		payment.EventStatusApplied, tenantID, customerID, unapplied, time.Now(), id, payment.EventStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to mark payment event applied", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark payment event applied: %w", err)
	}
	if result.RowsAffected() == 0 {
		return payment.ErrEventNotFound{EventID: id}
	}
	return nil
}

// MarkSuspense routes an unmatched event to suspense, keeping its raw
// payload for manual resolution.
func (r *PaymentEventRepository) MarkSuspense(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE payment_events
		SET status = $1, reason = $2, processed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.querier.Exec(ctx, query,
		payment.EventStatusSuspense, reason, time.Now(), id, payment.EventStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to mark payment event suspense", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark payment event suspense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return payment.ErrEventNotFound{EventID: id}
	}
	return nil
}

// MarkFailed records a matched-but-unallocatable payment
func (r *PaymentEventRepository) MarkFailed(ctx context.Context, id uuid.UUID, tenantID, customerID uuid.UUID, reason string) error {
	query := `
		UPDATE payment_events
		SET status = $1, tenant_id = $2, customer_id = $3, reason = $4, processed_at = $5, updated_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := r.querier.Exec(ctx, query,
		payment.EventStatusFailed, tenantID, customerID, reason, time.Now(), id, payment.EventStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to mark payment event failed", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark payment event failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return payment.ErrEventNotFound{EventID: id}
	}
	return nil
}

// Requeue returns a suspense event to pending with an operator-supplied
// customer hint for the re-match pass.
func (r *PaymentEventRepository) Requeue(ctx context.Context, id uuid.UUID, rematchCustomerID uuid.UUID) error {
	query := `
		UPDATE payment_events
		SET status = $1, reason = '', rematch_customer_id = $2, processed_at = NULL, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	result, err := r.querier.Exec(ctx, query,
		payment.EventStatusPending, rematchCustomerID, id, payment.EventStatusSuspense,
	)
	if err != nil {
		r.logger.Error("Failed to requeue payment event", "id", id.String(), "error", err)
		return fmt.Errorf("failed to requeue payment event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return payment.ErrEventNotFound{EventID: id}
	}
	return nil
}

// ListSuspense returns suspense events for the operator screens, newest first
func (r *PaymentEventRepository) ListSuspense(ctx context.Context, limit, offset int) ([]*payment.Event, int64, error) {
	countQuery := `SELECT COUNT(*) FROM payment_events WHERE status = $1`

	var total int64
	if err := r.querier.QueryRow(ctx, countQuery, payment.EventStatusSuspense).Scan(&total); err != nil {
		r.logger.Error("Failed to count suspense events", "error", err)
		return nil, 0, fmt.Errorf("failed to count suspense events: %w", err)
	}

	query := `SELECT ` + eventColumns + ` FROM payment_events WHERE status = $1 ORDER BY received_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.querier.Query(ctx, query, payment.EventStatusSuspense, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list suspense events", "error", err)
		return nil, 0, fmt.Errorf("failed to list suspense events: %w", err)
	}
	defer rows.Close()

	var events []*payment.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			r.logger.Error("Failed to scan payment event", "error", err)
			return nil, 0, fmt.Errorf("failed to scan payment event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over suspense events", "error", err)
		return nil, 0, fmt.Errorf("error iterating over suspense events: %w", err)
	}

	return events, total, nil
}
