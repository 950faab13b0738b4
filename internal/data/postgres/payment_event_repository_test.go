package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
)

func newWebhookEvent(t *testing.T, externalID string) *payment.Event {
	t.Helper()
	event, err := payment.NewEvent(
		&externalID,
		decimal.NewFromInt(150),
		"254711000000",
		"600100",
		payment.SourceWebhook,
		[]byte(`{"TransID":"`+externalID+`"}`),
		time.Now(),
	)
	require.NoError(t, err)
	return event
}

func eventRow(e *payment.Event) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "external_transaction_id", "tenant_id", "customer_id", "amount",
		"payer_phone", "payer_name", "routing_key", "source", "raw_payload",
		"status", "reason", "unapplied_amount", "rematch_customer_id",
		"received_at", "processed_at", "created_at", "updated_at",
	}).AddRow(
		e.ID, e.ExternalTransactionID, e.TenantID, e.CustomerID, e.Amount,
		e.PayerPhone, e.PayerName, e.RoutingKey, e.Source, e.RawPayload,
		e.Status, e.Reason, e.UnappliedAmount, e.RematchCustomerID,
		e.ReceivedAt, e.ProcessedAt, e.CreatedAt, e.UpdatedAt,
	)
}

func TestPaymentEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PaymentEventRepository{querier: mock, logger: newTestLogger()}

	// The arbiter index is partial, so the conflict target must repeat its
	// predicate or Postgres rejects the statement outright.
	insertPattern := `INSERT INTO payment_events .+ ON CONFLICT \(external_transaction_id\) WHERE external_transaction_id IS NOT NULL DO NOTHING`

	t.Run("first delivery", func(t *testing.T) {
		event := newWebhookEvent(t, "TX100")

		mock.ExpectExec(insertPattern).
			WithArgs(
				event.ID, event.ExternalTransactionID, event.TenantID, event.CustomerID,
				event.Amount, event.PayerPhone, event.PayerName, event.RoutingKey,
				event.Source, event.RawPayload, event.Status, event.Reason,
				event.UnappliedAmount, event.ReceivedAt, event.CreatedAt, event.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		created, got, err := repo.Create(ctx, event)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, event.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate delivery returns original", func(t *testing.T) {
		original := newWebhookEvent(t, "TX200")
		original.Status = payment.EventStatusApplied

		duplicate := newWebhookEvent(t, "TX200")

		mock.ExpectExec(insertPattern).
			WithArgs(
				duplicate.ID, duplicate.ExternalTransactionID, duplicate.TenantID, duplicate.CustomerID,
				duplicate.Amount, duplicate.PayerPhone, duplicate.PayerName, duplicate.RoutingKey,
				duplicate.Source, duplicate.RawPayload, duplicate.Status, duplicate.Reason,
				duplicate.UnappliedAmount, duplicate.ReceivedAt, duplicate.CreatedAt, duplicate.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectQuery(`SELECT .+ FROM payment_events WHERE external_transaction_id = \$1`).
			WithArgs("TX200").
			WillReturnRows(eventRow(original))

		created, got, err := repo.Create(ctx, duplicate)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, original.ID, got.ID)
		assert.Equal(t, payment.EventStatusApplied, got.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentEventRepository_MarkApplied(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PaymentEventRepository{querier: mock, logger: newTestLogger()}

	eventID := uuid.New()
	tenantID := uuid.New()
	customerID := uuid.New()
	remainder := decimal.NewFromFloat(12.50)

	query := `UPDATE payment_events`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(payment.EventStatusApplied, tenantID, customerID, remainder, pgxmock.AnyArg(), eventID, payment.EventStatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.MarkApplied(ctx, eventID, tenantID, customerID, remainder))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("terminal transitions are one-way", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(payment.EventStatusApplied, tenantID, customerID, remainder, pgxmock.AnyArg(), eventID, payment.EventStatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.MarkApplied(ctx, eventID, tenantID, customerID, remainder)
		assert.ErrorIs(t, err, payment.ErrEventNotFound{EventID: eventID})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentEventRepository_Requeue(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PaymentEventRepository{querier: mock, logger: newTestLogger()}

	eventID := uuid.New()
	customerID := uuid.New()

	t.Run("suspense event requeues", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_events`).
			WithArgs(payment.EventStatusPending, customerID, eventID, payment.EventStatusSuspense).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.Requeue(ctx, eventID, customerID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-suspense event is rejected", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_events`).
			WithArgs(payment.EventStatusPending, customerID, eventID, payment.EventStatusSuspense).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Requeue(ctx, eventID, customerID)
		assert.ErrorIs(t, err, payment.ErrEventNotFound{EventID: eventID})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentEventRepository_ListSuspense(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PaymentEventRepository{querier: mock, logger: newTestLogger()}

	event := newWebhookEvent(t, "TX300")
	event.Status = payment.EventStatusSuspense
	event.Reason = payment.ReasonNoTenantOrCustomerMatch

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payment_events WHERE status = \$1`).
		WithArgs(payment.EventStatusSuspense).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT .+ FROM payment_events WHERE status = \$1 ORDER BY received_at DESC`).
		WithArgs(payment.EventStatusSuspense, 20, 0).
		WillReturnRows(eventRow(event))

	events, total, err := repo.ListSuspense(ctx, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
