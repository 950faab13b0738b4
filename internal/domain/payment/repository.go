package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// EventRepository manages payment event persistence. Create is the
// idempotency boundary for the whole pipeline.
type EventRepository interface {
	// Create inserts the event, or returns the existing record (created
	// false) when the external transaction id was seen before.
	Create(ctx context.Context, event *Event) (created bool, existing *Event, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	GetByExternalID(ctx context.Context, externalID string) (*Event, error)

	// MarkApplied records a successful allocation pass with any overpayment
	// remainder. MarkSuspense and MarkFailed set the respective terminal
	// states with a reason; suspense events retain their raw payload for
	// manual resolution and are never silently dropped.
	MarkApplied(ctx context.Context, id uuid.UUID, tenantID, customerID uuid.UUID, unapplied decimal.Decimal) error
	MarkSuspense(ctx context.Context, id uuid.UUID, reason string) error
	MarkFailed(ctx context.Context, id uuid.UUID, tenantID, customerID uuid.UUID, reason string) error

	// Requeue returns a suspense event to pending with an operator-supplied
	// customer hint, feeding it back through selection and allocation.
	Requeue(ctx context.Context, id uuid.UUID, rematchCustomerID uuid.UUID) error

	ListSuspense(ctx context.Context, limit, offset int) ([]*Event, int64, error)
	WithTx(tx pgx.Tx) EventRepository
}

// JobRepository manages the durable payment job queue.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// Claim atomically moves a queued job to processing, stamping the claim
	// time and burning one attempt. Returns false when the job is not in a
	// claimable state (already claimed, completed or dead).
	Claim(ctx context.Context, id uuid.UUID) (*Job, bool, error)

	Complete(ctx context.Context, id uuid.UUID) error
	Fail(ctx context.Context, id uuid.UUID, reason string, dead bool) error

	// ReclaimStuck returns to queued every job stuck in processing longer
	// than the timeout, and reports dead any that exhausted its attempts.
	ReclaimStuck(ctx context.Context, timeout time.Duration, limit int) (requeued []*Job, died []*Job, err error)

	// GetQueuedOlderThan lists queued jobs whose wake-up message may have
	// been lost, for re-publication by the sweep.
	GetQueuedOlderThan(ctx context.Context, age time.Duration, limit int) ([]*Job, error)

	WithTx(tx pgx.Tx) JobRepository
}

// ErrEventNotFound indicates a missing payment event
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "payment event not found: " + e.EventID.String()
}

// Is matches any ErrEventNotFound when the target carries no id.
func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}

// ErrJobNotFound indicates a missing payment job
type ErrJobNotFound struct {
	JobID uuid.UUID
}

func (e ErrJobNotFound) Error() string {
	return "payment job not found: " + e.JobID.String()
}
