package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
)

// Job is the durable queue record for one unit of processing work. The
// Kafka message is only a wake-up; the row here is the source of truth for
// claim state, attempts and the terminal outcome.
type Job struct {
	ID             uuid.UUID        `json:"id"`
	TenantID       *uuid.UUID       `json:"tenant_id,omitempty"`
	PaymentEventID uuid.UUID        `json:"payment_event_id"`
	Type           shared.JobType   `json:"type"`
	Priority       int              `json:"priority"`
	Status         shared.JobStatus `json:"status"`
	Attempts       int              `json:"attempts"`
	MaxAttempts    int              `json:"max_attempts"`
	ClaimedAt      *time.Time       `json:"claimed_at,omitempty"`
	LastError      string           `json:"last_error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewJob enqueues processing work for a recorded payment event.
func NewJob(eventID uuid.UUID, tenantID *uuid.UUID, priority, maxAttempts int) *Job {
	now := time.Now()
	return &Job{
		ID:             uuid.New(),
		TenantID:       tenantID,
		PaymentEventID: eventID,
		Type:           shared.JobTypeProcessPayment,
		Priority:       priority,
		Status:         shared.JobStatusQueued,
		MaxAttempts:    maxAttempts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Exhausted reports whether the job has burned through its attempt budget.
func (j *Job) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}

// Message builds the Kafka wake-up for this job.
func (j *Job) Message(correlationID string) shared.PaymentJobMessage {
	return shared.PaymentJobMessage{
		JobID:          j.ID,
		PaymentEventID: j.PaymentEventID,
		Type:           j.Type,
		CorrelationID:  correlationID,
		EnqueuedAt:     j.CreatedAt,
	}
}
