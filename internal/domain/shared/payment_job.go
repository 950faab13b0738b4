package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidJobType = errors.New("invalid job type")

// JobType defines the kinds of work a payment job can carry
type JobType string

const (
	JobTypeProcessPayment JobType = "PAYMENT_PROCESS"
)

// JobStatus defines payment job queue states
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusDead       JobStatus = "DEAD"
)

// PaymentJobMessage is the Kafka message that wakes a worker for a queued job.
// The durable job record lives in Postgres; the message only carries enough
// to claim it. A lost message is recovered by the sweep, which re-publishes
// queued jobs.
type PaymentJobMessage struct {
	JobID          uuid.UUID `json:"job_id"`
	PaymentEventID uuid.UUID `json:"payment_event_id"`
	Type           JobType   `json:"type"`
	CorrelationID  string    `json:"correlation_id,omitempty"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}
