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
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/persistence"
)

// JobRepository implements payment.JobRepository for PostgreSQL
type JobRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewJobRepository creates a new PostgreSQL payment job repository
func NewJobRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.JobRepository {
	return &JobRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *JobRepository) WithTx(tx pgx.Tx) payment.JobRepository {
	return &JobRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const jobColumns = `id, tenant_id, payment_event_id, type, priority, status, attempts, max_attempts, claimed_at, last_error, created_at, updated_at`

func scanJob(row pgx.Row) (*payment.Job, error) {
	var j payment.Job
	err := row.Scan(
		&j.ID,
		&j.TenantID,
		&j.PaymentEventID,
		&j.Type,
		&j.Priority,
		&j.Status,
		&j.Attempts,
		&j.MaxAttempts,
		&j.ClaimedAt,
		&j.LastError,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Create inserts a new queued job
func (r *JobRepository) Create(ctx context.Context, job *payment.Job) error {
	query := `
		INSERT INTO payment_jobs (id, tenant_id, payment_event_id, type, priority, status, attempts, max_attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		job.ID,
		job.TenantID,
		job.PaymentEventID,
		job.Type,
		job.Priority,
		job.Status,
		job.Attempts,
		job.MaxAttempts,
		job.LastError,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment job", "error", err)
		return fmt.Errorf("failed to create payment job: %w", err)
	}

	return nil
}

// GetByID retrieves a job by its ID
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM payment_jobs WHERE id = $1`

	j, err := scanJob(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrJobNotFound{JobID: id}
		}
		r.logger.Error("Failed to get payment job", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment job: %w", err)
	}

	return j, nil
}

// Claim atomically moves a queued job to processing. The status predicate
// makes the claim a compare-and-set, so duplicate Kafka deliveries race
// safely: exactly one worker wins, the rest see claimed false.
func (r *JobRepository) Claim(ctx context.Context, id uuid.UUID) (*payment.Job, bool, error) {
	query := `
		UPDATE payment_jobs
		SET status = $1, attempts = attempts + 1, claimed_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + jobColumns

	j, err := scanJob(r.querier.QueryRow(ctx, query, shared.JobStatusProcessing, time.Now(), id, shared.JobStatusQueued))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		r.logger.Error("Failed to claim payment job", "id", id.String(), "error", err)
		return nil, false, fmt.Errorf("failed to claim payment job: %w", err)
	}

	return j, true, nil
}

// Complete marks a processing job completed
func (r *JobRepository) Complete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE payment_jobs
		SET status = $1, last_error = '', updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.querier.Exec(ctx, query, shared.JobStatusCompleted, time.Now(), id, shared.JobStatusProcessing)
	if err != nil {
		r.logger.Error("Failed to complete payment job", "id", id.String(), "error", err)
		return fmt.Errorf("failed to complete payment job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return payment.ErrJobNotFound{JobID: id}
	}
	return nil
}

// Fail records a failed attempt. With dead true the job leaves the queue
// permanently; otherwise it returns to queued for another attempt.
func (r *JobRepository) Fail(ctx context.Context, id uuid.UUID, reason string, dead bool) error {
	status := shared.JobStatusQueued
	if dead {
		status = shared.JobStatusDead
	}

	query := `
		UPDATE payment_jobs
		SET status = $1, last_error = $2, claimed_at = NULL, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.querier.Exec(ctx, query, status, reason, time.Now(), id, shared.JobStatusProcessing)
	if err != nil {
		r.logger.Error("Failed to fail payment job", "id", id.String(), "error", err)
		return fmt.Errorf("failed to fail payment job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return payment.ErrJobNotFound{JobID: id}
	}
	return nil
}

// ReclaimStuck recovers jobs abandoned mid-processing, typically after a
// worker crash. Jobs with attempts left go back to queued; exhausted jobs
// are marked dead. Both sets are returned so the sweep can re-publish
// wake-ups and alert on dead jobs.
func (r *JobRepository) ReclaimStuck(ctx context.Context, timeout time.Duration, limit int) ([]*payment.Job, []*payment.Job, error) {
	cutoff := time.Now().Add(-timeout)

	query := `
		UPDATE payment_jobs
		SET status = CASE WHEN attempts >= max_attempts THEN $1 ELSE $2 END,
		    last_error = CASE WHEN attempts >= max_attempts THEN 'attempts exhausted after stuck processing' ELSE last_error END,
		    claimed_at = NULL,
		    updated_at = NOW()
		WHERE id IN (
			SELECT id FROM payment_jobs
			WHERE status = $3 AND claimed_at < $4
			ORDER BY claimed_at ASC
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	rows, err := r.querier.Query(ctx, query, shared.JobStatusDead, shared.JobStatusQueued, shared.JobStatusProcessing, cutoff, limit)
	if err != nil {
		r.logger.Error("Failed to reclaim stuck payment jobs", "error", err)
		return nil, nil, fmt.Errorf("failed to reclaim stuck payment jobs: %w", err)
	}
	defer rows.Close()

	var requeued, died []*payment.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			r.logger.Error("Failed to scan payment job", "error", err)
			return nil, nil, fmt.Errorf("failed to scan payment job: %w", err)
		}
		if j.Status == shared.JobStatusDead {
			died = append(died, j)
		} else {
			requeued = append(requeued, j)
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over reclaimed jobs", "error", err)
		return nil, nil, fmt.Errorf("error iterating over reclaimed jobs: %w", err)
	}

	return requeued, died, nil
}

// GetQueuedOlderThan lists queued jobs whose wake-up message may have been
// lost, oldest first.
func (r *JobRepository) GetQueuedOlderThan(ctx context.Context, age time.Duration, limit int) ([]*payment.Job, error) {
	cutoff := time.Now().Add(-age)

	query := `SELECT ` + jobColumns + ` FROM payment_jobs WHERE status = $1 AND updated_at < $2 ORDER BY priority DESC, created_at ASC LIMIT $3`

	rows, err := r.querier.Query(ctx, query, shared.JobStatusQueued, cutoff, limit)
	if err != nil {
		r.logger.Error("Failed to list stale queued jobs", "error", err)
		return nil, fmt.Errorf("failed to list stale queued jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*payment.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			r.logger.Error("Failed to scan payment job", "error", err)
			return nil, fmt.Errorf("failed to scan payment job: %w", err)
		}
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over queued jobs", "error", err)
		return nil, fmt.Errorf("error iterating over queued jobs: %w", err)
	}

	return jobs, nil
}
