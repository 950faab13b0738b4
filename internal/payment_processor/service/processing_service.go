package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/customer"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/loan"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/tenant"
)

// ErrJobDead marks a job that exhausted every attempt. The consumer parks
// the triggering message in the DLQ instead of retrying it.
var ErrJobDead = errors.New("payment job exhausted all attempts")

// TxRunner runs a function inside one database transaction. Satisfied by
// persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type ProcessingServiceImpl struct {
	pgDB      TxRunner
	eventRepo payment.EventRepository
	jobRepo   payment.JobRepository
	resolver  PaymentResolver
	allocator LoanAllocator
	recorder  ReconRecorder
	poster    LedgerPoster
	logger    *slog.Logger
}

func NewProcessingService(
	pgDB TxRunner,
	eventRepo payment.EventRepository,
	jobRepo payment.JobRepository,
	resolver PaymentResolver,
	allocator LoanAllocator,
	recorder ReconRecorder,
	poster LedgerPoster,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		pgDB:      pgDB,
		eventRepo: eventRepo,
		jobRepo:   jobRepo,
		resolver:  resolver,
		allocator: allocator,
		recorder:  recorder,
		poster:    poster,
		logger:    logger,
	}
}

// ProcessPaymentJob runs the full pipeline for one job wake-up: claim,
// resolve, allocate under locks, record the audit trail and post the
// journal entry. Every stage is idempotent, so a duplicate wake-up or a
// crash-and-retry converges on the same final state.
func (s *ProcessingServiceImpl) ProcessPaymentJob(ctx context.Context, msg *shared.PaymentJobMessage) error {
	logger := s.logger
	if msg.CorrelationID != "" {
		logger = s.logger.With("correlation_id", msg.CorrelationID)
	}

	job, claimed, err := s.jobRepo.Claim(ctx, msg.JobID)
	if err != nil {
		return fmt.Errorf("failed to claim job %s: %w", msg.JobID.String(), err)
	}
	if !claimed {
		// Another worker holds the job, or it already reached a terminal
		// state. Either way this delivery carries no work.
		logger.Info("Job not claimable, skipping", "job_id", msg.JobID.String())
		return nil
	}

	logger.Info("Processing payment job",
		"job_id", job.ID.String(),
		"payment_id", job.PaymentEventID.String(),
		"attempt", job.Attempts,
	)

	if err := s.process(ctx, logger, job); err != nil {
		logger.Error("Payment job attempt failed",
			"job_id", job.ID.String(),
			"payment_id", job.PaymentEventID.String(),
			"attempt", job.Attempts,
			"error", err,
		)
		dead := job.Exhausted()
		if failErr := s.jobRepo.Fail(ctx, job.ID, err.Error(), dead); failErr != nil {
			logger.Error("Failed to record job failure", "job_id", job.ID.String(), "error", failErr)
			return failErr
		}
		if dead {
			logger.Error("Payment job exhausted its attempts, marked dead", "job_id", job.ID.String())
			// The row is dead and the sweep will not touch it again;
			// surface the typed error so the consumer routes the message
			// to the DLQ for operator attention.
			return fmt.Errorf("%w: %v", ErrJobDead, err)
		}
		// The job is queued again; the sweep re-publishes its wake-up.
		return nil
	}

	if err := s.jobRepo.Complete(ctx, job.ID); err != nil {
		logger.Error("Failed to mark job completed", "job_id", job.ID.String(), "error", err)
		return err
	}

	logger.Info("Payment job completed", "job_id", job.ID.String(), "payment_id", job.PaymentEventID.String())
	return nil
}

func (s *ProcessingServiceImpl) process(ctx context.Context, logger *slog.Logger, job *payment.Job) error {
	event, err := s.eventRepo.GetByID(ctx, job.PaymentEventID)
	if err != nil {
		return fmt.Errorf("failed to load payment event: %w", err)
	}
	if event.Terminal() {
		// A previous attempt finished the work before crashing on the job
		// bookkeeping.
		logger.Info("Payment event already processed",
			"payment_id", event.ID.String(),
			"status", string(event.Status),
		)
		return nil
	}

	res, err := s.resolver.Resolve(ctx, event)
	if err != nil {
		if errors.Is(err, tenant.ErrGatewayConfigNotFound{}) || errors.Is(err, customer.ErrCustomerNotFound{}) {
			logger.Warn("Payment could not be matched, moving to suspense",
				"payment_id", event.ID.String(),
				"error", err,
			)
			return s.eventRepo.MarkSuspense(ctx, event.ID, payment.ReasonNoTenantOrCustomerMatch)
		}
		return fmt.Errorf("resolution failed: %w", err)
	}

	var result *loan.AllocationResult
	var mismatchReason string

	err = s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		events := s.eventRepo.WithTx(tx)

		allocated, allocErr := s.allocator.LockAndAllocate(ctx, tx, event, res)
		if allocErr != nil {
			switch {
			case errors.Is(allocErr, loan.ErrNoEligibleLoan):
				mismatchReason = payment.ReasonNoEligibleLoan
			case errors.Is(allocErr, loan.ErrNoEligibleInstallments):
				mismatchReason = payment.ReasonNoEligibleInstallments
			default:
				return allocErr
			}
			if markErr := events.MarkFailed(ctx, event.ID, res.Config.TenantID, res.Customer.ID, mismatchReason); markErr != nil {
				return markErr
			}
			return s.recorder.RecordMismatch(ctx, event, res)
		}

		if markErr := events.MarkApplied(ctx, event.ID, res.Config.TenantID, res.Customer.ID, allocated.Remainder); markErr != nil {
			return markErr
		}

		if postErr := s.poster.PostAllocation(ctx, tx, event, res, allocated.TotalApplied); postErr != nil {
			return postErr
		}

		// The audit trail is written before the commit: if the commit
		// fails, allocation over the unchanged rows is deterministic and
		// the retry converges on the same set; if the process dies after
		// the commit, the trail already exists and the terminal-status
		// check skips straight to job completion.
		result = allocated
		return s.recorder.RecordAllocation(ctx, event, res, allocated)
	})
	if err != nil {
		return err
	}

	if mismatchReason != "" {
		logger.Warn("Payment matched but found nothing to settle",
			"payment_id", event.ID.String(),
			"reason", mismatchReason,
		)
		return nil
	}

	logger.Info("Payment allocated",
		"payment_id", event.ID.String(),
		"applied", result.TotalApplied.String(),
		"remainder", result.Remainder.String(),
		"loans_touched", len(result.LoansTouched),
	)
	return nil
}
