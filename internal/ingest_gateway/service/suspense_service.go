package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/config"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/customer"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/messaging/producers"
)

// SuspenseServiceImpl implements the SuspenseService interface
type SuspenseServiceImpl struct {
	pgDB         TxRunner
	eventRepo    payment.EventRepository
	jobRepo      payment.JobRepository
	customerRepo customer.Repository
	producer     producers.MessagePublisher
	maxAttempts  int
	logger       *slog.Logger
}

// NewSuspenseService creates a new suspense service
func NewSuspenseService(
	logger *slog.Logger,
	pgDB TxRunner,
	eventRepo payment.EventRepository,
	jobRepo payment.JobRepository,
	customerRepo customer.Repository,
	producer producers.MessagePublisher,
	queueCfg *config.QueueConfig,
) SuspenseService {
	return &SuspenseServiceImpl{
		pgDB:         pgDB,
		eventRepo:    eventRepo,
		jobRepo:      jobRepo,
		customerRepo: customerRepo,
		producer:     producer,
		maxAttempts:  queueCfg.MaxAttempts,
		logger:       logger,
	}
}

// ListSuspense returns paginated suspense events
func (s *SuspenseServiceImpl) ListSuspense(ctx context.Context, page, perPage int) ([]*payment.Event, int64, error) {
	offset := (page - 1) * perPage
	return s.eventRepo.ListSuspense(ctx, perPage, offset)
}

// Rematch verifies the chosen customer, returns the suspense event to the
// queue with the hint attached, and enqueues a fresh processing job. The
// event flows through the normal pipeline again, so all allocation
// invariants apply to rematches too.
func (s *SuspenseServiceImpl) Rematch(ctx context.Context, eventID, customerID uuid.UUID, correlationID string) (*payment.Event, error) {
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	var job *payment.Job
	err := s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.eventRepo.WithTx(tx).Requeue(ctx, eventID, customerID); err != nil {
			return err
		}
		job = payment.NewJob(eventID, nil, 0, s.maxAttempts)
		return s.jobRepo.WithTx(tx).Create(ctx, job)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to requeue suspense payment: %w", err)
	}

	if err := s.producer.Publish(ctx, job.ID.String(), job.Message(correlationID)); err != nil {
		s.logger.Error("Failed to publish rematch wake-up, sweep will recover",
			"job_id", job.ID.String(),
			"payment_id", eventID.String(),
			"error", err,
		)
	}

	s.logger.Info("Suspense payment requeued for rematch",
		"payment_id", eventID.String(),
		"customer_id", customerID.String(),
		"job_id", job.ID.String(),
	)

	return s.eventRepo.GetByID(ctx, eventID)
}
