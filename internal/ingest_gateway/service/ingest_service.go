package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/config"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/messaging/producers"
)

// IngestServiceImpl implements the IngestService interface
type IngestServiceImpl struct {
	pgDB        TxRunner
	eventRepo   payment.EventRepository
	jobRepo     payment.JobRepository
	producer    producers.MessagePublisher
	maxAttempts int
	logger      *slog.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(
	logger *slog.Logger,
	pgDB TxRunner,
	eventRepo payment.EventRepository,
	jobRepo payment.JobRepository,
	producer producers.MessagePublisher,
	queueCfg *config.QueueConfig,
) IngestService {
	return &IngestServiceImpl{
		pgDB:        pgDB,
		eventRepo:   eventRepo,
		jobRepo:     jobRepo,
		producer:    producer,
		maxAttempts: queueCfg.MaxAttempts,
		logger:      logger,
	}
}

// IngestNotification records the event and its processing job in one
// transaction, then publishes the wake-up. The wake-up is best effort: on
// publish failure the committed job row is picked up by the recovery sweep.
func (s *IngestServiceImpl) IngestNotification(ctx context.Context, in *NotificationInput) (*IngestResult, error) {
	event, err := payment.NewEvent(in.ExternalTransactionID, in.Amount, in.PayerPhone, in.RoutingKey, in.Source, in.RawPayload, in.ReceivedAt)
	if err != nil {
		return nil, err
	}
	event.PayerName = in.PayerName

	var (
		created bool
		stored  *payment.Event
		job     *payment.Job
	)
	err = s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		created, stored, txErr = s.eventRepo.WithTx(tx).Create(ctx, event)
		if txErr != nil {
			return txErr
		}
		if !created {
			return nil
		}
		job = payment.NewJob(stored.ID, nil, 0, s.maxAttempts)
		return s.jobRepo.WithTx(tx).Create(ctx, job)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment notification: %w", err)
	}

	if !created {
		s.logger.Info("Duplicate payment notification absorbed",
			"payment_id", stored.ID.String(),
			"status", string(stored.Status),
		)
		return &IngestResult{Event: stored, Created: false}, nil
	}

	if err := s.producer.Publish(ctx, job.ID.String(), job.Message(in.CorrelationID)); err != nil {
		// Not fatal: the durable row exists and the sweep re-publishes.
		s.logger.Error("Failed to publish job wake-up, sweep will recover",
			"job_id", job.ID.String(),
			"payment_id", stored.ID.String(),
			"error", err,
		)
	}

	s.logger.Info("Payment notification recorded",
		"payment_id", stored.ID.String(),
		"job_id", job.ID.String(),
		"source", string(stored.Source),
	)

	jobID := job.ID
	return &IngestResult{Event: stored, Created: true, JobID: &jobID}, nil
}

// IngestStatement feeds each row through the notification path. Rows fail
// independently; the caller receives a per-row outcome.
func (s *IngestServiceImpl) IngestStatement(ctx context.Context, rows []*NotificationInput) ([]*StatementRowResult, error) {
	results := make([]*StatementRowResult, 0, len(rows))
	for i, row := range rows {
		res, err := s.IngestNotification(ctx, row)
		results = append(results, &StatementRowResult{Row: i, Result: res, Err: err})
		if err != nil {
			s.logger.Warn("Statement row rejected", "row", i, "error", err)
		}
	}
	return results, nil
}

// GetPaymentByID retrieves a payment event by ID
func (s *IngestServiceImpl) GetPaymentByID(ctx context.Context, id uuid.UUID) (*payment.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}
