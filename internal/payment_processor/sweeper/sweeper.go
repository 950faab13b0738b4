// Package sweeper recovers payment jobs that fell out of the normal
// wake-up flow: jobs stuck in processing after a worker crash, and queued
// jobs whose Kafka message was lost.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jasiri-lending/jasiri-sub007/internal/config"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/messaging/producers"
	"github.com/robfig/cron/v3"
)

// Sweeper periodically reclaims stuck jobs and re-publishes lost wake-ups.
type Sweeper struct {
	jobRepo      payment.JobRepository
	jobPublisher producers.MessagePublisher
	logger       *slog.Logger
	claimTimeout time.Duration
	interval     time.Duration
	batchSize    int
	cron         *cron.Cron
}

func NewSweeper(
	cfg *config.QueueConfig,
	jobRepo payment.JobRepository,
	jobPublisher producers.MessagePublisher,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		jobRepo:      jobRepo,
		jobPublisher: jobPublisher,
		logger:       logger,
		claimTimeout: cfg.ClaimTimeout,
		interval:     cfg.SweepInterval,
		batchSize:    cfg.SweepBatch,
	}
}

// Start schedules the sweep and runs it until the context is canceled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("Starting job recovery sweeper",
		"claim_timeout", s.claimTimeout.String(),
		"interval", s.interval.String(),
		"batch_size", s.batchSize,
	)

	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.interval.String())
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("Sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule recovery sweep: %w", err)
	}

	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.logger.Info("Stopping job recovery sweeper")
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}()

	return nil
}

// Sweep performs one recovery pass.
func (s *Sweeper) Sweep(ctx context.Context) error {
	requeued, died, err := s.jobRepo.ReclaimStuck(ctx, s.claimTimeout, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to reclaim stuck jobs: %w", err)
	}

	for _, job := range died {
		s.logger.Error("Stuck job exhausted its attempts, marked dead",
			"job_id", job.ID.String(),
			"payment_id", job.PaymentEventID.String(),
			"attempts", job.Attempts,
		)
	}

	// Reclaimed jobs and stale queued jobs both need a fresh wake-up; the
	// original message was consumed or lost.
	stale, err := s.jobRepo.GetQueuedOlderThan(ctx, s.claimTimeout, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list stale queued jobs: %w", err)
	}

	published := 0
	seen := make(map[string]bool, len(requeued)+len(stale))
	for _, job := range append(requeued, stale...) {
		id := job.ID.String()
		if seen[id] {
			continue
		}
		seen[id] = true

		msg := job.Message("")
		if err := s.jobPublisher.Publish(ctx, id, msg); err != nil {
			s.logger.Error("Failed to re-publish job wake-up",
				"job_id", id,
				"error", err,
			)
			continue
		}
		published++
	}

	if len(requeued) > 0 || len(died) > 0 || published > 0 {
		s.logger.Info("Recovery sweep finished",
			"requeued", len(requeued),
			"died", len(died),
			"republished", published,
		)
	}

	return nil
}
