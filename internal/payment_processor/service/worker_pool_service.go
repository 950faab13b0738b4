package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessingService implements the ProcessingService interface
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ProcessPaymentJob submits a job wake-up to the worker pool for processing.
func (s *WorkerPoolProcessingService) ProcessPaymentJob(ctx context.Context, msg *shared.PaymentJobMessage) error {
	logger := s.logger
	if msg.CorrelationID != "" {
		logger = s.logger.With("correlation_id", msg.CorrelationID)
	}

	logger.Info("Submitting payment job to worker pool",
		"job_id", msg.JobID.String(),
		"payment_id", msg.PaymentEventID.String(),
	)

	// Create a channel to receive the result of the job processing
	resultChan := make(chan error, 1)

	// Store the result channel in the result map
	jobID := msg.JobID.String()
	s.mu.Lock()
	s.results[jobID] = resultChan
	s.mu.Unlock()

	// Create a copy of the message to avoid data races
	msgCopy := *msg

	// Submit the task to the worker pool
	err := s.pool.Submit(func() {
		// Process the job using the base service
		err := s.baseService.ProcessPaymentJob(ctx, &msgCopy)

		// Send the result to the channel
		resultChan <- err

		// Remove the result channel from the map
		s.mu.Lock()
		delete(s.results, jobID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, jobID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit payment job to worker pool",
			"job_id", msg.JobID.String(),
			"error", err,
		)
		return err
	}

	// Wait for the result from the worker
	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
