package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
	"github.com/jasiri-lending/jasiri-sub007/internal/payment_processor/service"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/messaging/producers"
)

// PaymentJobHandler handles incoming payment job wake-up messages from Kafka
type PaymentJobHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewPaymentJobHandler creates a new handler
func NewPaymentJobHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *PaymentJobHandler {
	return &PaymentJobHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages
func (h *PaymentJobHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var msg shared.PaymentJobMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal payment job message from Kafka"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if msg.CorrelationID != "" {
		logger = h.logger.With("correlation_id", msg.CorrelationID)
	}

	logger.Info("Received payment job wake-up",
		"job_id", msg.JobID.String(),
		"payment_id", msg.PaymentEventID.String(),
		"type", string(msg.Type),
	)

	if err := h.processingService.ProcessPaymentJob(ctx, &msg); err != nil {
		logger.Error("Failed to process payment job",
			"job_id", msg.JobID.String(),
			"payment_id", msg.PaymentEventID.String(),
			"error", err,
		)

		// A dead job will never be requeued by the sweep. Park its message
		// in the DLQ so operators see it; the durable row already carries
		// the failure reason. Transient errors go back to Kafka for retry.
		if errors.Is(err, service.ErrJobDead) && h.producer != nil {
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, err.Error()); dlqErr != nil {
				h.logger.Error("Failed to publish dead job to DLQ",
					"dlq_error", dlqErr,
					"job_id", msg.JobID.String(),
				)
				return fmt.Errorf("processing job %s failed: %w", msg.JobID.String(), err)
			}
			return nil
		}
		return fmt.Errorf("processing job %s failed: %w", msg.JobID.String(), err)
	}

	logger.Info("Successfully handled payment job wake-up", "job_id", msg.JobID.String())
	return nil // Success, commit offset
}
