package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jasiri-lending/jasiri-sub007/internal/domain/loan"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/reconciliation"
	"github.com/jasiri-lending/jasiri-sub007/internal/payment_processor/service"
)

// ReconRecorderImpl implements the ReconRecorder interface
type ReconRecorderImpl struct {
	reconRepo reconciliation.Repository
	logger    *slog.Logger
}

// NewReconRecorder creates a new reconciliation recorder
func NewReconRecorder(reconRepo reconciliation.Repository, logger *slog.Logger) service.ReconRecorder {
	return &ReconRecorderImpl{
		reconRepo: reconRepo,
		logger:    logger,
	}
}

// RecordAllocation writes one record per applied installment amount. The
// repository keeps exactly one set per payment id, so a retried pipeline
// run leaves the original trail untouched.
func (r *ReconRecorderImpl) RecordAllocation(ctx context.Context, event *payment.Event, res *service.Resolution, result *loan.AllocationResult) error {
	records := make([]*reconciliation.Record, 0, len(result.Updates))
	for _, upd := range result.Updates {
		records = append(records, reconciliation.NewAllocation(
			event.ID,
			res.Config.TenantID,
			res.Customer.ID,
			upd.LoanID,
			upd.InstallmentID,
			upd.Applied,
		))
	}

	created, _, err := r.reconRepo.CreateSet(ctx, event.ID, records)
	if err != nil {
		return fmt.Errorf("failed to record allocation trail: %w", err)
	}
	if !created {
		r.logger.Info("Reconciliation trail already recorded", "payment_id", event.ID.String())
	}
	return nil
}

// RecordMismatch writes the single audit record for a matched payment that
// found nothing to settle.
func (r *ReconRecorderImpl) RecordMismatch(ctx context.Context, event *payment.Event, res *service.Resolution) error {
	record := reconciliation.NewMismatch(event.ID, res.Config.TenantID, res.Customer.ID, event.Amount)

	created, _, err := r.reconRepo.CreateSet(ctx, event.ID, []*reconciliation.Record{record})
	if err != nil {
		return fmt.Errorf("failed to record mismatch: %w", err)
	}
	if !created {
		r.logger.Info("Mismatch already recorded", "payment_id", event.ID.String())
	}
	return nil
}
