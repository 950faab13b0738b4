package components

import (
	"log/slog"

	"github.com/jasiri-lending/jasiri-sub007/internal/config"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/customer"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/ledger"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/loan"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/reconciliation"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/tenant"
	"github.com/jasiri-lending/jasiri-sub007/internal/payment_processor/service"
	"github.com/jasiri-lending/jasiri-sub007/internal/phone"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/persistence"
)

// ProcessingRepositories bundles the persistence dependencies the pipeline
// needs.
type ProcessingRepositories struct {
	Events   payment.EventRepository
	Jobs     payment.JobRepository
	Tenants  tenant.Repository
	Customs  customer.Repository
	Loans    loan.Repository
	Accounts ledger.AccountRepository
	Entries  ledger.EntryRepository
	Recon    reconciliation.Repository
}

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(
	pgDB *persistence.PostgresDB,
	repos ProcessingRepositories,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	phones := phone.NewNormalizer(cfg.Payments.DefaultRegion)

	resolver := NewPaymentResolver(repos.Tenants, repos.Customs, phones, logger)
	allocator := NewLoanAllocator(repos.Loans, logger)
	recorder := NewReconRecorder(repos.Recon, logger)
	poster := NewLedgerPoster(repos.Accounts, repos.Entries, logger)

	baseService := service.NewProcessingService(
		pgDB,
		repos.Events,
		repos.Jobs,
		resolver,
		allocator,
		recorder,
		poster,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
