package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/ledger"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/payment_processor/service"
	"github.com/shopspring/decimal"
)

// LedgerPosterImpl implements the LedgerPoster interface
type LedgerPosterImpl struct {
	accountRepo ledger.AccountRepository
	entryRepo   ledger.EntryRepository
	logger      *slog.Logger
}

// NewLedgerPoster creates a new ledger poster
func NewLedgerPoster(accountRepo ledger.AccountRepository, entryRepo ledger.EntryRepository, logger *slog.Logger) service.LedgerPoster {
	return &LedgerPosterImpl{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		logger:      logger,
	}
}

// PostAllocation posts the journal entry for an applied payment: debit the
// gateway collection account, credit loan receivables, both for the applied
// amount only. Overpayment remainder stays on the payment event and is not
// posted. The unique reference pair absorbs retried postings.
func (p *LedgerPosterImpl) PostAllocation(ctx context.Context, tx pgx.Tx, event *payment.Event, res *service.Resolution, applied decimal.Decimal) error {
	accountRepo := p.accountRepo.WithTx(tx)
	entryRepo := p.entryRepo.WithTx(tx)

	tenantID := res.Config.TenantID

	collection, err := accountRepo.GetByCode(ctx, tenantID, res.Config.CollectionAccountCode)
	if err != nil {
		return fmt.Errorf("failed to resolve collection account: %w", err)
	}
	receivable, err := accountRepo.GetByCode(ctx, tenantID, res.Config.ReceivableAccountCode)
	if err != nil {
		return fmt.Errorf("failed to resolve receivable account: %w", err)
	}

	accounts := map[uuid.UUID]*ledger.Account{
		collection.ID: collection,
		receivable.ID: receivable,
	}

	memo := fmt.Sprintf("payment allocation for %s", event.ID.String())
	lines := []ledger.LineInput{
		{AccountID: collection.ID, Debit: applied},
		{AccountID: receivable.ID, Credit: applied},
	}

	entry, err := ledger.BuildEntry(
		tenantID,
		ledger.ReferencePaymentAllocation,
		event.ID.String(),
		memo,
		time.Now(),
		lines,
		accounts,
	)
	if err != nil {
		return fmt.Errorf("failed to build journal entry: %w", err)
	}

	if err := entryRepo.CreateWithLines(ctx, entry); err != nil {
		var dup ledger.ErrDuplicateReference
		if errors.As(err, &dup) {
			p.logger.Info("Journal entry already posted", "payment_id", event.ID.String())
			return nil
		}
		return fmt.Errorf("failed to post journal entry: %w", err)
	}

	return nil
}
