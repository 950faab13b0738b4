package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/ledger"
)

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	accountRepo ledger.AccountRepository
	entryRepo   ledger.EntryRepository
	logger      *slog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(logger *slog.Logger, accountRepo ledger.AccountRepository, entryRepo ledger.EntryRepository) LedgerService {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		logger:      logger,
	}
}

// PostManualEntry resolves account codes, validates the proposed entry and
// posts it atomically. Any validation failure writes nothing.
func (s *LedgerServiceImpl) PostManualEntry(ctx context.Context, in *ManualEntryInput) (*ledger.Entry, error) {
	return s.postEntry(ctx, ledger.ReferenceManualEntry, in)
}

// ImportEntries posts each entry of a bulk import independently, pairing
// every input with its outcome.
func (s *LedgerServiceImpl) ImportEntries(ctx context.Context, entries []*ManualEntryInput) ([]*BulkEntryResult, error) {
	results := make([]*BulkEntryResult, 0, len(entries))
	for i, in := range entries {
		entry, err := s.postEntry(ctx, ledger.ReferenceBulkImport, in)
		results = append(results, &BulkEntryResult{Row: i, Entry: entry, Err: err})
	}

	s.logger.Info("Bulk journal import finished", "entries", len(entries))
	return results, nil
}

func (s *LedgerServiceImpl) postEntry(ctx context.Context, referenceType string, in *ManualEntryInput) (*ledger.Entry, error) {
	accounts := make(map[uuid.UUID]*ledger.Account, len(in.Lines))
	lines := make([]ledger.LineInput, 0, len(in.Lines))

	for _, l := range in.Lines {
		acc, err := s.accountRepo.GetByCode(ctx, in.TenantID, l.AccountCode)
		if err != nil {
			return nil, err
		}
		accounts[acc.ID] = acc
		lines = append(lines, ledger.LineInput{
			AccountID: acc.ID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			Memo:      l.Memo,
		})
	}

	entryDate := in.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	referenceID := in.ReferenceID
	if referenceID == "" {
		referenceID = uuid.New().String()
	}

	entry, err := ledger.BuildEntry(
		in.TenantID,
		referenceType,
		referenceID,
		in.Memo,
		entryDate,
		lines,
		accounts,
	)
	if err != nil {
		return nil, err
	}

	if err := s.entryRepo.CreateWithLines(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to post journal entry: %w", err)
	}

	s.logger.Info("Journal entry posted",
		"entry_id", entry.ID.String(),
		"tenant_id", in.TenantID.String(),
		"reference_type", referenceType,
		"lines", len(entry.Lines),
	)

	return entry, nil
}

// GetEntryByID retrieves a journal entry with its lines
func (s *LedgerServiceImpl) GetEntryByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	return s.entryRepo.GetByID(ctx, id)
}

// GetEntryByReference retrieves the entry posted for a source entity
func (s *LedgerServiceImpl) GetEntryByReference(ctx context.Context, referenceType, referenceID string) (*ledger.Entry, error) {
	return s.entryRepo.GetByReference(ctx, referenceType, referenceID)
}

// ListEntries lists a tenant's entries of one reference type
func (s *LedgerServiceImpl) ListEntries(ctx context.Context, tenantID uuid.UUID, referenceType string, page, perPage int) ([]*ledger.Entry, error) {
	offset := (page - 1) * perPage
	return s.entryRepo.ListByReferenceType(ctx, tenantID, referenceType, perPage, offset)
}
