package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/customer"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/persistence"
)

// CustomerRepository implements the customer.Repository interface for PostgreSQL
type CustomerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCustomerRepository creates a new PostgreSQL customer repository
func NewCustomerRepository(logger *slog.Logger, db *persistence.PostgresDB) customer.Repository {
	return &CustomerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByID retrieves a customer by its ID
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	query := `
		SELECT id, tenant_id, full_name, phone, created_at, updated_at
		FROM customers
		WHERE id = $1
	`

	var c customer.Customer
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.TenantID,
		&c.FullName,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrCustomerNotFound{CustomerID: id}
		}
		r.logger.Error("Failed to get customer", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &c, nil
}

// GetByPhoneVariants finds the customer owning any of the given phone
// representations. Oldest record wins when legacy data holds the same
// number under several customers.
func (r *CustomerRepository) GetByPhoneVariants(ctx context.Context, variants []string) (*customer.Customer, error) {
	if len(variants) == 0 {
		return nil, customer.ErrCustomerNotFound{}
	}

	query := `
		SELECT id, tenant_id, full_name, phone, created_at, updated_at
		FROM customers
		WHERE phone = ANY($1)
		ORDER BY created_at ASC
		LIMIT 1
	`

	var c customer.Customer
	err := r.querier.QueryRow(ctx, query, variants).Scan(
		&c.ID,
		&c.TenantID,
		&c.FullName,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrCustomerNotFound{Phone: variants[0]}
		}
		r.logger.Error("Failed to get customer by phone variants", "variants", variants, "error", err)
		return nil, fmt.Errorf("failed to get customer by phone variants: %w", err)
	}

	return &c, nil
}
