// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the reconciliation
// engine.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/tenant"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/persistence"
)

// TenantRepository implements the tenant.Repository interface for PostgreSQL
type TenantRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTenantRepository creates a new PostgreSQL tenant repository
func NewTenantRepository(logger *slog.Logger, db *persistence.PostgresDB) tenant.Repository {
	return &TenantRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByID retrieves a tenant by its ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	query := `
		SELECT id, name, country_code, active, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	var t tenant.Tenant
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.CountryCode,
		&t.Active,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound{TenantID: id}
		}
		r.logger.Error("Failed to get tenant", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &t, nil
}

// GetGatewayConfigByRoutingKey performs the exact routing-key lookup.
// Routing keys are unique across all tenants so at most one row matches.
func (r *TenantRepository) GetGatewayConfigByRoutingKey(ctx context.Context, routingKey string) (*tenant.GatewayConfig, error) {
	query := `
		SELECT id, tenant_id, provider, routing_key, collection_account_code, receivable_account_code, active, created_at
		FROM gateway_configs
		WHERE routing_key = $1 AND active = TRUE
	`

	var cfg tenant.GatewayConfig
	err := r.querier.QueryRow(ctx, query, routingKey).Scan(
		&cfg.ID,
		&cfg.TenantID,
		&cfg.Provider,
		&cfg.RoutingKey,
		&cfg.CollectionAccountCode,
		&cfg.ReceivableAccountCode,
		&cfg.Active,
		&cfg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrGatewayConfigNotFound{RoutingKey: routingKey}
		}
		r.logger.Error("Failed to get gateway config by routing key", "routing_key", routingKey, "error", err)
		return nil, fmt.Errorf("failed to get gateway config by routing key: %w", err)
	}

	return &cfg, nil
}

// GetActiveGatewayConfig returns the tenant's active gateway configuration
func (r *TenantRepository) GetActiveGatewayConfig(ctx context.Context, tenantID uuid.UUID) (*tenant.GatewayConfig, error) {
	query := `
		SELECT id, tenant_id, provider, routing_key, collection_account_code, receivable_account_code, active, created_at
		FROM gateway_configs
		WHERE tenant_id = $1 AND active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`

	var cfg tenant.GatewayConfig
	err := r.querier.QueryRow(ctx, query, tenantID).Scan(
		&cfg.ID,
		&cfg.TenantID,
		&cfg.Provider,
		&cfg.RoutingKey,
		&cfg.CollectionAccountCode,
		&cfg.ReceivableAccountCode,
		&cfg.Active,
		&cfg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrGatewayConfigNotFound{TenantID: tenantID}
		}
		r.logger.Error("Failed to get active gateway config", "tenant_id", tenantID.String(), "error", err)
		return nil, fmt.Errorf("failed to get active gateway config: %w", err)
	}

	return &cfg, nil
}
