package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines tenant and gateway-config persistence operations
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// GetGatewayConfigByRoutingKey performs the exact routing-key lookup.
	// Routing keys are enforced unique, so at most one config matches.
	// Returns ErrGatewayConfigNotFound when no active config owns the key.
	GetGatewayConfigByRoutingKey(ctx context.Context, routingKey string) (*GatewayConfig, error)

	// GetActiveGatewayConfig returns the tenant's active gateway config.
	GetActiveGatewayConfig(ctx context.Context, tenantID uuid.UUID) (*GatewayConfig, error)
}

// ErrTenantNotFound indicates a missing tenant
type ErrTenantNotFound struct {
	TenantID uuid.UUID
}

func (e ErrTenantNotFound) Error() string {
	return "tenant not found: " + e.TenantID.String()
}

// ErrGatewayConfigNotFound indicates no gateway config matched the lookup
type ErrGatewayConfigNotFound struct {
	RoutingKey string
	TenantID   uuid.UUID
}

func (e ErrGatewayConfigNotFound) Error() string {
	if e.RoutingKey != "" {
		return "gateway config not found for routing key: " + e.RoutingKey
	}
	return "active gateway config not found for tenant: " + e.TenantID.String()
}

// Is matches any ErrGatewayConfigNotFound when the target carries no key.
func (e ErrGatewayConfigNotFound) Is(target error) bool {
	t, ok := target.(ErrGatewayConfigNotFound)
	if !ok {
		return false
	}
	if t.RoutingKey == "" && t.TenantID == uuid.Nil {
		return true
	}
	return e == t
}
