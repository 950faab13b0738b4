package tenant

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName       = errors.New("tenant name cannot be empty")
	ErrEmptyRoutingKey = errors.New("gateway routing key cannot be empty")
)

// Tenant is an isolated lending organization. It owns gateway credentials,
// a chart of accounts, customers and loans; nothing is ever shared between
// tenants except the global routing-key namespace.
type Tenant struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CountryCode string    `json:"country_code"` // ISO 3166-1 alpha-2, drives phone parsing
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GatewayConfig holds one tenant's inbound payment channel. RoutingKey is a
// provider-side identifier (shortcode, paybill or till number) and is unique
// across ALL tenants, which is what makes routing-key resolution exact.
type GatewayConfig struct {
	ID                    uuid.UUID `json:"id"`
	TenantID              uuid.UUID `json:"tenant_id"`
	Provider              string    `json:"provider"`
	RoutingKey            string    `json:"routing_key"`
	CollectionAccountCode string    `json:"collection_account_code"` // clearing account in the tenant's chart
	ReceivableAccountCode string    `json:"receivable_account_code"` // loan receivable account
	Active                bool      `json:"active"`
	CreatedAt             time.Time `json:"created_at"`
}

func NewTenant(name, countryCode string) (*Tenant, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	now := time.Now()
	return &Tenant{
		ID:          uuid.New(),
		Name:        name,
		CountryCode: countryCode,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
