package components

import (
	"context"
	"log/slog"

	"github.com/jasiri-lending/jasiri-sub007/internal/domain/customer"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/tenant"
	"github.com/jasiri-lending/jasiri-sub007/internal/payment_processor/service"
	"github.com/jasiri-lending/jasiri-sub007/internal/phone"
)

// PaymentResolverImpl implements the PaymentResolver interface
type PaymentResolverImpl struct {
	tenantRepo   tenant.Repository
	customerRepo customer.Repository
	phones       *phone.Normalizer
	logger       *slog.Logger
}

// NewPaymentResolver creates a new payment resolver
func NewPaymentResolver(
	tenantRepo tenant.Repository,
	customerRepo customer.Repository,
	phones *phone.Normalizer,
	logger *slog.Logger,
) service.PaymentResolver {
	return &PaymentResolverImpl{
		tenantRepo:   tenantRepo,
		customerRepo: customerRepo,
		phones:       phones,
		logger:       logger,
	}
}

// Resolve matches the event to a tenant and customer. An operator rematch
// hint takes precedence over every other signal; otherwise the routing key
// resolves the tenant and the payer phone resolves the customer. Both
// identities must agree on the tenant or the match is rejected.
func (r *PaymentResolverImpl) Resolve(ctx context.Context, event *payment.Event) (*service.Resolution, error) {
	if event.RematchCustomerID != nil {
		return r.resolveByHint(ctx, event)
	}

	var cfg *tenant.GatewayConfig
	if event.RoutingKey != "" {
		found, err := r.tenantRepo.GetGatewayConfigByRoutingKey(ctx, event.RoutingKey)
		if err != nil {
			return nil, err
		}
		cfg = found
	}

	cust, err := r.lookupByPhone(ctx, event.PayerPhone)
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		// Statement rows carry no routing key; the customer's tenant
		// supplies the gateway config instead.
		cfg, err = r.tenantRepo.GetActiveGatewayConfig(ctx, cust.TenantID)
		if err != nil {
			return nil, err
		}
	}

	if cust.TenantID != cfg.TenantID {
		r.logger.Warn("Phone match belongs to a different tenant than the routing key",
			"routing_key", event.RoutingKey,
			"customer_id", cust.ID.String(),
		)
		return nil, customer.ErrCustomerNotFound{Phone: event.PayerPhone}
	}

	return &service.Resolution{Config: cfg, Customer: cust}, nil
}

func (r *PaymentResolverImpl) resolveByHint(ctx context.Context, event *payment.Event) (*service.Resolution, error) {
	cust, err := r.customerRepo.GetByID(ctx, *event.RematchCustomerID)
	if err != nil {
		return nil, err
	}
	cfg, err := r.tenantRepo.GetActiveGatewayConfig(ctx, cust.TenantID)
	if err != nil {
		return nil, err
	}
	return &service.Resolution{Config: cfg, Customer: cust}, nil
}

func (r *PaymentResolverImpl) lookupByPhone(ctx context.Context, raw string) (*customer.Customer, error) {
	variants, err := r.phones.Variants(raw)
	if err != nil {
		r.logger.Warn("Payer phone could not be parsed", "error", err)
		return nil, customer.ErrCustomerNotFound{Phone: raw}
	}

	return r.customerRepo.GetByPhoneVariants(ctx, variants)
}
