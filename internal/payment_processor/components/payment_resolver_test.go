package components

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jasiri-lending/jasiri-sub007/internal/domain/customer"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/tenant"
	"github.com/jasiri-lending/jasiri-sub007/internal/phone"
)

// MockTenantRepo for testing
type MockTenantRepo struct {
	mock.Mock
}

func (m *MockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepo) GetGatewayConfigByRoutingKey(ctx context.Context, routingKey string) (*tenant.GatewayConfig, error) {
	args := m.Called(ctx, routingKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.GatewayConfig), args.Error(1)
}

func (m *MockTenantRepo) GetActiveGatewayConfig(ctx context.Context, tenantID uuid.UUID) (*tenant.GatewayConfig, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.GatewayConfig), args.Error(1)
}

// MockCustomerRepo for testing
type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) GetByPhoneVariants(ctx context.Context, variants []string) (*customer.Customer, error) {
	args := m.Called(ctx, variants)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func testEvent(routingKey, payerPhone string) *payment.Event {
	return &payment.Event{
		ID:         uuid.New(),
		Amount:     decimal.NewFromInt(100),
		PayerPhone: payerPhone,
		RoutingKey: routingKey,
		Source:     payment.SourceWebhook,
		Status:     payment.EventStatusPending,
		ReceivedAt: time.Now(),
	}
}

func TestPaymentResolver_Resolve_RoutingKeyAndPhone(t *testing.T) {
	ctx := context.Background()
	tenantRepo := &MockTenantRepo{}
	customerRepo := &MockCustomerRepo{}

	tenantID := uuid.New()
	cfg := &tenant.GatewayConfig{ID: uuid.New(), TenantID: tenantID, RoutingKey: "600100", Active: true}
	cust := &customer.Customer{ID: uuid.New(), TenantID: tenantID, Phone: "254711000000"}

	tenantRepo.On("GetGatewayConfigByRoutingKey", ctx, "600100").Return(cfg, nil)
	customerRepo.On("GetByPhoneVariants", ctx, mock.MatchedBy(func(variants []string) bool {
		for _, v := range variants {
			if v == "254711000000" {
				return true
			}
		}
		return false
	})).Return(cust, nil)

	resolver := NewPaymentResolver(tenantRepo, customerRepo, phone.NewNormalizer("KE"), slog.Default())

	res, err := resolver.Resolve(ctx, testEvent("600100", "0711000000"))
	require.NoError(t, err)

	assert.Equal(t, cfg, res.Config)
	assert.Equal(t, cust, res.Customer)
	tenantRepo.AssertExpectations(t)
	customerRepo.AssertExpectations(t)
}

func TestPaymentResolver_Resolve_StatementRowWithoutRoutingKey(t *testing.T) {
	ctx := context.Background()
	tenantRepo := &MockTenantRepo{}
	customerRepo := &MockCustomerRepo{}

	tenantID := uuid.New()
	cfg := &tenant.GatewayConfig{ID: uuid.New(), TenantID: tenantID, Active: true}
	cust := &customer.Customer{ID: uuid.New(), TenantID: tenantID, Phone: "254711000000"}

	customerRepo.On("GetByPhoneVariants", ctx, mock.Anything).Return(cust, nil)
	tenantRepo.On("GetActiveGatewayConfig", ctx, tenantID).Return(cfg, nil)

	resolver := NewPaymentResolver(tenantRepo, customerRepo, phone.NewNormalizer("KE"), slog.Default())

	event := testEvent("", "254711000000")
	event.Source = payment.SourceStatement

	res, err := resolver.Resolve(ctx, event)
	require.NoError(t, err)

	assert.Equal(t, cfg, res.Config)
	assert.Equal(t, cust, res.Customer)
	tenantRepo.AssertNotCalled(t, "GetGatewayConfigByRoutingKey", mock.Anything, mock.Anything)
}

func TestPaymentResolver_Resolve_RematchHintWins(t *testing.T) {
	ctx := context.Background()
	tenantRepo := &MockTenantRepo{}
	customerRepo := &MockCustomerRepo{}

	tenantID := uuid.New()
	hintID := uuid.New()
	cfg := &tenant.GatewayConfig{ID: uuid.New(), TenantID: tenantID, Active: true}
	cust := &customer.Customer{ID: hintID, TenantID: tenantID, Phone: "254722000000"}

	customerRepo.On("GetByID", ctx, hintID).Return(cust, nil)
	tenantRepo.On("GetActiveGatewayConfig", ctx, tenantID).Return(cfg, nil)

	resolver := NewPaymentResolver(tenantRepo, customerRepo, phone.NewNormalizer("KE"), slog.Default())

	// The hint overrides both the routing key and the payer phone.
	event := testEvent("600100", "0711000000")
	event.RematchCustomerID = &hintID

	res, err := resolver.Resolve(ctx, event)
	require.NoError(t, err)

	assert.Equal(t, hintID, res.Customer.ID)
	customerRepo.AssertNotCalled(t, "GetByPhoneVariants", mock.Anything, mock.Anything)
	tenantRepo.AssertNotCalled(t, "GetGatewayConfigByRoutingKey", mock.Anything, mock.Anything)
}

func TestPaymentResolver_Resolve_TenantMismatchRejected(t *testing.T) {
	ctx := context.Background()
	tenantRepo := &MockTenantRepo{}
	customerRepo := &MockCustomerRepo{}

	cfg := &tenant.GatewayConfig{ID: uuid.New(), TenantID: uuid.New(), RoutingKey: "600100", Active: true}
	cust := &customer.Customer{ID: uuid.New(), TenantID: uuid.New(), Phone: "254711000000"}

	tenantRepo.On("GetGatewayConfigByRoutingKey", ctx, "600100").Return(cfg, nil)
	customerRepo.On("GetByPhoneVariants", ctx, mock.Anything).Return(cust, nil)

	resolver := NewPaymentResolver(tenantRepo, customerRepo, phone.NewNormalizer("KE"), slog.Default())

	res, err := resolver.Resolve(ctx, testEvent("600100", "0711000000"))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound{})
}

func TestPaymentResolver_Resolve_UnknownRoutingKey(t *testing.T) {
	ctx := context.Background()
	tenantRepo := &MockTenantRepo{}
	customerRepo := &MockCustomerRepo{}

	tenantRepo.On("GetGatewayConfigByRoutingKey", ctx, "999999").
		Return(nil, tenant.ErrGatewayConfigNotFound{RoutingKey: "999999"})

	resolver := NewPaymentResolver(tenantRepo, customerRepo, phone.NewNormalizer("KE"), slog.Default())

	res, err := resolver.Resolve(ctx, testEvent("999999", "0711000000"))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, tenant.ErrGatewayConfigNotFound{})
	customerRepo.AssertNotCalled(t, "GetByPhoneVariants", mock.Anything, mock.Anything)
}

func TestPaymentResolver_Resolve_UnparseablePhone(t *testing.T) {
	ctx := context.Background()
	tenantRepo := &MockTenantRepo{}
	customerRepo := &MockCustomerRepo{}

	cfg := &tenant.GatewayConfig{ID: uuid.New(), TenantID: uuid.New(), RoutingKey: "600100", Active: true}
	tenantRepo.On("GetGatewayConfigByRoutingKey", ctx, "600100").Return(cfg, nil)

	resolver := NewPaymentResolver(tenantRepo, customerRepo, phone.NewNormalizer("KE"), slog.Default())

	res, err := resolver.Resolve(ctx, testEvent("600100", "garbage"))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound{})
	customerRepo.AssertNotCalled(t, "GetByPhoneVariants", mock.Anything, mock.Anything)
}

func TestPaymentResolver_Resolve_NoCustomerForPhone(t *testing.T) {
	ctx := context.Background()
	tenantRepo := &MockTenantRepo{}
	customerRepo := &MockCustomerRepo{}

	cfg := &tenant.GatewayConfig{ID: uuid.New(), TenantID: uuid.New(), RoutingKey: "600100", Active: true}
	tenantRepo.On("GetGatewayConfigByRoutingKey", ctx, "600100").Return(cfg, nil)
	customerRepo.On("GetByPhoneVariants", ctx, mock.Anything).
		Return(nil, customer.ErrCustomerNotFound{Phone: "254711000000"})

	resolver := NewPaymentResolver(tenantRepo, customerRepo, phone.NewNormalizer("KE"), slog.Default())

	res, err := resolver.Resolve(ctx, testEvent("600100", "0711000000"))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound{})
}
