package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jasiri-lending/jasiri-sub007/internal/config"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/customer"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/payment"
	"github.com/jasiri-lending/jasiri-sub007/internal/domain/shared"
)

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

type suspenseFixture struct {
	events    *MockEventRepo
	jobs      *MockJobRepo
	customers *MockCustomerRepo
	producer  *MockPublisher
	svc       SuspenseService
}

func newSuspenseFixture() *suspenseFixture {
	f := &suspenseFixture{
		events:    new(MockEventRepo),
		jobs:      new(MockJobRepo),
		customers: new(MockCustomerRepo),
		producer:  new(MockPublisher),
	}
	f.svc = NewSuspenseService(
		newTestLogger(),
		&fakeTxRunner{},
		f.events,
		f.jobs,
		f.customers,
		f.producer,
		&config.QueueConfig{MaxAttempts: 5},
	)
	return f
}

func TestListSuspense_PaginatesByOffset(t *testing.T) {
	ctx := context.Background()
	f := newSuspenseFixture()

	events := []*payment.Event{
		{ID: uuid.New(), Status: payment.EventStatusSuspense},
		{ID: uuid.New(), Status: payment.EventStatusSuspense},
	}
	f.events.On("ListSuspense", ctx, 10, 20).Return(events, int64(22), nil).Once()

	got, total, err := f.svc.ListSuspense(ctx, 3, 10)

	require.NoError(t, err)
	assert.Equal(t, events, got)
	assert.Equal(t, int64(22), total)
	f.events.AssertExpectations(t)
}

func TestRematch_RequeuesAndEnqueuesJob(t *testing.T) {
	ctx := context.Background()
	f := newSuspenseFixture()

	eventID := uuid.New()
	customerID := uuid.New()

	f.customers.On("GetByID", ctx, customerID).
		Return(&customer.Customer{ID: customerID, Phone: "254711000000"}, nil).Once()
	f.events.On("Requeue", ctx, eventID, customerID).Return(nil).Once()

	var createdJob *payment.Job
	f.jobs.On("Create", ctx, mock.MatchedBy(func(j *payment.Job) bool {
		return j.PaymentEventID == eventID && j.MaxAttempts == 5 && j.Status == shared.JobStatusQueued
	})).Run(func(args mock.Arguments) {
		createdJob = args.Get(1).(*payment.Job)
	}).Return(nil).Once()

	f.producer.On("Publish", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(msg shared.PaymentJobMessage) bool {
		return msg.PaymentEventID == eventID && msg.CorrelationID == "corr-9"
	})).Return(nil).Once()

	requeued := &payment.Event{ID: eventID, Status: payment.EventStatusPending, RematchCustomerID: &customerID}
	f.events.On("GetByID", ctx, eventID).Return(requeued, nil).Once()

	got, err := f.svc.Rematch(ctx, eventID, customerID, "corr-9")

	require.NoError(t, err)
	assert.Equal(t, requeued, got)
	assert.Equal(t, createdJob.ID.String(), f.producer.Calls[0].Arguments.String(1))
	f.events.AssertExpectations(t)
	f.jobs.AssertExpectations(t)
	f.customers.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestRematch_UnknownCustomer(t *testing.T) {
	ctx := context.Background()
	f := newSuspenseFixture()

	eventID := uuid.New()
	customerID := uuid.New()

	f.customers.On("GetByID", ctx, customerID).
		Return(nil, customer.ErrCustomerNotFound{CustomerID: customerID}).Once()

	got, err := f.svc.Rematch(ctx, eventID, customerID, "corr-9")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound{})
	f.events.AssertNotCalled(t, "Requeue", mock.Anything, mock.Anything, mock.Anything)
	f.jobs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRematch_EventNotInSuspense(t *testing.T) {
	ctx := context.Background()
	f := newSuspenseFixture()

	eventID := uuid.New()
	customerID := uuid.New()

	f.customers.On("GetByID", ctx, customerID).
		Return(&customer.Customer{ID: customerID}, nil).Once()
	f.events.On("Requeue", ctx, eventID, customerID).
		Return(payment.ErrEventNotFound{EventID: eventID}).Once()

	got, err := f.svc.Rematch(ctx, eventID, customerID, "corr-9")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, payment.ErrEventNotFound{})
	f.jobs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRematch_PublishFailureStillReturnsEvent(t *testing.T) {
	ctx := context.Background()
	f := newSuspenseFixture()

	eventID := uuid.New()
	customerID := uuid.New()

	f.customers.On("GetByID", ctx, customerID).
		Return(&customer.Customer{ID: customerID}, nil).Once()
	f.events.On("Requeue", ctx, eventID, customerID).Return(nil).Once()
	f.jobs.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.producer.On("Publish", ctx, mock.Anything, mock.Anything).
		Return(errors.New("broker unavailable")).Once()

	requeued := &payment.Event{ID: eventID, Status: payment.EventStatusPending}
	f.events.On("GetByID", ctx, eventID).Return(requeued, nil).Once()

	got, err := f.svc.Rematch(ctx, eventID, customerID, "corr-9")

	// The committed job row is picked up by the sweep.
	require.NoError(t, err)
	assert.Equal(t, requeued, got)
	f.producer.AssertExpectations(t)
}
