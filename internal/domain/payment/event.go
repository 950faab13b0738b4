// Package payment models inbound payment notifications and the durable job
// queue that decouples their receipt from processing.
package payment

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNonPositiveAmount = errors.New("payment amount must be positive")

// EventStatus defines payment event processing states
type EventStatus string

const (
	EventStatusPending  EventStatus = "PENDING"
	EventStatusApplied  EventStatus = "APPLIED"
	EventStatusFailed   EventStatus = "FAILED"
	EventStatusSuspense EventStatus = "SUSPENSE"
)

// EventSource identifies how the notification reached the engine
type EventSource string

const (
	SourceWebhook   EventSource = "WEBHOOK"
	SourceStatement EventSource = "STATEMENT"
	SourceManual    EventSource = "MANUAL"
)

// Suspense and failure reasons. The two suspense reasons are deliberately
// distinct: NO_TENANT_OR_CUSTOMER_MATCH means routing failed entirely,
// NO_ELIGIBLE_LOAN means the customer was identified but owns nothing the
// payment can settle. NO_ELIGIBLE_INSTALLMENTS marks the mismatch case where
// loans exist but carry no open schedule.
const (
	ReasonNoTenantOrCustomerMatch = "NO_TENANT_OR_CUSTOMER_MATCH"
	ReasonNoEligibleLoan          = "NO_ELIGIBLE_LOAN"
	ReasonNoEligibleInstallments  = "NO_ELIGIBLE_INSTALLMENTS"
	ReasonProcessingError         = "PROCESSING_ERROR"
)

// Event is one inbound, possibly duplicate, payment notification. It is
// recorded before any business logic runs and mutated only by the pipeline.
// ExternalTransactionID is the at-most-once application key; notifications
// without one (some bank-statement rows) are deduplicated by source refs
// upstream and always admitted here.
type Event struct {
	ID                    uuid.UUID       `json:"id"`
	ExternalTransactionID *string         `json:"external_transaction_id,omitempty"`
	TenantID              *uuid.UUID      `json:"tenant_id,omitempty"`
	CustomerID            *uuid.UUID      `json:"customer_id,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	PayerPhone            string          `json:"payer_phone"`
	PayerName             string          `json:"payer_name,omitempty"`
	RoutingKey            string          `json:"routing_key,omitempty"`
	Source                EventSource     `json:"source"`
	RawPayload            json.RawMessage `json:"raw_payload,omitempty"`
	Status                EventStatus     `json:"status"`
	Reason                string          `json:"reason,omitempty"`
	// UnappliedAmount is the overpayment remainder left after the waterfall
	// exhausted every installment. Zero for fully applied payments.
	UnappliedAmount decimal.Decimal `json:"unapplied_amount"`
	// RematchCustomerID is an operator-supplied hint set during manual
	// suspense resolution; the resolver honors it before any other matching.
	RematchCustomerID *uuid.UUID `json:"rematch_customer_id,omitempty"`
	ReceivedAt        time.Time  `json:"received_at"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewEvent records a raw notification in pending state.
func NewEvent(externalID *string, amount decimal.Decimal, payerPhone, routingKey string, source EventSource, rawPayload json.RawMessage, receivedAt time.Time) (*Event, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrNonPositiveAmount
	}
	now := time.Now()
	if receivedAt.IsZero() {
		receivedAt = now
	}
	return &Event{
		ID:                    uuid.New(),
		ExternalTransactionID: externalID,
		Amount:                amount,
		PayerPhone:            payerPhone,
		RoutingKey:            routingKey,
		Source:                source,
		RawPayload:            rawPayload,
		Status:                EventStatusPending,
		UnappliedAmount:       decimal.Zero,
		ReceivedAt:            receivedAt,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// Terminal reports whether the event reached a state the pipeline must not
// process again.
func (e *Event) Terminal() bool {
	return e.Status == EventStatusApplied || e.Status == EventStatusFailed || e.Status == EventStatusSuspense
}
