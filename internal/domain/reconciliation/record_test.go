package reconciliation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestRecord_AmountSurvivesBSONRoundTrip(t *testing.T) {
	amount := decimal.NewFromFloat(120.50)
	rec := NewAllocation(uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), amount)

	data, err := bson.Marshal(rec)
	require.NoError(t, err)

	var got Record
	require.NoError(t, bson.Unmarshal(data, &got))

	assert.True(t, got.AmountDecimal().Equal(amount),
		"stored %s, read back %s", amount, got.AmountDecimal())
	assert.Equal(t, rec.PaymentID, got.PaymentID)
	assert.Equal(t, rec.InstallmentID, got.InstallmentID)
	assert.Equal(t, KindAllocation, got.Kind)
}

func TestRecordSet_ConservesPaymentAmount(t *testing.T) {
	paymentID := uuid.New()
	tenantID := uuid.New()
	customerID := uuid.New()

	applied := []decimal.Decimal{
		decimal.NewFromInt(100),
		decimal.NewFromInt(50),
		decimal.NewFromFloat(70.25),
	}

	total := decimal.Zero
	for _, a := range applied {
		rec := NewAllocation(paymentID, tenantID, customerID, uuid.New(), uuid.New(), a)
		total = total.Add(rec.AmountDecimal())
	}

	assert.True(t, total.Equal(decimal.NewFromFloat(220.25)),
		"record amounts sum to %s", total)
}

func TestNewMismatch_KeepsFullAmount(t *testing.T) {
	unapplied := decimal.NewFromFloat(0.01)
	rec := NewMismatch(uuid.New(), uuid.New(), uuid.New(), unapplied)

	assert.Equal(t, KindMismatch, rec.Kind)
	assert.Equal(t, int64(1), rec.Amount)
	assert.True(t, rec.AmountDecimal().Equal(unapplied))
	assert.Equal(t, uuid.Nil, rec.LoanID)
}
