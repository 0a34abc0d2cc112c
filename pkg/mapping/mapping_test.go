package mapping

import (
	"testing"
	"time"

	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in     string
		digits int
		want   string
	}{
		{"100.00", 6, "100.000000"},
		{"99.99", 6, "99.990000"},
		{"99.99", 2, "99.99"},
		{"100", 2, "100.00"},
		{"0.123456789", 6, "0.123456"},
		{".50", 2, "0.50"},
		{"7", 0, "7"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, FormatAmount(c.in, c.digits), "FormatAmount(%q, %d)", c.in, c.digits)
	}
}

func TestToPaymentRecord(t *testing.T) {
	created := time.Unix(1700000000, 0)

	tx := &models.Transaction{
		ID:                "tx-1",
		RequestReference:  "REQ123",
		MerchantReference: "order-1",
		Amount:            "100.00",
		Currency:          "SGD",
		Network:           models.NetworkAlipay,
		Status:            models.PENDING,
		CreatedAt:         created,
	}

	record := ToPaymentRecord(tx)

	assert.Equal(t, "Sale", record.Type)
	assert.Equal(t, "order-1", record.MerchantReference)
	assert.Equal(t, "REQ123", record.RequestReference)
	assert.Equal(t, "0", record.Status)
	assert.Equal(t, "100.000000", record.Amount, "query amounts carry six fractional digits")
	assert.Equal(t, "100.00", tx.Amount, "the stored amount stays verbatim")
	assert.Equal(t, int64(1700000000), record.CreatedTime)
	assert.Nil(t, record.CompletedTime, "completed_time is null before the terminal state")

	completed := created.Add(30 * time.Second)
	tx.Status = models.SUCCESS
	tx.CompletedAt = &completed

	record = ToPaymentRecord(tx)
	assert.Equal(t, "1", record.Status)
	require.NotNil(t, record.CompletedTime)
	assert.Equal(t, completed.Unix(), *record.CompletedTime)
}
