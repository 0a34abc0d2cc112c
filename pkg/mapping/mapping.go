package mapping

import (
	"strings"

	"github.com/chris/gateway-simulator/pkg/models"
)

// PaymentRecord is the API representation of a transaction returned by the
// query endpoint. Amounts carry six fractional digits; timestamps are Unix
// epoch seconds, with completed_time null until the payment is terminal.
type PaymentRecord struct {
	Type              string `json:"type"`
	MerchantReference string `json:"merchant_reference"`
	RequestReference  string `json:"request_reference"`
	Status            string `json:"status"`
	Currency          string `json:"currency"`
	Amount            string `json:"amount"`
	CreatedTime       int64  `json:"created_time"`
	CompletedTime     *int64 `json:"completed_time"`
}

// ToPaymentRecord converts a domain Transaction to its query representation.
func ToPaymentRecord(tx *models.Transaction) *PaymentRecord {
	record := &PaymentRecord{
		Type:              "Sale",
		MerchantReference: tx.MerchantReference,
		RequestReference:  tx.RequestReference,
		Status:            tx.Status.WireCode(),
		Currency:          tx.Currency,
		Amount:            FormatAmount(tx.Amount, 6),
		CreatedTime:       tx.CreatedAt.Unix(),
	}
	if tx.CompletedAt != nil {
		completed := tx.CompletedAt.Unix()
		record.CompletedTime = &completed
	}
	return record
}

// FormatAmount renders a decimal amount string with exactly the given number
// of fractional digits, padding with zeros or truncating as needed. The
// amount never round-trips through a float, so the stored input stays
// exact.
func FormatAmount(amount string, digits int) string {
	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > digits {
		frac = frac[:digits]
	}
	if digits == 0 {
		return whole
	}
	return whole + "." + frac + strings.Repeat("0", digits-len(frac))
}
