package models

import (
	"time"
)

// TransactionStatus defines the possible states of a simulated payment.
type TransactionStatus string

const (
	PENDING    TransactionStatus = "PENDING"
	PROCESSING TransactionStatus = "PROCESSING"
	SUCCESS    TransactionStatus = "SUCCESS"
	FAIL       TransactionStatus = "FAIL"
)

// statusRank orders statuses along the only legal path:
// PENDING -> PROCESSING -> {SUCCESS, FAIL}. A transition is valid only if
// the rank strictly increases.
var statusRank = map[TransactionStatus]int{
	PENDING:    0,
	PROCESSING: 1,
	SUCCESS:    2,
	FAIL:       2,
}

// Terminal reports whether the status admits no further transitions.
func (s TransactionStatus) Terminal() bool {
	return s == SUCCESS || s == FAIL
}

// CanTransitionTo reports whether moving from s to next is a forward step
// of the state machine. Statuses never revert.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// WireCode is the single-character status code used on the wire, in webhook
// payloads and query responses.
func (s TransactionStatus) WireCode() string {
	switch s {
	case PENDING:
		return "0"
	case SUCCESS:
		return "1"
	case FAIL:
		return "2"
	case PROCESSING:
		return "4"
	}
	return ""
}

// Network is the simulated payment channel.
type Network string

const (
	NetworkAlipay     Network = "Alipay"
	NetworkWechatPay  Network = "WechatPay"
	NetworkCUP        Network = "CUP"
	NetworkCreditCard Network = "CreditCard"
	NetworkAtome      Network = "Atome"
)

// Networks lists every supported payment channel.
var Networks = []Network{NetworkAlipay, NetworkWechatPay, NetworkCUP, NetworkCreditCard, NetworkAtome}

// Valid reports whether n is a supported payment channel.
func (n Network) Valid() bool {
	for _, known := range Networks {
		if n == known {
			return true
		}
	}
	return false
}

// Transaction represents the internal domain model for a simulated payment.
// It includes dynamodbav tags for marshalling; the Bolt backend stores the
// JSON form.
type Transaction struct {
	ID                string            `json:"id" dynamodbav:"id"`
	RequestReference  string            `json:"request_reference" dynamodbav:"request_reference"`
	MerchantReference string            `json:"merchant_reference" dynamodbav:"merchant_reference"`
	MerchantKey       string            `json:"merchant_key" dynamodbav:"merchant_key"`
	Amount            string            `json:"amount" dynamodbav:"amount"`
	Currency          string            `json:"currency" dynamodbav:"currency"`
	Network           Network           `json:"network" dynamodbav:"network"`
	Status            TransactionStatus `json:"status" dynamodbav:"status"`
	CallbackAddress   string            `json:"callback_address" dynamodbav:"callback_address"`
	DeliveryAttempts  int               `json:"delivery_attempts" dynamodbav:"delivery_attempts"`
	DeliveryConfirmed bool              `json:"delivery_confirmed" dynamodbav:"delivery_confirmed"`
	LastDeliveryAt    *time.Time        `json:"last_delivery_at,omitempty" dynamodbav:"last_delivery_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at" dynamodbav:"created_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty" dynamodbav:"completed_at,omitempty"`
}

// Merchant is the integrating system's credential record. The secret feeds
// the signing scheme; inactive merchants are rejected before any state
// mutation.
type Merchant struct {
	Key       string    `json:"key" dynamodbav:"key"`
	Secret    string    `json:"secret" dynamodbav:"secret"`
	Name      string    `json:"name" dynamodbav:"name"`
	Active    bool      `json:"active" dynamodbav:"active"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}
