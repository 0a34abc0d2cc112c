// Package payments holds the merchant-facing HTTP handlers: payment
// creation and payment queries.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"

	"github.com/chris/gateway-simulator/pkg/mapping"
	"github.com/chris/gateway-simulator/pkg/metrics"
	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/chris/gateway-simulator/pkg/signing"
	"github.com/chris/gateway-simulator/pkg/storage"
)

// amountPattern enforces a positive decimal with exactly two fractional
// digits, matching what real acquirers accept on this channel.
var amountPattern = regexp.MustCompile(`^\d+\.\d{2}$`)

// LifecycleStarter kicks off the timed transitions for a created payment.
type LifecycleStarter interface {
	Begin(ctx context.Context, tx *models.Transaction) error
}

// PaymentsHandler holds the dependencies for payment-related handlers.
type PaymentsHandler struct {
	Store     storage.TransactionStore
	Merchants storage.MerchantStore
	Lifecycle LifecycleStarter
	Metrics   *metrics.GatewayMetrics
}

// NewPaymentsHandler creates a new PaymentsHandler.
func NewPaymentsHandler(store storage.TransactionStore, merchants storage.MerchantStore, lifecycle LifecycleStarter, m *metrics.GatewayMetrics) *PaymentsHandler {
	return &PaymentsHandler{Store: store, Merchants: merchants, Lifecycle: lifecycle, Metrics: m}
}

// paymentAck is the signed acknowledgement returned on creation.
type paymentAck struct {
	MerchantReference string `json:"merchant_reference"`
	RequestReference  string `json:"request_reference"`
	Status            string `json:"status"`
	Sign              string `json:"sign"`
}

// CreatePayment accepts a signed form-encoded payment request, persists the
// transaction in PENDING and starts its lifecycle.
func (h *PaymentsHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	merchantKey := r.PostForm.Get("merchant_key")
	if merchantKey == "" {
		http.Error(w, "merchant_key is required", http.StatusBadRequest)
		return
	}

	merchant, err := h.Merchants.GetMerchant(r.Context(), merchantKey)
	if err != nil {
		if errors.Is(err, storage.ErrMerchantNotFound) {
			http.Error(w, "Unknown merchant", http.StatusUnauthorized)
			return
		}
		log.Printf("ERROR: failed to load merchant %s: %v", merchantKey, err)
		http.Error(w, "Failed to resolve merchant", http.StatusInternalServerError)
		return
	}
	if !merchant.Active {
		http.Error(w, "Merchant is disabled", http.StatusForbidden)
		return
	}

	// Verify the signature over every posted field before touching storage.
	fields := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	if !signing.Verify(fields, merchant.Secret) {
		http.Error(w, "Signature verification failed", http.StatusUnauthorized)
		return
	}

	tx, problem := paymentFromForm(r.PostForm, merchantKey)
	if problem != "" {
		http.Error(w, problem, http.StatusBadRequest)
		return
	}

	createdTx, err := h.Store.CreateTransaction(r.Context(), tx)
	if err != nil {
		log.Printf("ERROR: failed to create transaction in store: %v", err)
		http.Error(w, fmt.Sprintf("Failed to create payment: %v", err), http.StatusInternalServerError)
		return
	}

	// The record exists; a lifecycle that fails to start leaves it stuck in
	// PENDING, which is worth shouting about but not worth failing the
	// request over.
	if err := h.Lifecycle.Begin(r.Context(), createdTx); err != nil {
		log.Printf("CRITICAL: transaction %s created but lifecycle not started: %v", createdTx.ID, err)
	}

	h.Metrics.RecordTransactionCreated(string(createdTx.Network), createdTx.Currency)

	ack := paymentAck{
		MerchantReference: createdTx.MerchantReference,
		RequestReference:  createdTx.RequestReference,
		Status:            createdTx.Status.WireCode(),
	}
	ack.Sign = signing.Sign(map[string]string{
		"merchant_reference": ack.MerchantReference,
		"request_reference":  ack.RequestReference,
		"status":             ack.Status,
	}, merchant.Secret)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ack); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// QueryPayments returns every transaction a merchant created under a
// business reference, oldest first.
func (h *PaymentsHandler) QueryPayments(w http.ResponseWriter, r *http.Request) {
	merchantKey := r.URL.Query().Get("merchant_key")
	merchantReference := r.URL.Query().Get("merchant_reference")
	if merchantKey == "" || merchantReference == "" {
		http.Error(w, "merchant_key and merchant_reference are required", http.StatusBadRequest)
		return
	}

	if _, err := h.Merchants.GetMerchant(r.Context(), merchantKey); err != nil {
		if errors.Is(err, storage.ErrMerchantNotFound) {
			http.Error(w, "Unknown merchant", http.StatusUnauthorized)
			return
		}
		log.Printf("ERROR: failed to load merchant %s: %v", merchantKey, err)
		http.Error(w, "Failed to resolve merchant", http.StatusInternalServerError)
		return
	}

	domainTxs, err := h.Store.ListTransactionsByMerchantReference(r.Context(), merchantKey, merchantReference)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve payments: %v", err), http.StatusInternalServerError)
		return
	}

	records := make([]*mapping.PaymentRecord, len(domainTxs))
	for i, tx := range domainTxs {
		records[i] = mapping.ToPaymentRecord(&tx)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(records); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// paymentFromForm builds the unstamped transaction from the verified form,
// returning a client-facing problem string when a field is invalid.
func paymentFromForm(form url.Values, merchantKey string) (*models.Transaction, string) {
	merchantReference := form.Get("merchant_reference")
	if merchantReference == "" {
		return nil, "merchant_reference is required"
	}

	amount := form.Get("amount")
	if !amountPattern.MatchString(amount) {
		return nil, "amount must be a decimal with exactly two fractional digits"
	}

	currency := form.Get("currency")
	if len(currency) != 3 {
		return nil, "currency must be a three-letter code"
	}

	network := models.Network(form.Get("network"))
	if !network.Valid() {
		return nil, fmt.Sprintf("unknown network %q", form.Get("network"))
	}

	callbackAddress := form.Get("callback_address")
	parsed, err := url.Parse(callbackAddress)
	if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, "callback_address must be an absolute http(s) URL"
	}

	return &models.Transaction{
		MerchantReference: merchantReference,
		MerchantKey:       merchantKey,
		Amount:            amount,
		Currency:          currency,
		Network:           network,
		CallbackAddress:   callbackAddress,
	}, ""
}
