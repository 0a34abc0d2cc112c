package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/chris/gateway-simulator/pkg/mapping"
	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/chris/gateway-simulator/pkg/signing"
	"github.com/chris/gateway-simulator/pkg/storage"
	storage_mocks "github.com/chris/gateway-simulator/pkg/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordingLifecycle captures Begin calls without arming timers.
type recordingLifecycle struct {
	started []string
}

func (r *recordingLifecycle) Begin(ctx context.Context, tx *models.Transaction) error {
	r.started = append(r.started, tx.ID)
	return nil
}

func activeMerchant() *models.Merchant {
	return &models.Merchant{
		Key:    "merch-1",
		Secret: "s3cret",
		Name:   "Test Merchant",
		Active: true,
	}
}

// signedForm builds a payment creation form signed with the given secret.
func signedForm(secret string, overrides map[string]string) url.Values {
	fields := map[string]string{
		"merchant_key":       "merch-1",
		"merchant_reference": "order-1",
		"amount":             "100.00",
		"currency":           "SGD",
		"network":            "Alipay",
		"callback_address":   "http://example.test/callback",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	fields[signing.SignatureField] = signing.Sign(fields, secret)

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	return form
}

func postForm(handler *PaymentsHandler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.CreatePayment(rr, req)
	return rr
}

func TestCreatePayment_Success(t *testing.T) {
	mockStore := new(storage_mocks.TransactionStore)
	mockMerchants := new(storage_mocks.MerchantStore)
	lifecycle := &recordingLifecycle{}
	handler := NewPaymentsHandler(mockStore, mockMerchants, lifecycle, nil)

	createdTx := &models.Transaction{
		ID:                "tx-1",
		RequestReference:  "REQ1234567890ABC",
		MerchantReference: "order-1",
		MerchantKey:       "merch-1",
		Amount:            "100.00",
		Currency:          "SGD",
		Network:           models.NetworkAlipay,
		Status:            models.PENDING,
	}

	mockMerchants.On("GetMerchant", mock.Anything, "merch-1").Return(activeMerchant(), nil)
	mockStore.On("CreateTransaction", mock.Anything, mock.AnythingOfType("*models.Transaction")).Return(createdTx, nil)

	rr := postForm(handler, signedForm("s3cret", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []string{"tx-1"}, lifecycle.started)

	var ack struct {
		MerchantReference string `json:"merchant_reference"`
		RequestReference  string `json:"request_reference"`
		Status            string `json:"status"`
		Sign              string `json:"sign"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ack))
	assert.Equal(t, "order-1", ack.MerchantReference)
	assert.Equal(t, "REQ1234567890ABC", ack.RequestReference)
	assert.Equal(t, "0", ack.Status, "a fresh payment acknowledges as PENDING")

	assert.True(t, signing.Verify(map[string]string{
		"merchant_reference": ack.MerchantReference,
		"request_reference":  ack.RequestReference,
		"status":             ack.Status,
		"sign":               ack.Sign,
	}, "s3cret"), "the acknowledgement is signed with the merchant secret")

	mockStore.AssertExpectations(t)
	mockMerchants.AssertExpectations(t)
}

func TestCreatePayment_BadSignature(t *testing.T) {
	mockStore := new(storage_mocks.TransactionStore)
	mockMerchants := new(storage_mocks.MerchantStore)
	lifecycle := &recordingLifecycle{}
	handler := NewPaymentsHandler(mockStore, mockMerchants, lifecycle, nil)

	mockMerchants.On("GetMerchant", mock.Anything, "merch-1").Return(activeMerchant(), nil)

	rr := postForm(handler, signedForm("wrong-secret", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, lifecycle.started)
	mockStore.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestCreatePayment_UnknownMerchant(t *testing.T) {
	mockStore := new(storage_mocks.TransactionStore)
	mockMerchants := new(storage_mocks.MerchantStore)
	handler := NewPaymentsHandler(mockStore, mockMerchants, &recordingLifecycle{}, nil)

	mockMerchants.On("GetMerchant", mock.Anything, "merch-1").Return(nil, storage.ErrMerchantNotFound)

	rr := postForm(handler, signedForm("s3cret", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreatePayment_InactiveMerchant(t *testing.T) {
	mockStore := new(storage_mocks.TransactionStore)
	mockMerchants := new(storage_mocks.MerchantStore)
	handler := NewPaymentsHandler(mockStore, mockMerchants, &recordingLifecycle{}, nil)

	merchant := activeMerchant()
	merchant.Active = false
	mockMerchants.On("GetMerchant", mock.Anything, "merch-1").Return(merchant, nil)

	rr := postForm(handler, signedForm("s3cret", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreatePayment_Validation(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]string
	}{
		{"amount with one decimal", map[string]string{"amount": "100.0"}},
		{"amount without decimals", map[string]string{"amount": "100"}},
		{"negative amount", map[string]string{"amount": "-5.00"}},
		{"unknown network", map[string]string{"network": "Paynow"}},
		{"relative callback", map[string]string{"callback_address": "/callback"}},
		{"non-http callback", map[string]string{"callback_address": "ftp://example.test/cb"}},
		{"missing merchant reference", map[string]string{"merchant_reference": ""}},
		{"bad currency", map[string]string{"currency": "SGDX"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mockStore := new(storage_mocks.TransactionStore)
			mockMerchants := new(storage_mocks.MerchantStore)
			handler := NewPaymentsHandler(mockStore, mockMerchants, &recordingLifecycle{}, nil)

			mockMerchants.On("GetMerchant", mock.Anything, "merch-1").Return(activeMerchant(), nil)

			rr := postForm(handler, signedForm("s3cret", c.overrides))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			mockStore.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
		})
	}
}

func TestQueryPayments(t *testing.T) {
	mockStore := new(storage_mocks.TransactionStore)
	mockMerchants := new(storage_mocks.MerchantStore)
	handler := NewPaymentsHandler(mockStore, mockMerchants, &recordingLifecycle{}, nil)

	created := time.Unix(1700000000, 0)
	completed := created.Add(30 * time.Second)
	txs := []models.Transaction{
		{
			RequestReference:  "REQ1",
			MerchantReference: "order-1",
			Amount:            "100.00",
			Currency:          "SGD",
			Status:            models.SUCCESS,
			CreatedAt:         created,
			CompletedAt:       &completed,
		},
		{
			RequestReference:  "REQ2",
			MerchantReference: "order-1",
			Amount:            "100.00",
			Currency:          "SGD",
			Status:            models.PENDING,
			CreatedAt:         created.Add(time.Minute),
		},
	}

	mockMerchants.On("GetMerchant", mock.Anything, "merch-1").Return(activeMerchant(), nil)
	mockStore.On("ListTransactionsByMerchantReference", mock.Anything, "merch-1", "order-1").Return(txs, nil)

	req := httptest.NewRequest(http.MethodGet, "/payments?merchant_key=merch-1&merchant_reference=order-1", nil)
	rr := httptest.NewRecorder()
	handler.QueryPayments(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var records []mapping.PaymentRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 2)

	assert.Equal(t, "Sale", records[0].Type)
	assert.Equal(t, "REQ1", records[0].RequestReference)
	assert.Equal(t, "1", records[0].Status)
	assert.Equal(t, "100.000000", records[0].Amount)
	require.NotNil(t, records[0].CompletedTime)
	assert.Equal(t, completed.Unix(), *records[0].CompletedTime)

	assert.Equal(t, "0", records[1].Status)
	assert.Nil(t, records[1].CompletedTime)

	mockStore.AssertExpectations(t)
}

func TestQueryPayments_MissingParams(t *testing.T) {
	handler := NewPaymentsHandler(new(storage_mocks.TransactionStore), new(storage_mocks.MerchantStore), &recordingLifecycle{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/payments?merchant_key=merch-1", nil)
	rr := httptest.NewRecorder()
	handler.QueryPayments(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
