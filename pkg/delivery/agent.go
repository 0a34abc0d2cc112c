// Package delivery implements the webhook delivery agent.
//
// Once a payment reaches a terminal status, the agent builds a signed
// form-encoded payload and POSTs it to the transaction's callback address.
// A delivery counts as confirmed only on an HTTP 200 response. Failures are
// retried up to 3 total automatic attempts with 2^attempt seconds of
// backoff between them; the waits are scheduled continuations on the shared
// scheduler, not blocking sleeps. Every attempt is persisted on the
// transaction record, so an exhausted delivery is visible as
// delivery_confirmed=false with 3 attempts.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chris/gateway-simulator/pkg/mapping"
	"github.com/chris/gateway-simulator/pkg/metrics"
	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/chris/gateway-simulator/pkg/scheduler"
	"github.com/chris/gateway-simulator/pkg/signing"
	"github.com/chris/gateway-simulator/pkg/storage"
)

const (
	// MaxAttempts caps the automatic delivery attempts per transaction.
	// The manual trigger keeps working past this cap.
	MaxAttempts = 3

	requestTimeout = 10 * time.Second
)

// Agent delivers signed webhooks and records the outcome of every attempt.
type Agent struct {
	store     storage.TransactionStore
	merchants storage.MerchantStore
	sched     scheduler.Scheduler
	client    *http.Client
	logger    *slog.Logger
	metrics   *metrics.GatewayMetrics
}

// NewAgent creates an Agent with a bounded-timeout HTTP client.
func NewAgent(store storage.TransactionStore, merchants storage.MerchantStore, sched scheduler.Scheduler, logger *slog.Logger, m *metrics.GatewayMetrics) *Agent {
	return &Agent{
		store:     store,
		merchants: merchants,
		sched:     sched,
		client:    &http.Client{Timeout: requestTimeout},
		logger:    logger,
		metrics:   m,
	}
}

// ScheduleDelivery enqueues an asynchronous delivery attempt for the
// transaction after the given delay. The lifecycle controller calls this
// with zero delay when a payment turns terminal.
func (a *Agent) ScheduleDelivery(ctx context.Context, txID string, delay time.Duration) error {
	return a.sched.Schedule(ctx, deliveryKey(txID), delay, func(ctx context.Context) {
		a.runAttempt(ctx, txID)
	})
}

// Deliver performs one synchronous delivery attempt and reports whether it
// was confirmed. It is the administrative resend entry point: it runs
// regardless of the confirmed flag and keeps incrementing the attempt
// counter, but never schedules automatic retries.
func (a *Agent) Deliver(ctx context.Context, txID string) (bool, error) {
	confirmed, _, err := a.attempt(ctx, txID)
	return confirmed, err
}

// runAttempt is the scheduled continuation driving the automatic retry
// chain. Errors here never propagate: scheduled work logs and terminates.
func (a *Agent) runAttempt(ctx context.Context, txID string) {
	confirmed, attempts, err := a.attempt(ctx, txID)
	if err != nil {
		if errors.Is(err, storage.ErrTransactionNotFound) || errors.Is(err, storage.ErrMerchantNotFound) {
			a.logger.Warn("webhook delivery abandoned", "transaction_id", txID, "error", err.Error())
			return
		}
		a.logger.Error("webhook delivery attempt errored", "transaction_id", txID, "error", err.Error())
		return
	}

	if confirmed {
		a.logger.Info("webhook delivered", "transaction_id", txID, "attempts", attempts)
		return
	}

	if attempts >= MaxAttempts {
		a.logger.Warn("webhook delivery exhausted", "transaction_id", txID, "attempts", attempts)
		return
	}

	// Exponential backoff: 2s after the 1st failure, 4s after the 2nd.
	backoff := time.Duration(1<<attempts) * time.Second
	if err := a.sched.Schedule(ctx, deliveryKey(txID), backoff, func(ctx context.Context) {
		a.runAttempt(ctx, txID)
	}); err != nil {
		a.logger.Error("failed to schedule webhook retry", "transaction_id", txID, "error", err.Error())
	}
}

// attempt performs a single delivery attempt and persists its outcome.
// It returns the confirmation result and the attempt count after this
// attempt.
func (a *Agent) attempt(ctx context.Context, txID string) (bool, int, error) {
	tx, err := a.store.GetTransaction(ctx, txID)
	if err != nil {
		return false, 0, err
	}

	merchant, err := a.merchants.GetMerchant(ctx, tx.MerchantKey)
	if err != nil {
		return false, 0, err
	}

	form := WebhookForm(tx, merchant.Secret)

	start := time.Now()
	confirmed := a.post(ctx, tx.CallbackAddress, form)
	a.metrics.RecordWebhookAttempt(confirmed, time.Since(start).Seconds())

	attempts := tx.DeliveryAttempts + 1
	if err := a.store.RecordDeliveryAttempt(ctx, tx.ID, confirmed, time.Now()); err != nil {
		// The POST already happened; the worst case is an undercounted
		// attempt. Log and carry on with the in-memory count.
		a.logger.Error("failed to persist delivery attempt", "transaction_id", tx.ID, "error", err.Error())
	}

	return confirmed, attempts, nil
}

// post issues the form-encoded webhook POST. Only an exact HTTP 200 counts
// as success; timeouts, transport errors and any other status are failures.
func (a *Agent) post(ctx context.Context, callbackAddress string, form url.Values) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackAddress, strings.NewReader(form.Encode()))
	if err != nil {
		a.logger.Error("failed to build webhook request", "url", callbackAddress, "error", err.Error())
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("webhook request failed", "url", callbackAddress, "error", err.Error())
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Warn("webhook rejected", "url", callbackAddress, "status", resp.StatusCode)
		return false
	}
	return true
}

// WebhookForm assembles and signs the webhook payload for a transaction.
func WebhookForm(tx *models.Transaction, secret string) url.Values {
	fields := map[string]string{
		"merchant_reference": tx.MerchantReference,
		"request_reference":  tx.RequestReference,
		"currency":           tx.Currency,
		"amount":             mapping.FormatAmount(tx.Amount, 2),
		"status":             tx.Status.WireCode(),
	}
	fields[signing.SignatureField] = signing.Sign(fields, secret)

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	return form
}

func deliveryKey(txID string) string {
	return fmt.Sprintf("delivery/%s", txID)
}
