// Package lifecycle drives a simulated payment through its state machine.
//
// A created transaction is PENDING. After the configured processing delay
// it becomes PROCESSING, and after the callback delay (measured from
// creation) the outcome engine is consulted and the payment turns SUCCESS
// or FAIL. The two transitions are chained scheduled tasks: the terminal
// task is armed by the processing task, so the terminal write always runs
// strictly after the processing write.
//
// The schedule is not durable. If the process restarts between creation and
// the terminal transition, the remaining transitions are lost; this is an
// accepted property of the simulator.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/gateway-simulator/pkg/metrics"
	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/chris/gateway-simulator/pkg/outcome"
	"github.com/chris/gateway-simulator/pkg/scheduler"
	"github.com/chris/gateway-simulator/pkg/storage"
)

// WebhookScheduler is the delivery agent's asynchronous entry point, seen
// from the controller's side.
type WebhookScheduler interface {
	ScheduleDelivery(ctx context.Context, txID string, delay time.Duration) error
}

// Controller orchestrates the timed transitions of a transaction.
type Controller struct {
	store    storage.TransactionStore
	engine   *outcome.Engine
	sched    scheduler.Scheduler
	webhooks WebhookScheduler
	logger   *slog.Logger
	metrics  *metrics.GatewayMetrics
}

// NewController creates a Controller.
func NewController(store storage.TransactionStore, engine *outcome.Engine, sched scheduler.Scheduler, webhooks WebhookScheduler, logger *slog.Logger, m *metrics.GatewayMetrics) *Controller {
	return &Controller{
		store:    store,
		engine:   engine,
		sched:    sched,
		webhooks: webhooks,
		logger:   logger,
		metrics:  m,
	}
}

// Begin schedules the PROCESSING transition for a freshly created
// transaction. The processing delay is read from the current outcome
// configuration at scheduling time.
func (c *Controller) Begin(ctx context.Context, tx *models.Transaction) error {
	cfg := c.engine.Config()
	txID := tx.ID
	return c.sched.Schedule(ctx, processingKey(txID), cfg.ProcessingDelay, func(ctx context.Context) {
		c.advanceToProcessing(ctx, txID)
	})
}

// advanceToProcessing runs when the processing timer fires. It writes the
// PROCESSING status and arms the terminal task. No outcome decision is made
// here.
func (c *Controller) advanceToProcessing(ctx context.Context, txID string) {
	if err := c.store.TransitionStatus(ctx, txID, models.PENDING, models.PROCESSING); err != nil {
		// A record deleted out of band, or one that already moved on, means
		// the transition is abandoned, not retried.
		c.logger.Warn("processing transition abandoned", "transaction_id", txID, "error", err.Error())
		return
	}

	// The callback delay is measured from creation, so the remaining wait is
	// its excess over the processing delay. Clamp at zero: a misconfigured
	// callback delay shorter than the processing delay fires the terminal
	// transition immediately after this one.
	cfg := c.engine.Config()
	delay := cfg.CallbackDelay - cfg.ProcessingDelay
	if delay < 0 {
		delay = 0
	}

	if err := c.sched.Schedule(ctx, terminalKey(txID), delay, func(ctx context.Context) {
		c.complete(ctx, txID)
	}); err != nil {
		c.logger.Error("failed to schedule terminal transition", "transaction_id", txID, "error", err.Error())
	}
}

// complete runs when the terminal timer fires: it asks the outcome engine
// for a decision against the latest configuration, writes the terminal
// status and hands the transaction to the delivery agent.
func (c *Controller) complete(ctx context.Context, txID string) {
	tx, err := c.store.GetTransaction(ctx, txID)
	if err != nil {
		if errors.Is(err, storage.ErrTransactionNotFound) {
			c.logger.Warn("terminal transition abandoned", "transaction_id", txID, "error", err.Error())
			return
		}
		c.logger.Error("failed to load transaction for terminal transition", "transaction_id", txID, "error", err.Error())
		return
	}

	decision := c.engine.Decide(tx.Amount, tx.Network, tx.MerchantKey)
	status := models.SUCCESS
	if decision == outcome.Fail {
		status = models.FAIL
	}

	if err := c.store.TransitionStatus(ctx, txID, models.PROCESSING, status); err != nil {
		c.logger.Warn("terminal transition abandoned", "transaction_id", txID, "status", string(status), "error", err.Error())
		return
	}

	c.metrics.RecordTransactionCompleted(string(status))
	c.logger.Info("transaction completed",
		"transaction_id", txID,
		"merchant_key", tx.MerchantKey,
		"status", string(status),
	)

	if err := c.webhooks.ScheduleDelivery(ctx, txID, 0); err != nil {
		c.logger.Error("failed to schedule webhook delivery", "transaction_id", txID, "error", err.Error())
	}
}

func processingKey(txID string) string {
	return fmt.Sprintf("lifecycle/%s/processing", txID)
}

func terminalKey(txID string) string {
	return fmt.Sprintf("lifecycle/%s/terminal", txID)
}
