// Package admin holds the operator-facing HTTP handlers: outcome scenario
// control, merchant management and manual webhook resends.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/chris/gateway-simulator/pkg/outcome"
	"github.com/chris/gateway-simulator/pkg/storage"
	"github.com/go-chi/chi/v5"
)

// Deliverer performs one synchronous webhook delivery attempt.
type Deliverer interface {
	Deliver(ctx context.Context, txID string) (bool, error)
}

// AdminHandler holds the dependencies for administrative handlers.
type AdminHandler struct {
	Engine    *outcome.Engine
	Merchants storage.MerchantStore
	Deliverer Deliverer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(engine *outcome.Engine, merchants storage.MerchantStore, deliverer Deliverer) *AdminHandler {
	return &AdminHandler{Engine: engine, Merchants: merchants, Deliverer: deliverer}
}

// outcomeConfigDTO is the wire shape of the outcome configuration. Delays
// travel as integer milliseconds.
type outcomeConfigDTO struct {
	DefaultOutcome    outcome.Outcome `json:"default_outcome"`
	ProcessingDelayMs int64           `json:"processing_delay_ms"`
	CallbackDelayMs   int64           `json:"callback_delay_ms"`
	Rules             []outcome.Rule  `json:"rules"`
}

func toDTO(cfg outcome.Config) outcomeConfigDTO {
	return outcomeConfigDTO{
		DefaultOutcome:    cfg.DefaultOutcome,
		ProcessingDelayMs: cfg.ProcessingDelay.Milliseconds(),
		CallbackDelayMs:   cfg.CallbackDelay.Milliseconds(),
		Rules:             cfg.Rules,
	}
}

func (d outcomeConfigDTO) toConfig() outcome.Config {
	return outcome.Config{
		DefaultOutcome:  d.DefaultOutcome,
		ProcessingDelay: time.Duration(d.ProcessingDelayMs) * time.Millisecond,
		CallbackDelay:   time.Duration(d.CallbackDelayMs) * time.Millisecond,
		Rules:           d.Rules,
	}
}

// GetOutcomeConfig returns the configuration currently driving decisions.
func (h *AdminHandler) GetOutcomeConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDTO(h.Engine.Config()))
}

// PutOutcomeConfig replaces the outcome configuration wholesale. A rejected
// configuration leaves the previous one in effect.
func (h *AdminHandler) PutOutcomeConfig(w http.ResponseWriter, r *http.Request) {
	var dto outcomeConfigDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.Engine.SetScenario(dto.toConfig()); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, toDTO(h.Engine.Config()))
}

// AddOutcomeRule appends one rule to the active configuration. New rules
// evaluate after all existing ones.
func (h *AdminHandler) AddOutcomeRule(w http.ResponseWriter, r *http.Request) {
	var rule outcome.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.Engine.AddRule(rule); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, toDTO(h.Engine.Config()))
}

// ClearOutcomeRules drops every rule, leaving only the default outcome.
func (h *AdminHandler) ClearOutcomeRules(w http.ResponseWriter, r *http.Request) {
	h.Engine.ClearRules()
	writeJSON(w, http.StatusOK, toDTO(h.Engine.Config()))
}

// UpsertMerchant creates or replaces a merchant record.
func (h *AdminHandler) UpsertMerchant(w http.ResponseWriter, r *http.Request) {
	var merchant models.Merchant
	if err := json.NewDecoder(r.Body).Decode(&merchant); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if merchant.Key == "" || merchant.Secret == "" {
		http.Error(w, "key and secret are required", http.StatusBadRequest)
		return
	}

	if err := h.Merchants.PutMerchant(r.Context(), &merchant); err != nil {
		log.Printf("ERROR: failed to store merchant %s: %v", merchant.Key, err)
		http.Error(w, "Failed to store merchant", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, &merchant)
}

// ResendWebhook triggers one synchronous delivery attempt for a
// transaction, regardless of how many automatic attempts already ran.
func (h *AdminHandler) ResendWebhook(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "id")

	delivered, err := h.Deliverer.Deliver(r.Context(), txID)
	if err != nil {
		if errors.Is(err, storage.ErrTransactionNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		log.Printf("ERROR: manual webhook resend for %s failed: %v", txID, err)
		http.Error(w, fmt.Sprintf("Failed to resend webhook: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"delivered": delivered})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
