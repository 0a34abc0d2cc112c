// Package outcome decides whether a simulated payment succeeds or fails.
//
// The decision is driven by an ordered rule list plus a default policy. The
// configuration is process-wide and mutable: it is held behind an atomic
// pointer and swapped wholesale on reconfiguration, so a decision always
// reads the latest configuration, including for transactions that were
// created before the change.
package outcome

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/chris/gateway-simulator/pkg/models"
)

// Outcome is a decision result or default policy value.
type Outcome string

const (
	Success Outcome = "SUCCESS"
	Fail    Outcome = "FAIL"
	// Random is only valid as a default outcome; Decide never returns it.
	Random Outcome = "RANDOM"
)

// Condition names a rule predicate.
type Condition string

const (
	// AmountEndsWith matches when the literal amount string has the rule
	// value as a suffix.
	AmountEndsWith Condition = "amount_ends_with"
	// AmountEquals matches on exact string equality with the amount.
	AmountEquals Condition = "amount_equals"
	// NetworkIs matches on exact equality with the payment network.
	NetworkIs Condition = "network"
)

// Rule is a single (condition, value, outcome) entry. Rules are evaluated
// in their stored order and the first match wins.
type Rule struct {
	Condition Condition `json:"condition"`
	Value     string    `json:"value"`
	Outcome   Outcome   `json:"outcome"`
}

// Config is the outcome configuration consulted at every decision.
type Config struct {
	DefaultOutcome  Outcome       `json:"default_outcome"`
	ProcessingDelay time.Duration `json:"processing_delay"`
	CallbackDelay   time.Duration `json:"callback_delay"`
	Rules           []Rule        `json:"rules"`
}

// ErrInvalidConfig is returned when a reconfiguration request is rejected.
// The previous configuration stays in effect.
var ErrInvalidConfig = errors.New("invalid outcome configuration")

// Validate checks the configuration without applying it.
func (c *Config) Validate() error {
	switch c.DefaultOutcome {
	case Success, Fail, Random:
	default:
		return fmt.Errorf("%w: unknown default outcome %q", ErrInvalidConfig, c.DefaultOutcome)
	}
	if c.ProcessingDelay < 0 {
		return fmt.Errorf("%w: processing delay must be non-negative", ErrInvalidConfig)
	}
	if c.CallbackDelay < 0 {
		return fmt.Errorf("%w: callback delay must be non-negative", ErrInvalidConfig)
	}
	for i, r := range c.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks a single rule.
func (r Rule) Validate() error {
	switch r.Condition {
	case AmountEndsWith, AmountEquals, NetworkIs:
	default:
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidConfig, r.Condition)
	}
	switch r.Outcome {
	case Success, Fail:
	default:
		// RANDOM is a default policy, not a rule outcome.
		return fmt.Errorf("%w: rule outcome must be SUCCESS or FAIL, got %q", ErrInvalidConfig, r.Outcome)
	}
	return nil
}

// matches evaluates the rule predicate against a transaction's attributes.
func (r Rule) matches(amount string, network models.Network) bool {
	switch r.Condition {
	case AmountEndsWith:
		return len(amount) >= len(r.Value) && amount[len(amount)-len(r.Value):] == r.Value
	case AmountEquals:
		return amount == r.Value
	case NetworkIs:
		return string(network) == r.Value
	}
	return false
}

// Engine evaluates payment attributes against the current configuration.
type Engine struct {
	cfg atomic.Pointer[Config]
}

// NewEngine creates an Engine with the given initial configuration. An
// invalid initial configuration is rejected.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{}
	e.cfg.Store(&cfg)
	return e, nil
}

// Config returns a snapshot copy of the current configuration.
func (e *Engine) Config() Config {
	cfg := *e.cfg.Load()
	cfg.Rules = append([]Rule(nil), cfg.Rules...)
	return cfg
}

// Decide returns SUCCESS or FAIL for the given payment attributes. The first
// matching rule wins; with no match the default outcome applies, where
// RANDOM draws uniformly per call. The merchant key does not participate in
// rule matching; it is part of the decision contract for attribution.
func (e *Engine) Decide(amount string, network models.Network, merchantKey string) Outcome {
	cfg := e.cfg.Load()
	for _, r := range cfg.Rules {
		if r.matches(amount, network) {
			return r.Outcome
		}
	}
	if cfg.DefaultOutcome == Random {
		if rand.IntN(2) == 0 {
			return Success
		}
		return Fail
	}
	return cfg.DefaultOutcome
}

// SetScenario replaces the whole configuration. On validation failure the
// previous configuration remains in effect.
func (e *Engine) SetScenario(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Rules = append([]Rule(nil), cfg.Rules...)
	e.cfg.Store(&cfg)
	return nil
}

// AddRule appends a rule to the current rule list. Decisions in flight may
// observe either the old or the new list; last writer wins.
func (e *Engine) AddRule(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	old := e.cfg.Load()
	next := *old
	next.Rules = append(append([]Rule(nil), old.Rules...), r)
	e.cfg.Store(&next)
	return nil
}

// ClearRules removes all rules, leaving the default outcome and delays.
func (e *Engine) ClearRules() {
	old := e.cfg.Load()
	next := *old
	next.Rules = nil
	e.cfg.Store(&next)
}
