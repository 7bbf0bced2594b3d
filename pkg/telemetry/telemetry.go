// Package telemetry emits structured pipeline events. Threat events are
// gated by a configurable risk threshold so routine truncations do not flood
// the logs.
package telemetry

import (
	"log/slog"

	"github.com/draftsmith/bulwark/pkg/risk"
)

// Client wraps a slog logger with risk-threshold gating.
type Client struct {
	log       *slog.Logger
	threshold risk.Level
}

// New builds a Client that logs threat events at or above threshold.
// A nil logger falls back to slog.Default().
func New(logger *slog.Logger, threshold risk.Level) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{log: logger, threshold: threshold}
}

// Threat logs a detection event if level clears the threshold.
func (c *Client) Threat(context string, level risk.Level, threatCount int, categories []string) {
	if c == nil || level < c.threshold {
		return
	}
	c.log.Warn("threat detected",
		"context", context,
		"risk", level.String(),
		"threats", threatCount,
		"categories", categories,
	)
}

// Blocked logs a request rejected for critical risk. Always emitted.
func (c *Client) Blocked(context string, level risk.Level) {
	if c == nil {
		return
	}
	c.log.Error("request blocked", "context", context, "risk", level.String())
}

// Debug logs low-priority diagnostics (store failures, cache misses).
func (c *Client) Debug(msg string, args ...any) {
	if c == nil {
		return
	}
	c.log.Debug(msg, args...)
}
