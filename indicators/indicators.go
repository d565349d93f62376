// Package indicators provides the streaming technical indicators behind
// the rotation engine: trend regression, momentum scoring, average true
// range, and the volatility channel.
package indicators

import "github.com/kwalczyk/rotor/market"

// Indicator computes a single streaming value from bars.
// It is deterministic and safe to use in replay and backtests.
type Indicator interface {
	// Name returns a stable identifier like "ATR(110)" or "Momentum(400)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	// (Some indicators may become ready earlier; that's fine.)
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether the indicator value is meaningful (warmup
	// completed).
	Ready() bool
}
