// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: overlay/control.go
// Summary: Command surface translating external messages into ruler calls.
// Usage: Driven by the session relay; each command maps to exactly one
// lifecycle operation and completes synchronously.

package overlay

// PersistedConfig is the full externally persisted ruler snapshot, the shape
// handed over on reapply after the hosted session restarts.
type PersistedConfig struct {
	Enabled   bool
	Thickness float64
	Intensity float64
}

// Control exposes the four ruler commands. It holds no state of its own;
// settings persistence is the caller's job, triggered by the same commands.
type Control struct {
	ruler *Ruler
}

func NewControl(r *Ruler) *Control {
	return &Control{ruler: r}
}

// Toggle enables or disables the ruler. Optional settings accompany the
// enable path.
func (c *Control) Toggle(enabled bool, s Settings) {
	if enabled {
		c.ruler.Enable(s)
	} else {
		c.ruler.Disable()
	}
}

// UpdateSettings applies a sparse live update (or stages it while disabled).
func (c *Control) UpdateSettings(s Settings) {
	c.ruler.UpdateSettings(s)
}

// State answers a state query.
func (c *Control) State() State {
	return c.ruler.State()
}

// Config returns the ruler's current thickness and intensity, for callers
// persisting settings after a command.
func (c *Control) Config() (thickness, intensity float64) {
	return c.ruler.Config()
}

// Reapply re-derives enabled and settings from the persisted snapshot. Used
// once after a session restart; the in-memory state before the restart does
// not survive into the decision.
func (c *Control) Reapply(cfg PersistedConfig) {
	s := Settings{Thickness: &cfg.Thickness, Intensity: &cfg.Intensity}
	if cfg.Enabled {
		c.ruler.Enable(s)
		return
	}
	c.ruler.UpdateSettings(s)
	c.ruler.Disable()
}
