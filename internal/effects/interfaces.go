// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/effects/interfaces.go
// Summary: Effect contracts for the one-shot accessibility aids.
// Usage: Implemented by tint, dark mode, and color-vision passes; applied by
// the compositor before the ruler mask.

package effects

import (
	"sync"

	"github.com/veilterm/veilterm/screenbuf"
)

// Effect is a single full-buffer restyling pass. Effects are one-shot state:
// a toggle flips them, the compositor applies whichever are enabled on each
// paint. None of them runs its own frame loop.
type Effect interface {
	ID() string
	Enabled() bool
	SetEnabled(on bool)
	Apply(buffer [][]screenbuf.Cell)
}

// Manager holds the registered effects in application order.
type Manager struct {
	mu      sync.RWMutex
	ordered []Effect
	byID    map[string]Effect
}

func NewManager() *Manager {
	return &Manager{byID: make(map[string]Effect)}
}

// Register appends an effect. Later registrations apply on top of earlier
// ones.
func (m *Manager) Register(e Effect) {
	m.mu.Lock()
	m.ordered = append(m.ordered, e)
	m.byID[e.ID()] = e
	m.mu.Unlock()
}

// Lookup returns the effect registered under id, or nil.
func (m *Manager) Lookup(id string) Effect {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[id]
}

// Apply runs every enabled effect over the buffer in registration order.
func (m *Manager) Apply(buffer [][]screenbuf.Cell) {
	if m == nil {
		return
	}
	m.mu.RLock()
	ordered := append([]Effect(nil), m.ordered...)
	m.mu.RUnlock()
	for _, e := range ordered {
		if e.Enabled() {
			e.Apply(buffer)
		}
	}
}
