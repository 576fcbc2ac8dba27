// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/effects/tint.go
// Summary: Full-surface color tint overlay.

package effects

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/veilterm/veilterm/screenbuf"
)

// Tint washes the whole surface toward a configurable color. The classic use
// is a pale yellow or blue screen tint for visual stress reduction.
type Tint struct {
	mu        sync.Mutex
	enabled   bool
	color     tcell.Color
	intensity float64
}

func NewTint(color tcell.Color, intensity float64) *Tint {
	return &Tint{color: color, intensity: intensity}
}

func (t *Tint) ID() string { return "tint" }

func (t *Tint) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *Tint) SetEnabled(on bool) {
	t.mu.Lock()
	t.enabled = on
	t.mu.Unlock()
}

// Configure replaces color and intensity in one step.
func (t *Tint) Configure(color tcell.Color, intensity float64) {
	t.mu.Lock()
	t.color = color
	t.intensity = intensity
	t.mu.Unlock()
}

// Params returns the current color and intensity.
func (t *Tint) Params() (tcell.Color, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.color, t.intensity
}

func (t *Tint) Apply(buffer [][]screenbuf.Cell) {
	t.mu.Lock()
	color := t.color
	intensity := t.intensity
	t.mu.Unlock()
	for y := range buffer {
		row := buffer[y]
		for x := range row {
			row[x].Style = tintStyle(row[x].Style, color, intensity)
		}
	}
}
