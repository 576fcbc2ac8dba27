// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/effects/darkmode.go
// Summary: Luminance inversion for bright host output.
// Notes: Inverts lightness in HSL while keeping hue, so colored output stays
// recognizable instead of turning into photo-negative colors.

package effects

import (
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/veilterm/veilterm/screenbuf"
)

type DarkMode struct {
	mu      sync.Mutex
	enabled bool
}

func NewDarkMode() *DarkMode {
	return &DarkMode{}
}

func (d *DarkMode) ID() string { return "darkmode" }

func (d *DarkMode) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

func (d *DarkMode) SetEnabled(on bool) {
	d.mu.Lock()
	d.enabled = on
	d.mu.Unlock()
}

func (d *DarkMode) Apply(buffer [][]screenbuf.Cell) {
	for y := range buffer {
		row := buffer[y]
		for x := range row {
			row[x].Style = mapStyle(row[x].Style, invertLightness)
		}
	}
}

func invertLightness(c colorful.Color) colorful.Color {
	h, s, l := c.Hsl()
	return colorful.Hsl(h, s, 1-l)
}
