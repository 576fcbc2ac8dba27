// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: overlay/surface.go
// Summary: The dimming mask layer rendered over host content.
// Usage: Created by the ruler on enable; applied by the compositor as the
// topmost buffer pass.
// Notes: The mask restyles the composited buffer after host content and
// effects have run, so nothing the hosted program emits can restyle it.

package overlay

import (
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/veilterm/veilterm/screenbuf"
)

// Surface is the narrow update channel the ruler drives. All four parameters
// adjust independently; none requires recreating the layer.
type Surface interface {
	SetCursorY(y int)
	SetThickness(px float64)
	SetIntensity(v float64)
	SetViewport(w, h int)
	Destroy()
}

// MaskSurface dims everything outside a horizontal strip centered on the
// cursor row. The mask is a single continuous gradient (full dim, falloff,
// clear, falloff, full dim) computed per row from the distance to the strip
// center, so there is no seam between separately positioned shapes.
//
// Thickness and intensity are applied exactly as given; bounds are the
// caller's responsibility. Degenerate values render degraded but never
// crash: a non-positive thickness dims all rows but the cursor row, and
// out-of-range intensity saturates at the blend step.
type MaskSurface struct {
	mu        sync.Mutex
	cursorY   int
	thickness float64
	intensity float64
	width     int
	height    int
	destroyed bool
}

// NewMaskSurface creates the mask layer with its initial parameters.
func NewMaskSurface(thickness, intensity float64, w, h int) *MaskSurface {
	return &MaskSurface{
		thickness: thickness,
		intensity: intensity,
		width:     w,
		height:    h,
		cursorY:   h / 2,
	}
}

func (m *MaskSurface) SetCursorY(y int) {
	m.mu.Lock()
	m.cursorY = y
	m.mu.Unlock()
}

func (m *MaskSurface) SetThickness(px float64) {
	m.mu.Lock()
	m.thickness = px
	m.mu.Unlock()
}

func (m *MaskSurface) SetIntensity(v float64) {
	m.mu.Lock()
	m.intensity = v
	m.mu.Unlock()
}

func (m *MaskSurface) SetViewport(w, h int) {
	m.mu.Lock()
	m.width = w
	m.height = h
	m.mu.Unlock()
}

// Destroy detaches the mask from rendering. Idempotent; Apply becomes a
// no-op afterwards.
func (m *MaskSurface) Destroy() {
	m.mu.Lock()
	m.destroyed = true
	m.mu.Unlock()
}

// Destroyed reports whether Destroy has been called.
func (m *MaskSurface) Destroyed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyed
}

// Snapshot returns the current parameters (used by state queries and tests).
func (m *MaskSurface) Snapshot() (cursorY int, thickness, intensity float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursorY, m.thickness, m.intensity
}

// Apply dims buffer rows by their distance from the cursor strip. The strip
// itself stays untouched; beyond it the dim factor ramps linearly up to the
// configured intensity over a falloff band.
func (m *MaskSurface) Apply(buffer [][]screenbuf.Cell) {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return
	}
	cursorY := m.cursorY
	half := m.thickness / 2
	intensity := m.intensity
	m.mu.Unlock()

	falloff := math.Max(1, half)
	for y := range buffer {
		dist := math.Abs(float64(y - cursorY))
		if dist <= half {
			continue
		}
		t := (dist - half) / falloff
		if t > 1 {
			t = 1
		}
		factor := intensity * t
		if factor <= 0 {
			continue
		}
		row := buffer[y]
		for x := range row {
			row[x].Style = dimStyle(row[x].Style, factor)
		}
	}
}

// dimStyle blends both the foreground and background toward black. The blend
// parameter saturates here so that hostile intensity values stay renderable.
func dimStyle(style tcell.Style, factor float64) tcell.Style {
	if factor > 1 {
		factor = 1
	}
	fg, bg, attrs := style.Decompose()
	if !fg.Valid() {
		fg = tcell.ColorWhite
	}
	if !bg.Valid() {
		bg = tcell.ColorBlack
	}
	fg = blendToBlack(fg, factor)
	bg = blendToBlack(bg, factor)
	return tcell.StyleDefault.Foreground(fg).Background(bg).Attributes(attrs)
}

func blendToBlack(c tcell.Color, factor float64) tcell.Color {
	r, g, b := c.TrueColor().RGB()
	base := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	mixed := base.BlendRgb(colorful.Color{}, factor).Clamped()
	return tcell.NewRGBColor(int32(mixed.R*255+0.5), int32(mixed.G*255+0.5), int32(mixed.B*255+0.5))
}
