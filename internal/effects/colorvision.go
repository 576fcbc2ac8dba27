// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/effects/colorvision.go
// Summary: Color-vision deficiency simulation matrices.
// Notes: The matrices are the widely used linear-RGB approximations for full
// dichromacy. Simulation only; no daltonization correction is attempted.

package effects

import (
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/veilterm/veilterm/screenbuf"
)

// VisionMode selects which deficiency to simulate.
type VisionMode int

const (
	VisionNone VisionMode = iota
	VisionProtanopia
	VisionDeuteranopia
	VisionTritanopia
)

func (m VisionMode) String() string {
	switch m {
	case VisionProtanopia:
		return "protanopia"
	case VisionDeuteranopia:
		return "deuteranopia"
	case VisionTritanopia:
		return "tritanopia"
	default:
		return "none"
	}
}

// ParseVisionMode maps a config/CLI string onto a mode. Unknown strings mean
// no simulation.
func ParseVisionMode(s string) VisionMode {
	switch s {
	case "protanopia":
		return VisionProtanopia
	case "deuteranopia":
		return VisionDeuteranopia
	case "tritanopia":
		return VisionTritanopia
	default:
		return VisionNone
	}
}

type rgbMatrix [3][3]float64

var visionMatrices = map[VisionMode]rgbMatrix{
	VisionProtanopia: {
		{0.567, 0.433, 0.000},
		{0.558, 0.442, 0.000},
		{0.000, 0.242, 0.758},
	},
	VisionDeuteranopia: {
		{0.625, 0.375, 0.000},
		{0.700, 0.300, 0.000},
		{0.000, 0.300, 0.700},
	},
	VisionTritanopia: {
		{0.950, 0.050, 0.000},
		{0.000, 0.433, 0.567},
		{0.000, 0.475, 0.525},
	},
}

// ColorVision remaps every cell color through the active simulation matrix.
type ColorVision struct {
	mu   sync.Mutex
	mode VisionMode
}

func NewColorVision() *ColorVision {
	return &ColorVision{}
}

func (v *ColorVision) ID() string { return "colorvision" }

func (v *ColorVision) Enabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode != VisionNone
}

// SetEnabled turning off resets the mode; turning on without a mode picks
// deuteranopia, the most common deficiency.
func (v *ColorVision) SetEnabled(on bool) {
	v.mu.Lock()
	if !on {
		v.mode = VisionNone
	} else if v.mode == VisionNone {
		v.mode = VisionDeuteranopia
	}
	v.mu.Unlock()
}

func (v *ColorVision) SetMode(mode VisionMode) {
	v.mu.Lock()
	v.mode = mode
	v.mu.Unlock()
}

func (v *ColorVision) Mode() VisionMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

func (v *ColorVision) Apply(buffer [][]screenbuf.Cell) {
	v.mu.Lock()
	matrix, ok := visionMatrices[v.mode]
	v.mu.Unlock()
	if !ok {
		return
	}
	for y := range buffer {
		row := buffer[y]
		for x := range row {
			row[x].Style = mapStyle(row[x].Style, func(c colorful.Color) colorful.Color {
				return applyMatrix(matrix, c)
			})
		}
	}
}

func applyMatrix(m rgbMatrix, c colorful.Color) colorful.Color {
	return colorful.Color{
		R: m[0][0]*c.R + m[0][1]*c.G + m[0][2]*c.B,
		G: m[1][0]*c.R + m[1][1]*c.G + m[1][2]*c.B,
		B: m[2][0]*c.R + m[2][1]*c.G + m[2][2]*c.B,
	}
}
