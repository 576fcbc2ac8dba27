// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/effects/blend.go
// Summary: Shared color math for the restyling passes.

package effects

import (
	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
)

func toColorful(c tcell.Color, fallback tcell.Color) colorful.Color {
	if !c.Valid() {
		c = fallback
	}
	r, g, b := c.TrueColor().RGB()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func toTcell(c colorful.Color) tcell.Color {
	c = c.Clamped()
	return tcell.NewRGBColor(int32(c.R*255+0.5), int32(c.G*255+0.5), int32(c.B*255+0.5))
}

// mapStyle rewrites both colors of a style through fn, defaulting invalid
// colors to white-on-black first so the mapping has something to work with.
func mapStyle(style tcell.Style, fn func(c colorful.Color) colorful.Color) tcell.Style {
	fg, bg, attrs := style.Decompose()
	mappedFg := toTcell(fn(toColorful(fg, tcell.ColorWhite)))
	mappedBg := toTcell(fn(toColorful(bg, tcell.ColorBlack)))
	return tcell.StyleDefault.Foreground(mappedFg).Background(mappedBg).Attributes(attrs)
}

// tintStyle blends both colors toward tint by intensity.
func tintStyle(style tcell.Style, tint tcell.Color, intensity float64) tcell.Style {
	if intensity <= 0 {
		return style
	}
	if intensity > 1 {
		intensity = 1
	}
	target := toColorful(tint, tcell.ColorBlack)
	return mapStyle(style, func(c colorful.Color) colorful.Color {
		return c.BlendRgb(target, intensity)
	})
}
