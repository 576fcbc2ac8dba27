// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package overlay

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/veilterm/veilterm/screenbuf"
)

func testBuffer(w, h int) [][]screenbuf.Cell {
	style := tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(200, 200, 200)).
		Background(tcell.NewRGBColor(40, 40, 40))
	return screenbuf.NewBuffer(w, h, style)
}

func TestMaskLeavesStripUntouched(t *testing.T) {
	m := NewMaskSurface(10, 0.75, 20, 40)
	m.SetCursorY(20)
	buf := testBuffer(20, 40)
	orig := buf[20][0].Style

	m.Apply(buf)

	for y := 16; y <= 24; y++ {
		if buf[y][0].Style != orig {
			t.Fatalf("row %d inside the strip was restyled", y)
		}
	}
	if buf[0][0].Style == orig {
		t.Fatalf("far row was not dimmed")
	}
	if buf[39][0].Style == orig {
		t.Fatalf("far row below was not dimmed")
	}
}

func TestMaskGradientIsMonotonic(t *testing.T) {
	m := NewMaskSurface(4, 1.0, 4, 60)
	m.SetCursorY(0)
	buf := testBuffer(4, 60)

	m.Apply(buf)

	prev := int32(256)
	for y := 3; y < 60; y++ {
		fg, _, _ := buf[y][0].Style.Decompose()
		r, _, _ := fg.RGB()
		if r > prev {
			t.Fatalf("dim not monotonic: row %d brighter than row above (%d > %d)", y, r, prev)
		}
		prev = r
	}
}

func TestMaskDestroyIsIdempotent(t *testing.T) {
	m := NewMaskSurface(10, 0.75, 20, 40)
	buf := testBuffer(20, 40)
	orig := buf[0][0].Style

	m.Destroy()
	m.Destroy()
	m.Apply(buf)

	if buf[0][0].Style != orig {
		t.Fatalf("destroyed mask still painted")
	}
}

func TestMaskDegenerateThickness(t *testing.T) {
	m := NewMaskSurface(0, 0.5, 10, 20)
	m.SetCursorY(10)
	buf := testBuffer(10, 20)
	orig := buf[10][0].Style

	m.Apply(buf)

	if buf[10][0].Style != orig {
		t.Fatalf("cursor row dimmed at zero thickness")
	}
	if buf[0][0].Style == orig {
		t.Fatalf("outer row not dimmed at zero thickness")
	}
}

func TestMaskHostileIntensitySaturates(t *testing.T) {
	m := NewMaskSurface(2, 9.5, 10, 20)
	m.SetCursorY(0)
	buf := testBuffer(10, 20)

	m.Apply(buf)

	fg, bg, _ := buf[19][0].Style.Decompose()
	for _, c := range []tcell.Color{fg, bg} {
		r, g, b := c.RGB()
		if r < 0 || g < 0 || b < 0 || r > 255 || g > 255 || b > 255 {
			t.Fatalf("blend escaped the RGB range: %v", c)
		}
	}
}

func TestMaskParameterUpdatesAreIndependent(t *testing.T) {
	m := NewMaskSurface(10, 0.75, 20, 40)
	m.SetThickness(6)
	m.SetIntensity(0.2)
	m.SetViewport(30, 50)
	m.SetCursorY(12)

	cursorY, thickness, intensity := m.Snapshot()
	if cursorY != 12 || thickness != 6 || intensity != 0.2 {
		t.Fatalf("unexpected snapshot: %d %v %v", cursorY, thickness, intensity)
	}
}
