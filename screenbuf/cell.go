// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: screenbuf/cell.go
// Summary: Cell and buffer primitives shared by the host grid, effects, and compositor.

package screenbuf

import (
	"github.com/gdamore/tcell/v2"
	runewidth "github.com/mattn/go-runewidth"
)

// Cell is one styled character slot. A zero Ch is treated as a blank by the
// compositor; a Width of 2 marks the left half of a wide rune and the slot to
// its right must carry Width 0.
type Cell struct {
	Ch    rune
	Style tcell.Style
	Width int8
}

// NewBuffer allocates a w×h buffer filled with blanks in the given style.
func NewBuffer(w, h int, style tcell.Style) [][]Cell {
	buf := make([][]Cell, h)
	for y := range buf {
		row := make([]Cell, w)
		for x := range row {
			row[x] = Cell{Ch: ' ', Style: style, Width: 1}
		}
		buf[y] = row
	}
	return buf
}

// Blit copies src into dst at offset (x, y), clipping at dst's bounds.
func Blit(dst [][]Cell, x, y int, src [][]Cell) {
	for sy, row := range src {
		ty := y + sy
		if ty < 0 || ty >= len(dst) {
			continue
		}
		target := dst[ty]
		for sx, cell := range row {
			tx := x + sx
			if tx < 0 || tx >= len(target) {
				continue
			}
			target[tx] = cell
		}
	}
}

// SetRune places r at (x, y), reserving a continuation slot after wide runes.
func SetRune(buf [][]Cell, x, y int, r rune, style tcell.Style) {
	if y < 0 || y >= len(buf) {
		return
	}
	row := buf[y]
	if x < 0 || x >= len(row) {
		return
	}
	w := runewidth.RuneWidth(r)
	if w <= 0 {
		w = 1
	}
	row[x] = Cell{Ch: r, Style: style, Width: int8(w)}
	if w == 2 && x+1 < len(row) {
		row[x+1] = Cell{Ch: 0, Style: style, Width: 0}
	}
}
