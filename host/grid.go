// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: host/grid.go
// Summary: Cell grid fed by host pty output.
// Notes: Implements the escape-sequence subset the overlay needs to mirror
// host content faithfully: cursor motion, erase, and SGR styling. Sequences
// outside that subset are consumed and ignored rather than leaked into the
// grid.

package host

import (
	"sync"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/veilterm/veilterm/screenbuf"
)

type parseState int

const (
	stateGround parseState = iota
	stateEscape
	stateCSI
	stateOSC
)

// Grid converts a raw pty byte stream into a styled cell buffer.
type Grid struct {
	mu      sync.Mutex
	cells   [][]screenbuf.Cell
	width   int
	height  int
	curX    int
	curY    int
	style   tcell.Style
	state   parseState
	params  []byte
	pending []byte
}

func NewGrid(w, h int) *Grid {
	g := &Grid{style: tcell.StyleDefault}
	g.resizeLocked(w, h)
	return g
}

// Snapshot returns a copy of the current cell buffer.
func (g *Grid) Snapshot() [][]screenbuf.Cell {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([][]screenbuf.Cell, g.height)
	for y := range g.cells {
		row := make([]screenbuf.Cell, g.width)
		copy(row, g.cells[y])
		out[y] = row
	}
	return out
}

// Size returns the grid dimensions.
func (g *Grid) Size() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.width, g.height
}

// Resize re-dimensions the grid, preserving content that still fits.
func (g *Grid) Resize(w, h int) {
	g.mu.Lock()
	g.resizeLocked(w, h)
	g.mu.Unlock()
}

func (g *Grid) resizeLocked(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	next := screenbuf.NewBuffer(w, h, tcell.StyleDefault)
	screenbuf.Blit(next, 0, 0, g.cells)
	g.cells = next
	g.width = w
	g.height = h
	if g.curX >= w {
		g.curX = w - 1
	}
	if g.curY >= h {
		g.curY = h - 1
	}
}

// Feed parses a chunk of pty output into the grid. Partial UTF-8 sequences
// at the chunk boundary are buffered for the next call.
func (g *Grid) Feed(p []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()

	data := p
	if len(g.pending) > 0 {
		data = append(g.pending, p...)
		g.pending = nil
	}

	for len(data) > 0 {
		switch g.state {
		case stateGround:
			b := data[0]
			switch {
			case b == 0x1b:
				g.state = stateEscape
				data = data[1:]
			case b == '\r':
				g.curX = 0
				data = data[1:]
			case b == '\n':
				g.lineFeed()
				data = data[1:]
			case b == '\b':
				if g.curX > 0 {
					g.curX--
				}
				data = data[1:]
			case b == '\t':
				g.curX = (g.curX/8 + 1) * 8
				if g.curX >= g.width {
					g.curX = g.width - 1
				}
				data = data[1:]
			case b < 0x20:
				data = data[1:]
			default:
				r, size := utf8.DecodeRune(data)
				if r == utf8.RuneError && size == 1 && !utf8.FullRune(data) {
					g.pending = append(g.pending, data...)
					return
				}
				g.putRune(r)
				data = data[size:]
			}
		case stateEscape:
			switch data[0] {
			case '[':
				g.state = stateCSI
				g.params = g.params[:0]
			case ']':
				g.state = stateOSC
			default:
				g.state = stateGround
			}
			data = data[1:]
		case stateCSI:
			b := data[0]
			if b >= 0x40 && b <= 0x7e {
				g.dispatchCSI(b)
				g.state = stateGround
			} else {
				g.params = append(g.params, b)
			}
			data = data[1:]
		case stateOSC:
			// Swallow until BEL or ST.
			b := data[0]
			if b == 0x07 {
				g.state = stateGround
			} else if b == 0x1b && len(data) > 1 && data[1] == '\\' {
				g.state = stateGround
				data = data[1:]
			}
			data = data[1:]
		}
	}
}

func (g *Grid) putRune(r rune) {
	if g.curX >= g.width {
		g.curX = 0
		g.lineFeed()
	}
	screenbuf.SetRune(g.cells, g.curX, g.curY, r, g.style)
	w := int(g.cells[g.curY][g.curX].Width)
	if w < 1 {
		w = 1
	}
	g.curX += w
}

func (g *Grid) lineFeed() {
	g.curY++
	if g.curY >= g.height {
		g.curY = g.height - 1
		copy(g.cells, g.cells[1:])
		g.cells[g.height-1] = blankRow(g.width)
	}
}

func blankRow(w int) []screenbuf.Cell {
	row := make([]screenbuf.Cell, w)
	for x := range row {
		row[x] = screenbuf.Cell{Ch: ' ', Style: tcell.StyleDefault, Width: 1}
	}
	return row
}

func (g *Grid) dispatchCSI(final byte) {
	params := parseParams(g.params)
	switch final {
	case 'H', 'f':
		row, col := 1, 1
		if len(params) > 0 && params[0] > 0 {
			row = params[0]
		}
		if len(params) > 1 && params[1] > 0 {
			col = params[1]
		}
		g.curY = clamp(row-1, 0, g.height-1)
		g.curX = clamp(col-1, 0, g.width-1)
	case 'A':
		g.curY = clamp(g.curY-amount(params), 0, g.height-1)
	case 'B':
		g.curY = clamp(g.curY+amount(params), 0, g.height-1)
	case 'C':
		g.curX = clamp(g.curX+amount(params), 0, g.width-1)
	case 'D':
		g.curX = clamp(g.curX-amount(params), 0, g.width-1)
	case 'K':
		g.eraseLine(first(params))
	case 'J':
		g.eraseDisplay(first(params))
	case 'm':
		g.applySGR(params)
	}
}

func amount(params []int) int {
	if len(params) > 0 && params[0] > 0 {
		return params[0]
	}
	return 1
}

func first(params []int) int {
	if len(params) > 0 {
		return params[0]
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func parseParams(raw []byte) []int {
	if len(raw) == 0 {
		return nil
	}
	var params []int
	value := 0
	seen := false
	for _, b := range raw {
		switch {
		case b >= '0' && b <= '9':
			value = value*10 + int(b-'0')
			seen = true
		case b == ';':
			params = append(params, value)
			value = 0
			seen = false
		default:
			// Private markers and intermediates are ignored.
		}
	}
	if seen || len(params) > 0 {
		params = append(params, value)
	}
	return params
}

func (g *Grid) eraseLine(mode int) {
	row := g.cells[g.curY]
	switch mode {
	case 0:
		for x := g.curX; x < g.width; x++ {
			row[x] = screenbuf.Cell{Ch: ' ', Style: g.style, Width: 1}
		}
	case 1:
		for x := 0; x <= g.curX && x < g.width; x++ {
			row[x] = screenbuf.Cell{Ch: ' ', Style: g.style, Width: 1}
		}
	case 2:
		for x := 0; x < g.width; x++ {
			row[x] = screenbuf.Cell{Ch: ' ', Style: g.style, Width: 1}
		}
	}
}

func (g *Grid) eraseDisplay(mode int) {
	switch mode {
	case 0:
		g.eraseLine(0)
		for y := g.curY + 1; y < g.height; y++ {
			g.cells[y] = blankRow(g.width)
		}
	case 1:
		g.eraseLine(1)
		for y := 0; y < g.curY; y++ {
			g.cells[y] = blankRow(g.width)
		}
	case 2, 3:
		for y := 0; y < g.height; y++ {
			g.cells[y] = blankRow(g.width)
		}
		g.curX, g.curY = 0, 0
	}
}

func (g *Grid) applySGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			g.style = tcell.StyleDefault
		case p == 1:
			g.style = g.style.Bold(true)
		case p == 4:
			g.style = g.style.Underline(true)
		case p == 7:
			g.style = g.style.Reverse(true)
		case p == 22:
			g.style = g.style.Bold(false)
		case p == 24:
			g.style = g.style.Underline(false)
		case p == 27:
			g.style = g.style.Reverse(false)
		case p >= 30 && p <= 37:
			g.style = g.style.Foreground(tcell.PaletteColor(p - 30))
		case p == 39:
			g.style = g.style.Foreground(tcell.ColorDefault)
		case p >= 40 && p <= 47:
			g.style = g.style.Background(tcell.PaletteColor(p - 40))
		case p == 49:
			g.style = g.style.Background(tcell.ColorDefault)
		case p >= 90 && p <= 97:
			g.style = g.style.Foreground(tcell.PaletteColor(p - 90 + 8))
		case p >= 100 && p <= 107:
			g.style = g.style.Background(tcell.PaletteColor(p - 100 + 8))
		case p == 38 || p == 48:
			color, consumed := parseExtendedColor(params[i+1:])
			if consumed == 0 {
				return
			}
			if p == 38 {
				g.style = g.style.Foreground(color)
			} else {
				g.style = g.style.Background(color)
			}
			i += consumed
		}
	}
}

func parseExtendedColor(params []int) (tcell.Color, int) {
	if len(params) >= 2 && params[0] == 5 {
		return tcell.PaletteColor(clamp(params[1], 0, 255)), 2
	}
	if len(params) >= 4 && params[0] == 2 {
		return tcell.NewRGBColor(
			int32(clamp(params[1], 0, 255)),
			int32(clamp(params[2], 0, 255)),
			int32(clamp(params[3], 0, 255)),
		), 4
	}
	return tcell.ColorDefault, 0
}
