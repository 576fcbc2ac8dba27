// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: compositor/input.go
// Summary: Translates tcell key events back into pty byte sequences.

package compositor

import (
	"github.com/gdamore/tcell/v2"
)

var specialKeys = map[tcell.Key][]byte{
	tcell.KeyEnter:      {'\r'},
	tcell.KeyTab:        {'\t'},
	tcell.KeyBackspace:  {0x7f},
	tcell.KeyBackspace2: {0x7f},
	tcell.KeyEscape:     {0x1b},
	tcell.KeyUp:         []byte("\x1b[A"),
	tcell.KeyDown:       []byte("\x1b[B"),
	tcell.KeyRight:      []byte("\x1b[C"),
	tcell.KeyLeft:       []byte("\x1b[D"),
	tcell.KeyHome:       []byte("\x1b[H"),
	tcell.KeyEnd:        []byte("\x1b[F"),
	tcell.KeyPgUp:       []byte("\x1b[5~"),
	tcell.KeyPgDn:       []byte("\x1b[6~"),
	tcell.KeyDelete:     []byte("\x1b[3~"),
	tcell.KeyInsert:     []byte("\x1b[2~"),
	tcell.KeyF1:         []byte("\x1bOP"),
	tcell.KeyF2:         []byte("\x1bOQ"),
	tcell.KeyF3:         []byte("\x1bOR"),
	tcell.KeyF4:         []byte("\x1bOS"),
}

// keyToBytes maps a key event onto the bytes the hosted program expects.
// Control characters arrive from tcell already folded into the Key value.
func keyToBytes(ev *tcell.EventKey) []byte {
	key := ev.Key()
	if seq, ok := specialKeys[key]; ok {
		if ev.Modifiers()&tcell.ModAlt != 0 {
			return append([]byte{0x1b}, seq...)
		}
		return seq
	}
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return []byte{byte(key)}
	}
	if key == tcell.KeyRune {
		out := []byte(string(ev.Rune()))
		if ev.Modifiers()&tcell.ModAlt != 0 {
			return append([]byte{0x1b}, out...)
		}
		return out
	}
	return nil
}
