// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: host/session.go
// Summary: Runs the hosted command under a pty and feeds its output grid.
// Usage: One session per hosted program run; a restart creates a new session
// and the caller reapplies persisted overlay state.

package host

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/creack/pty"
)

// Session is one run of the hosted command. The session ends when the
// command exits; the overlay treats a restart as a fresh context.
type Session struct {
	cmd  *exec.Cmd
	ptmx *os.File
	grid *Grid

	notify func()

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Start launches command under a pty sized w×h. notify is called after
// every chunk of parsed output and may be nil.
func Start(command []string, w, h int, notify func()) (*Session, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("host: command is required")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLUMNS="+strconv.Itoa(w),
		"LINES="+strconv.Itoa(h),
	)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(w), Rows: uint16(h)})
	if err != nil {
		return nil, fmt.Errorf("host: start %q: %w", command[0], err)
	}

	s := &Session{
		cmd:    cmd,
		ptmx:   ptmx,
		grid:   NewGrid(w, h),
		notify: notify,
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (s *Session) readLoop() {
	defer close(s.done)
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.grid.Feed(buf[:n])
			if s.notify != nil {
				s.notify()
			}
		}
		if err != nil {
			return
		}
	}
}

// Grid returns the session's output grid.
func (s *Session) Grid() *Grid {
	return s.grid
}

// Done is closed when the hosted command's output stream ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Resize propagates a new size to the pty and the grid.
func (s *Session) Resize(w, h int) {
	s.grid.Resize(w, h)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if err := pty.Setsize(s.ptmx, &pty.Winsize{Cols: uint16(w), Rows: uint16(h)}); err != nil {
		log.Printf("Host: resize failed: %v", err)
	}
}

// Write forwards input bytes to the hosted command.
func (s *Session) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("host: session closed")
	}
	return s.ptmx.Write(p)
}

// Close tears the pty down and reaps the command. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.ptmx.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
}
