// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: overlay/scheduler.go
// Summary: Frame scheduler driving per-frame commits for the focus ruler.
// Usage: Started by the ruler on enable, stopped on disable.
// Notes: One-shot rearm gated by a run generation, so Stop() is final even
// with a callback already in flight when a new run has since started.

package overlay

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates a 60Hz display cadence.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler invokes a tick callback once per display frame. It is a
// two-state machine (stopped/running); Start while running and Stop while
// stopped are no-ops.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	running  bool
	gen      uint64
	timer    *time.Timer
	tick     func()
}

// NewScheduler creates a stopped scheduler. A non-positive interval falls
// back to DefaultFrameInterval.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Scheduler{interval: interval}
}

// Start begins invoking tick once per frame interval. Calling Start on a
// running scheduler does not double-schedule.
func (s *Scheduler) Start(tick func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.gen++
	s.tick = tick
	s.armLocked()
}

// Stop cancels the pending frame and any further rescheduling. Idempotent.
// Advancing the generation invalidates any callback already in flight, so a
// stale rearm cannot survive a stop/start flap and double the tick rate.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.tick = nil
}

// Running reports whether the scheduler is between Start and Stop.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) armLocked() {
	gen := s.gen
	s.timer = time.AfterFunc(s.interval, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	tick := s.tick
	s.armLocked()
	s.mu.Unlock()
	if tick != nil {
		tick()
	}
}
