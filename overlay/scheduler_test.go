// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package overlay

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerStartStop(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler(2 * time.Millisecond)

	s.Start(func() { ticks.Add(1) })
	if !s.Running() {
		t.Fatalf("scheduler not running after Start")
	}
	time.Sleep(50 * time.Millisecond)
	if ticks.Load() == 0 {
		t.Fatalf("no ticks observed while running")
	}

	s.Stop()
	if s.Running() {
		t.Fatalf("scheduler still running after Stop")
	}
	settled := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if got := ticks.Load(); got != settled {
		t.Fatalf("ticks continued after Stop: %d -> %d", settled, got)
	}
}

func TestSchedulerStartWhileRunningIsNoOp(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler(time.Hour)

	s.Start(func() { ticks.Add(1) })
	s.Start(func() { t.Error("second Start replaced the tick callback") })
	s.Stop()
}

func TestSchedulerStopBeforeFirstTick(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler(10 * time.Millisecond)

	s.Start(func() { ticks.Add(1) })
	s.Stop()
	time.Sleep(30 * time.Millisecond)

	if got := ticks.Load(); got != 0 {
		t.Fatalf("tick fired after immediate Stop: %d", got)
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := NewScheduler(time.Hour)
	s.Stop()
	s.Start(func() {})
	s.Stop()
	s.Stop()
	if s.Running() {
		t.Fatalf("scheduler running after double Stop")
	}
}

func TestSchedulerStaleCallbackDoesNotRearm(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler(time.Hour)
	s.Start(func() { ticks.Add(1) })

	s.mu.Lock()
	stale := s.gen
	s.mu.Unlock()

	s.Stop()
	s.Start(func() { ticks.Add(1) })

	// A callback armed before the flap delivers its old generation; it must
	// neither tick nor start a second rearm chain.
	s.fire(stale)
	if got := ticks.Load(); got != 0 {
		t.Fatalf("stale callback ticked: %d", got)
	}
	s.Stop()
}

func TestSchedulerStopWithInflightCallbackThenStart(t *testing.T) {
	var ticks atomic.Int64
	interval := 4 * time.Millisecond
	s := NewScheduler(interval)
	s.Start(func() { ticks.Add(1) })

	// Hold the state lock so the armed callback fires and parks before it
	// can rearm, then flap stopped/running under the lock the way a
	// disable/enable pair can interleave with a frame already in flight.
	s.mu.Lock()
	time.Sleep(3 * interval)
	s.running = false
	s.gen++
	s.timer.Stop()
	s.timer = nil
	s.tick = nil
	s.running = true
	s.gen++
	s.tick = func() { ticks.Add(1) }
	s.armLocked()
	s.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	s.Stop()
	settled := ticks.Load()

	if settled == 0 {
		t.Fatalf("no ticks after restart")
	}
	// A stale chain surviving the flap would roughly double the rate.
	limit := int64(50/4) + 5
	if settled > limit {
		t.Fatalf("tick rate doubled after flap: %d ticks in 50ms at interval %v", settled, interval)
	}
}

func TestSchedulerRestart(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler(2 * time.Millisecond)

	s.Start(func() { ticks.Add(1) })
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	first := ticks.Load()

	s.Start(func() { ticks.Add(1) })
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	if got := ticks.Load(); got <= first {
		t.Fatalf("no ticks after restart: %d then %d", first, got)
	}
}
