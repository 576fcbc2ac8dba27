// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package overlay

import (
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

// recordingSurface captures every parameter push so tests can assert what
// the render layer actually observed.
type recordingSurface struct {
	mu        sync.Mutex
	cursorYs  []int
	thickness float64
	intensity float64
	width     int
	height    int
	destroyed bool
}

func (s *recordingSurface) SetCursorY(y int) {
	s.mu.Lock()
	s.cursorYs = append(s.cursorYs, y)
	s.mu.Unlock()
}

func (s *recordingSurface) SetThickness(px float64) {
	s.mu.Lock()
	s.thickness = px
	s.mu.Unlock()
}

func (s *recordingSurface) SetIntensity(v float64) {
	s.mu.Lock()
	s.intensity = v
	s.mu.Unlock()
}

func (s *recordingSurface) SetViewport(w, h int) {
	s.mu.Lock()
	s.width = w
	s.height = h
	s.mu.Unlock()
}

func (s *recordingSurface) Destroy() {
	s.mu.Lock()
	s.destroyed = true
	s.mu.Unlock()
}

func (s *recordingSurface) commits() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.cursorYs))
	copy(out, s.cursorYs)
	return out
}

type fixture struct {
	router  *Router
	ruler   *Ruler
	surface *recordingSurface
	created int
}

// newFixture builds a ruler with a recording surface and a scheduler that
// never self-fires, so tests drive ticks by hand.
func newFixture(t *testing.T, viewW, viewH int) *fixture {
	t.Helper()
	f := &fixture{router: NewRouter()}
	factory := func(thickness, intensity float64, w, h int) Surface {
		f.created++
		f.surface = &recordingSurface{thickness: thickness, intensity: intensity, width: w, height: h}
		return f.surface
	}
	f.ruler = NewRuler(f.router, factory, time.Hour, nil)
	f.ruler.SetViewport(viewW, viewH)
	return f
}

func fptr(v float64) *float64 { return &v }

func (f *fixture) moveMouse(y int) {
	f.router.Dispatch(tcell.NewEventMouse(10, y, tcell.ButtonNone, 0))
}

func TestEnableIsIdempotent(t *testing.T) {
	f := newFixture(t, 100, 50)
	settings := Settings{Thickness: fptr(40), Intensity: fptr(0.75)}

	f.ruler.Enable(settings)
	f.ruler.Enable(settings)

	if f.created != 1 {
		t.Fatalf("expected one surface creation, got %d", f.created)
	}
	if st := f.ruler.State(); !st.Enabled {
		t.Fatalf("expected enabled state, got %+v", st)
	}
	if f.surface.thickness != 40 || f.surface.intensity != 0.75 {
		t.Fatalf("surface parameters drifted: %v/%v", f.surface.thickness, f.surface.intensity)
	}
}

func TestDisableWhileDisabledIsNoOp(t *testing.T) {
	f := newFixture(t, 100, 50)

	f.ruler.Disable()

	if f.created != 0 {
		t.Fatalf("disable created a surface")
	}
	if st := f.ruler.State(); st.Enabled {
		t.Fatalf("expected disabled state, got %+v", st)
	}
}

func TestNoLeakedListenersAfterDisable(t *testing.T) {
	f := newFixture(t, 100, 50)
	baseline := f.router.Len()

	for i := 0; i < 5; i++ {
		f.ruler.Enable(Settings{})
		if got := f.router.Len(); got != baseline+1 {
			t.Fatalf("cycle %d: expected %d listeners while enabled, got %d", i, baseline+1, got)
		}
		f.ruler.Disable()
		if got := f.router.Len(); got != baseline {
			t.Fatalf("cycle %d: expected listener count back at %d, got %d", i, baseline, got)
		}
		if f.ruler.sched.Running() {
			t.Fatalf("cycle %d: scheduler still running after disable", i)
		}
		if !f.surface.destroyed {
			t.Fatalf("cycle %d: surface not destroyed", i)
		}
	}
}

func TestLastSampleWins(t *testing.T) {
	f := newFixture(t, 100, 50)
	f.ruler.Enable(Settings{})
	before := len(f.surface.commits())

	f.moveMouse(7)
	f.moveMouse(18)
	f.moveMouse(33)
	f.ruler.tick()

	commits := f.surface.commits()[before:]
	if len(commits) != 1 || commits[0] != 33 {
		t.Fatalf("expected exactly one commit of 33, got %v", commits)
	}
	if st := f.ruler.State(); st.CursorY != 33 {
		t.Fatalf("expected cursorY 33, got %d", st.CursorY)
	}
}

func TestFrameRateDecoupling(t *testing.T) {
	f := newFixture(t, 100, 50)
	f.ruler.Enable(Settings{})
	before := len(f.surface.commits())

	for y := 0; y < 1000; y++ {
		f.moveMouse(y)
	}
	f.ruler.tick()

	commits := f.surface.commits()[before:]
	if len(commits) != 1 {
		t.Fatalf("expected one commit for 1000 samples, got %d", len(commits))
	}
	if commits[0] != 999 {
		t.Fatalf("expected latest sample 999, got %d", commits[0])
	}
}

func TestTickWithoutPendingDoesNothing(t *testing.T) {
	f := newFixture(t, 100, 50)
	f.ruler.Enable(Settings{})
	before := len(f.surface.commits())

	f.ruler.tick()
	f.ruler.tick()

	if got := len(f.surface.commits()); got != before {
		t.Fatalf("ticks without pending samples committed %d times", got-before)
	}
}

func TestSettingsMerge(t *testing.T) {
	f := newFixture(t, 100, 50)
	f.ruler.Enable(Settings{Thickness: fptr(40), Intensity: fptr(0.75)})

	f.ruler.UpdateSettings(Settings{Intensity: fptr(0.5)})

	if f.surface.thickness != 40 {
		t.Fatalf("thickness changed to %v on sparse update", f.surface.thickness)
	}
	if f.surface.intensity != 0.5 {
		t.Fatalf("expected intensity 0.5, got %v", f.surface.intensity)
	}
}

func TestSettingsStagedWhileDisabled(t *testing.T) {
	f := newFixture(t, 100, 50)

	f.ruler.UpdateSettings(Settings{Thickness: fptr(12)})
	f.ruler.Enable(Settings{})

	if f.surface.thickness != 12 {
		t.Fatalf("staged thickness lost: got %v", f.surface.thickness)
	}
}

func TestReapplyFromPersistedSnapshot(t *testing.T) {
	f := newFixture(t, 100, 50)
	ctl := NewControl(f.ruler)

	ctl.Reapply(PersistedConfig{Enabled: true, Thickness: 60, Intensity: 0.3})

	if st := ctl.State(); !st.Enabled {
		t.Fatalf("expected enabled after reapply, got %+v", st)
	}
	if f.surface == nil || f.surface.thickness != 60 || f.surface.intensity != 0.3 {
		t.Fatalf("surface not configured from snapshot: %+v", f.surface)
	}

	ctl.Reapply(PersistedConfig{Enabled: false, Thickness: 60, Intensity: 0.3})
	if st := ctl.State(); st.Enabled {
		t.Fatalf("expected disabled after reapply, got %+v", st)
	}
	if !f.surface.destroyed {
		t.Fatalf("surface survived a disabling reapply")
	}
}

func TestEnableMoveDisableScenario(t *testing.T) {
	f := newFixture(t, 640, 800)
	ctl := NewControl(f.ruler)

	ctl.Toggle(true, Settings{Thickness: fptr(40), Intensity: fptr(0.75)})
	if f.surface == nil {
		t.Fatalf("surface not created on toggle")
	}
	if st := ctl.State(); st.CursorY != 400 {
		t.Fatalf("expected cursorY seeded to 400, got %d", st.CursorY)
	}

	f.moveMouse(120)
	f.ruler.tick()
	if st := ctl.State(); st.CursorY != 120 {
		t.Fatalf("expected cursorY 120 after tick, got %d", st.CursorY)
	}

	ctl.Toggle(false, Settings{})
	if !f.surface.destroyed {
		t.Fatalf("surface not destroyed on disable")
	}
	if st := ctl.State(); st.Enabled {
		t.Fatalf("expected disabled state, got %+v", st)
	}
}

func TestCursorRetainedAcrossCycles(t *testing.T) {
	f := newFixture(t, 100, 50)
	f.ruler.Enable(Settings{})
	f.moveMouse(9)
	f.ruler.tick()
	f.ruler.Disable()

	f.ruler.Enable(Settings{})

	if st := f.ruler.State(); st.CursorY != 9 {
		t.Fatalf("expected cursorY retained at 9, got %d", st.CursorY)
	}
}

func TestSamplesIgnoredAfterDisable(t *testing.T) {
	f := newFixture(t, 100, 50)
	f.ruler.Enable(Settings{})
	f.ruler.Disable()
	before := len(f.surface.commits())

	f.moveMouse(42)
	f.ruler.tick()

	if got := len(f.surface.commits()); got != before {
		t.Fatalf("sample processed after disable")
	}
}

func TestResizeUpdatesViewport(t *testing.T) {
	f := newFixture(t, 100, 50)
	f.ruler.Enable(Settings{})

	f.router.Dispatch(tcell.NewEventResize(120, 80))

	if f.surface.width != 120 || f.surface.height != 80 {
		t.Fatalf("viewport not propagated: %dx%d", f.surface.width, f.surface.height)
	}
}
