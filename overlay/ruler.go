// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: overlay/ruler.go
// Summary: Lifecycle controller owning the focus ruler's state machine.
// Usage: One instance per hosted session; commands reach it through Control.
// Notes: Exclusive owner of the mask surface and the pending sample slot.
// The surface exists exactly while the ruler is enabled.

package overlay

import (
	"sync"
	"time"
)

// Defaults mirror the persisted configuration schema.
const (
	DefaultThickness = 40.0
	DefaultIntensity = 0.75
)

// Settings carries a sparse parameter update; nil fields are left untouched.
type Settings struct {
	Thickness *float64
	Intensity *float64
}

// State is a read-only snapshot for external queries.
type State struct {
	Enabled bool
	CursorY int
}

// SurfaceFactory creates the mask layer when the ruler is enabled. The
// compositor supplies a factory that registers the layer in its pipeline.
type SurfaceFactory func(thickness, intensity float64, w, h int) Surface

// Ruler wires the sampler, the scheduler, and the mask surface together. All
// state lives here; the other components only see the latest values pushed
// into them.
type Ruler struct {
	mu sync.Mutex

	enabled   bool
	thickness float64
	intensity float64
	cursorY   int
	pendingY  *int
	viewW     int
	viewH     int
	seeded    bool

	surface Surface
	sampler *Sampler
	sched   *Scheduler

	newSurface   SurfaceFactory
	requestFrame func()
}

// NewRuler creates a disabled ruler. requestFrame signals the compositor
// that the next paint should happen; it may be nil in tests.
func NewRuler(router *Router, newSurface SurfaceFactory, frameInterval time.Duration, requestFrame func()) *Ruler {
	r := &Ruler{
		thickness:    DefaultThickness,
		intensity:    DefaultIntensity,
		newSurface:   newSurface,
		requestFrame: requestFrame,
		sched:        NewScheduler(frameInterval),
	}
	r.sampler = NewSampler(router)
	return r
}

// SetViewport records the rendering area. Called by the compositor at
// startup and forwarded from resize events while enabled.
func (r *Ruler) SetViewport(w, h int) {
	r.mu.Lock()
	r.viewW = w
	r.viewH = h
	if r.surface != nil {
		r.surface.SetViewport(w, h)
	}
	r.mu.Unlock()
}

// Enable activates the ruler. When already enabled it degrades to a settings
// update; nothing is recreated. On the transition from disabled it creates
// the surface, attaches the sampler, and starts the frame scheduler, in that
// order.
func (r *Ruler) Enable(s Settings) {
	r.mu.Lock()
	r.mergeLocked(s)
	if r.enabled {
		r.applyToSurfaceLocked()
		r.mu.Unlock()
		r.signalFrame()
		return
	}
	if !r.seeded {
		r.cursorY = r.viewH / 2
		r.seeded = true
	}
	r.surface = r.newSurface(r.thickness, r.intensity, r.viewW, r.viewH)
	r.surface.SetCursorY(r.cursorY)
	r.enabled = true
	r.mu.Unlock()

	r.sampler.Attach(r.onSample, r.onResize)
	r.sched.Start(r.tick)
	r.signalFrame()
}

// Disable tears everything down: scheduler stopped, sampler detached,
// surface destroyed. Idempotent. After Disable returns no further tick is
// processed and no sample is recorded.
func (r *Ruler) Disable() {
	r.mu.Lock()
	if !r.enabled {
		r.mu.Unlock()
		return
	}
	r.enabled = false
	surface := r.surface
	r.surface = nil
	r.pendingY = nil
	r.mu.Unlock()

	r.sched.Stop()
	r.sampler.Detach()
	surface.Destroy()
	r.signalFrame()
}

// UpdateSettings merges the provided fields into the ruler's state. Live
// when enabled, staged for the next enable otherwise.
func (r *Ruler) UpdateSettings(s Settings) {
	r.mu.Lock()
	r.mergeLocked(s)
	live := r.enabled
	r.applyToSurfaceLocked()
	r.mu.Unlock()
	if live {
		r.signalFrame()
	}
}

// State returns the externally visible snapshot.
func (r *Ruler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return State{Enabled: r.enabled, CursorY: r.cursorY}
}

// Config returns the current parameters, enabled or not. Used when
// persisting settings.
func (r *Ruler) Config() (thickness, intensity float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.thickness, r.intensity
}

func (r *Ruler) mergeLocked(s Settings) {
	if s.Thickness != nil {
		r.thickness = *s.Thickness
	}
	if s.Intensity != nil {
		r.intensity = *s.Intensity
	}
}

func (r *Ruler) applyToSurfaceLocked() {
	if r.surface == nil {
		return
	}
	r.surface.SetThickness(r.thickness)
	r.surface.SetIntensity(r.intensity)
}

// onSample overwrites the pending slot. Deliberately lossy: only the latest
// position before the next tick matters, so there is no queue to drain.
func (r *Ruler) onSample(y int) {
	r.mu.Lock()
	if r.enabled {
		v := y
		r.pendingY = &v
	}
	r.mu.Unlock()
}

func (r *Ruler) onResize(w, h int) {
	r.mu.Lock()
	r.viewW = w
	r.viewH = h
	if r.surface != nil {
		r.surface.SetViewport(w, h)
	}
	live := r.enabled
	r.mu.Unlock()
	if live {
		r.signalFrame()
	}
}

// tick commits the pending sample, if any, and clears it in the same
// critical section, so a non-nil pending value is always strictly newer than
// the committed cursor position.
func (r *Ruler) tick() {
	r.mu.Lock()
	if !r.enabled || r.pendingY == nil {
		r.mu.Unlock()
		return
	}
	r.cursorY = *r.pendingY
	r.pendingY = nil
	if r.surface != nil {
		r.surface.SetCursorY(r.cursorY)
	}
	r.mu.Unlock()
	r.signalFrame()
}

func (r *Ruler) signalFrame() {
	if r.requestFrame != nil {
		r.requestFrame()
	}
}
