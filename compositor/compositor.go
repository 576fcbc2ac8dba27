// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: compositor/compositor.go
// Summary: Composites host content, effects, and the ruler mask to tcell.
// Usage: Owns the screen, the event fan-out, and the render loop.
// Notes: Layer order is fixed: host grid, then effects, then the mask. The
// mask always paints last, which is what keeps it out of reach of anything
// the hosted program emits.

package compositor

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/veilterm/veilterm/host"
	"github.com/veilterm/veilterm/internal/effects"
	"github.com/veilterm/veilterm/overlay"
	"github.com/veilterm/veilterm/screenbuf"
)

// Compositor drives the screen. Render requests are coalesced through a
// buffered channel; the loop drains it before painting so bursts collapse
// into one frame.
type Compositor struct {
	screen  tcell.Screen
	router  *overlay.Router
	effects *effects.Manager

	renderCh chan struct{}
	quit     chan struct{}
	quitOnce sync.Once

	mu   sync.Mutex
	sess *host.Session
	mask *maskLayer
}

func New(screen tcell.Screen, fx *effects.Manager) *Compositor {
	return &Compositor{
		screen:   screen,
		router:   overlay.NewRouter(),
		effects:  fx,
		renderCh: make(chan struct{}, 64),
		quit:     make(chan struct{}),
	}
}

// Router exposes the event fan-out used by the ruler's sampler.
func (c *Compositor) Router() *overlay.Router {
	return c.router
}

// SetSession attaches the hosted session whose grid is painted.
func (c *Compositor) SetSession(s *host.Session) {
	c.mu.Lock()
	c.sess = s
	c.mu.Unlock()
	c.RequestFrame()
}

// RequestFrame schedules a repaint. Non-blocking; a full channel means a
// paint is already pending.
func (c *Compositor) RequestFrame() {
	select {
	case c.renderCh <- struct{}{}:
	default:
	}
}

// Size returns the current screen dimensions.
func (c *Compositor) Size() (int, int) {
	return c.screen.Size()
}

// Stop ends the render loop. Idempotent.
func (c *Compositor) Stop() {
	c.quitOnce.Do(func() { close(c.quit) })
}

// maskLayer couples a mask surface to the compositor so Destroy also
// removes it from the pipeline.
type maskLayer struct {
	*overlay.MaskSurface
	owner *Compositor
}

func (m *maskLayer) Destroy() {
	m.MaskSurface.Destroy()
	m.owner.mu.Lock()
	if m.owner.mask == m {
		m.owner.mask = nil
	}
	m.owner.mu.Unlock()
}

// NewMaskLayer is the overlay.SurfaceFactory wired into the ruler. The
// returned surface replaces any previous mask in the pipeline.
func (c *Compositor) NewMaskLayer(thickness, intensity float64, w, h int) overlay.Surface {
	layer := &maskLayer{
		MaskSurface: overlay.NewMaskSurface(thickness, intensity, w, h),
		owner:       c,
	}
	c.mu.Lock()
	c.mask = layer
	c.mu.Unlock()
	return layer
}

// Run processes events and render requests until Stop is called or the
// event stream ends. Key input is forwarded to the hosted session; mouse
// and resize events fan out through the router.
func (c *Compositor) Run() {
	events := make(chan tcell.Event, 32)
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-c.quit:
				return
			}
		}
	}()

	c.render()
	for {
		select {
		case <-c.renderCh:
		drain:
			for {
				select {
				case <-c.renderCh:
				default:
					break drain
				}
			}
			c.render()
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ev)
		case <-c.quit:
			return
		}
	}
}

func (c *Compositor) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		c.mu.Lock()
		sess := c.sess
		c.mu.Unlock()
		if sess != nil {
			sess.Resize(w, h)
		}
		c.screen.Sync()
		c.router.Dispatch(ev)
		c.RequestFrame()
	case *tcell.EventMouse:
		c.router.Dispatch(ev)
	case *tcell.EventKey:
		c.mu.Lock()
		sess := c.sess
		c.mu.Unlock()
		if sess != nil {
			if data := keyToBytes(ev); len(data) > 0 {
				_, _ = sess.Write(data)
			}
		}
	}
}

// render builds the frame: host grid blitted into a screen-sized buffer,
// effects in registration order, then the mask.
func (c *Compositor) render() {
	w, h := c.screen.Size()
	buffer := screenbuf.NewBuffer(w, h, tcell.StyleDefault)

	c.mu.Lock()
	sess := c.sess
	mask := c.mask
	c.mu.Unlock()

	if sess != nil {
		screenbuf.Blit(buffer, 0, 0, sess.Grid().Snapshot())
	}
	c.effects.Apply(buffer)
	if mask != nil {
		mask.Apply(buffer)
	}

	for y, row := range buffer {
		for x := 0; x < len(row); x++ {
			cell := row[x]
			if cell.Width == 0 {
				continue
			}
			ch := cell.Ch
			if ch == 0 {
				ch = ' '
			}
			c.screen.SetContent(x, y, ch, nil, cell.Style)
		}
	}
	c.screen.Show()
}
