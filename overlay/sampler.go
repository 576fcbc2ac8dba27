// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: overlay/sampler.go
// Summary: Pointer and resize sampling for the focus ruler.
// Usage: Attached to the compositor's event router while the ruler is enabled.
// Notes: Sampling is passive; the router delivers events at native rate and
// the sampler only records the latest value.

package overlay

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// EventHandler consumes a tcell event delivered by the Router. Handlers must
// not block; they run on the compositor's event path.
type EventHandler interface {
	HandleEvent(ev tcell.Event)
}

// Router fans screen events out to subscribed handlers. It exists so that
// components can attach and detach listeners without the compositor knowing
// about them, and so tests can assert that detach leaves nothing behind.
type Router struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]EventHandler
}

func NewRouter() *Router {
	return &Router{handlers: make(map[int]EventHandler)}
}

// Subscribe registers h and returns its subscription id.
func (r *Router) Subscribe(h EventHandler) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.handlers[r.nextID] = h
	return r.nextID
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (r *Router) Unsubscribe(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, id)
}

// Dispatch delivers ev to every subscribed handler.
func (r *Router) Dispatch(ev tcell.Event) {
	r.mu.Lock()
	handlers := make([]EventHandler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()
	for _, h := range handlers {
		h.HandleEvent(ev)
	}
}

// Len returns the number of live subscriptions.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}

// Sampler translates mouse motion and resize events into callbacks. Between
// Attach and Detach it holds one router subscription; outside that window it
// delivers nothing.
type Sampler struct {
	router *Router

	mu       sync.Mutex
	subID    int
	attached bool
	onSample func(y int)
	onResize func(w, h int)
}

func NewSampler(router *Router) *Sampler {
	return &Sampler{router: router}
}

// Attach subscribes to the router and starts forwarding samples. A second
// Attach replaces the callbacks without adding a subscription.
func (s *Sampler) Attach(onSample func(y int), onResize func(w, h int)) {
	s.mu.Lock()
	s.onSample = onSample
	s.onResize = onResize
	already := s.attached
	s.attached = true
	s.mu.Unlock()
	if !already {
		id := s.router.Subscribe(s)
		s.mu.Lock()
		s.subID = id
		s.mu.Unlock()
	}
}

// Detach drops the router subscription and clears both callbacks. Idempotent.
func (s *Sampler) Detach() {
	s.mu.Lock()
	id := s.subID
	attached := s.attached
	s.attached = false
	s.subID = 0
	s.onSample = nil
	s.onResize = nil
	s.mu.Unlock()
	if attached {
		s.router.Unsubscribe(id)
	}
}

// HandleEvent implements EventHandler. Only mouse motion and resize events
// are of interest; everything else passes through untouched.
func (s *Sampler) HandleEvent(ev tcell.Event) {
	s.mu.Lock()
	onSample := s.onSample
	onResize := s.onResize
	s.mu.Unlock()

	switch ev := ev.(type) {
	case *tcell.EventMouse:
		if onSample != nil {
			_, y := ev.Position()
			onSample(y)
		}
	case *tcell.EventResize:
		if onResize != nil {
			w, h := ev.Size()
			onResize(w, h)
		}
	}
}
