// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/dispatch.go
// Summary: Maps protocol commands onto the overlay controls and persistence.
// Usage: One dispatcher per running veilterm instance; commands are handled
// synchronously and acknowledged with the reply frame.

package session

import (
	"errors"
	"log"
	"sync"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/veilterm/veilterm/config"
	"github.com/veilterm/veilterm/internal/effects"
	"github.com/veilterm/veilterm/overlay"
	"github.com/veilterm/veilterm/protocol"
	"github.com/veilterm/veilterm/store"
)

// Error codes carried in MsgError replies.
const (
	ErrCodeBadPayload uint16 = iota + 1
	ErrCodeUnknownCommand
	ErrCodeProfile
)

// Dispatcher owns command handling. A mutex serializes commands so that, as
// with everything else in the overlay, at most one handler mutates state at
// any instant.
type Dispatcher struct {
	mu       sync.Mutex
	ctl      *overlay.Control
	tint     *effects.Tint
	dark     *effects.DarkMode
	vision   *effects.ColorVision
	profiles *store.Store

	requestFrame func()
}

// NewDispatcher wires the command surface. profiles and requestFrame may be
// nil; profile commands then answer with an error frame.
func NewDispatcher(ctl *overlay.Control, tint *effects.Tint, dark *effects.DarkMode, vision *effects.ColorVision, profiles *store.Store, requestFrame func()) *Dispatcher {
	return &Dispatcher{
		ctl:          ctl,
		tint:         tint,
		dark:         dark,
		vision:       vision,
		profiles:     profiles,
		requestFrame: requestFrame,
	}
}

// Handle processes one command frame and returns the reply frame.
func (d *Dispatcher) Handle(hdr protocol.Header, payload []byte) (protocol.MessageType, []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch hdr.Type {
	case protocol.MsgToggle:
		msg, err := protocol.DecodeToggle(payload)
		if err != nil {
			return errorReply(ErrCodeBadPayload, err)
		}
		var s overlay.Settings
		if msg.HasSettings {
			s = overlay.Settings{Thickness: &msg.Thickness, Intensity: &msg.Intensity}
		}
		d.ctl.Toggle(msg.Enabled, s)
		d.persistRuler()
		return protocol.MsgAck, nil

	case protocol.MsgUpdateSettings:
		msg, err := protocol.DecodeUpdateSettings(payload)
		if err != nil {
			return errorReply(ErrCodeBadPayload, err)
		}
		var s overlay.Settings
		if msg.HasThickness {
			s.Thickness = &msg.Thickness
		}
		if msg.HasIntensity {
			s.Intensity = &msg.Intensity
		}
		d.ctl.UpdateSettings(s)
		d.persistRuler()
		return protocol.MsgAck, nil

	case protocol.MsgGetState:
		st := d.ctl.State()
		return protocol.MsgStateReply, protocol.EncodeStateReply(protocol.StateReply{
			Enabled: st.Enabled,
			CursorY: int32(st.CursorY),
		})

	case protocol.MsgReapplyState:
		msg, err := protocol.DecodeReapplyState(payload)
		if err != nil {
			return errorReply(ErrCodeBadPayload, err)
		}
		d.applyReapplyLocked(msg)
		return protocol.MsgAck, nil

	case protocol.MsgSetTint:
		msg, err := protocol.DecodeSetTint(payload)
		if err != nil {
			return errorReply(ErrCodeBadPayload, err)
		}
		d.tint.Configure(ParseColor(msg.Color), msg.Intensity)
		d.tint.SetEnabled(msg.Enabled)
		cfg := config.Get()
		cfg.SetValue("tint", "enabled", msg.Enabled)
		cfg.SetValue("tint", "color", msg.Color)
		cfg.SetValue("tint", "intensity", msg.Intensity)
		d.persist()
		d.signalFrame()
		return protocol.MsgAck, nil

	case protocol.MsgSetDarkMode:
		msg, err := protocol.DecodeSetDarkMode(payload)
		if err != nil {
			return errorReply(ErrCodeBadPayload, err)
		}
		d.dark.SetEnabled(msg.Enabled)
		config.Get().SetValue("appearance", "dark_mode", msg.Enabled)
		d.persist()
		d.signalFrame()
		return protocol.MsgAck, nil

	case protocol.MsgSetVision:
		msg, err := protocol.DecodeSetVision(payload)
		if err != nil {
			return errorReply(ErrCodeBadPayload, err)
		}
		d.vision.SetMode(effects.ParseVisionMode(msg.Mode))
		config.Get().SetValue("appearance", "vision", msg.Mode)
		d.persist()
		d.signalFrame()
		return protocol.MsgAck, nil

	case protocol.MsgProfileSave:
		return d.handleProfileSave(payload)

	case protocol.MsgProfileLoad:
		return d.handleProfileLoad(payload)

	case protocol.MsgProfileList:
		if d.profiles == nil {
			return errorReply(ErrCodeProfile, errors.New("profile store unavailable"))
		}
		names, err := d.profiles.List()
		if err != nil {
			return errorReply(ErrCodeProfile, err)
		}
		reply, err := protocol.EncodeProfileListReply(protocol.ProfileListReply{Names: names})
		if err != nil {
			return errorReply(ErrCodeProfile, err)
		}
		return protocol.MsgProfileListReply, reply

	default:
		return errorReply(ErrCodeUnknownCommand, errors.New("unknown command"))
	}
}

func (d *Dispatcher) handleProfileSave(payload []byte) (protocol.MessageType, []byte) {
	if d.profiles == nil {
		return errorReply(ErrCodeProfile, errors.New("profile store unavailable"))
	}
	ref, err := protocol.DecodeProfileRef(payload)
	if err != nil {
		return errorReply(ErrCodeBadPayload, err)
	}
	if err := d.profiles.Save(ref.Name, config.Clone(config.Get())); err != nil {
		return errorReply(ErrCodeProfile, err)
	}
	return protocol.MsgAck, nil
}

func (d *Dispatcher) handleProfileLoad(payload []byte) (protocol.MessageType, []byte) {
	if d.profiles == nil {
		return errorReply(ErrCodeProfile, errors.New("profile store unavailable"))
	}
	ref, err := protocol.DecodeProfileRef(payload)
	if err != nil {
		return errorReply(ErrCodeBadPayload, err)
	}
	snapshot, err := d.profiles.Load(ref.Name)
	if err != nil {
		return errorReply(ErrCodeProfile, err)
	}
	config.Set(snapshot)
	d.persist()
	d.applyReapplyLocked(SnapshotFromConfig(config.Get()))
	return protocol.MsgAck, nil
}

// ReapplyFromConfig rebuilds live state from the persisted snapshot. Called
// once after the hosted session restarts, and when loading a profile.
func (d *Dispatcher) ReapplyFromConfig() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applyReapplyLocked(SnapshotFromConfig(config.Get()))
}

func (d *Dispatcher) applyReapplyLocked(r protocol.ReapplyState) {
	d.ctl.Reapply(overlay.PersistedConfig{
		Enabled:   r.RulerEnabled,
		Thickness: r.RulerThickness,
		Intensity: r.RulerIntensity,
	})
	d.tint.Configure(ParseColor(r.TintColor), r.TintIntensity)
	d.tint.SetEnabled(r.TintEnabled)
	d.dark.SetEnabled(r.DarkMode)
	d.vision.SetMode(effects.ParseVisionMode(r.Vision))
	d.signalFrame()
}

func (d *Dispatcher) persistRuler() {
	st := d.ctl.State()
	thickness, intensity := d.ctl.Config()
	cfg := config.Get()
	cfg.SetValue("ruler", "enabled", st.Enabled)
	cfg.SetValue("ruler", "thickness", thickness)
	cfg.SetValue("ruler", "intensity", intensity)
	d.persist()
}

func (d *Dispatcher) persist() {
	if err := config.Save(); err != nil {
		log.Printf("Session: Failed to persist settings: %v", err)
	}
}

func (d *Dispatcher) signalFrame() {
	if d.requestFrame != nil {
		d.requestFrame()
	}
}

func errorReply(code uint16, err error) (protocol.MessageType, []byte) {
	payload, encErr := protocol.EncodeErrorFrame(protocol.ErrorFrame{Code: code, Message: err.Error()})
	if encErr != nil {
		payload, _ = protocol.EncodeErrorFrame(protocol.ErrorFrame{Code: code})
	}
	return protocol.MsgError, payload
}

// SnapshotFromConfig projects the persisted configuration onto the wire
// snapshot shape.
func SnapshotFromConfig(cfg config.Config) protocol.ReapplyState {
	return protocol.ReapplyState{
		RulerEnabled:   cfg.GetBool("ruler", "enabled", false),
		RulerThickness: cfg.GetFloat("ruler", "thickness", overlay.DefaultThickness),
		RulerIntensity: cfg.GetFloat("ruler", "intensity", overlay.DefaultIntensity),
		TintEnabled:    cfg.GetBool("tint", "enabled", false),
		TintColor:      cfg.GetString("tint", "color", "#ffdc82"),
		TintIntensity:  cfg.GetFloat("tint", "intensity", 0.25),
		DarkMode:       cfg.GetBool("appearance", "dark_mode", false),
		Vision:         cfg.GetString("appearance", "vision", "none"),
	}
}

// ParseColor converts a "#rrggbb" string to a tcell color, falling back to
// a warm default when the string does not parse.
func ParseColor(s string) tcell.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return tcell.NewRGBColor(255, 220, 130)
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
