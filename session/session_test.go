// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/session_test.go
// Summary: End-to-end command relay tests over a real Unix socket.

package session

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/veilterm/veilterm/config"
	"github.com/veilterm/veilterm/internal/effects"
	"github.com/veilterm/veilterm/overlay"
	"github.com/veilterm/veilterm/protocol"
	"github.com/veilterm/veilterm/store"
)

type nullSurface struct{}

func (nullSurface) SetCursorY(int)       {}
func (nullSurface) SetThickness(float64) {}
func (nullSurface) SetIntensity(float64) {}
func (nullSurface) SetViewport(int, int) {}
func (nullSurface) Destroy()             {}

type testEnv struct {
	dispatcher *Dispatcher
	server     *Server
	socket     string
	frames     *atomic.Int64
	vision     *effects.ColorVision
	tint       *effects.Tint
	profiles   *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Configuration is process-global; point it at scratch space before
	// anything touches it.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var frames atomic.Int64
	router := overlay.NewRouter()
	factory := func(thickness, intensity float64, w, h int) overlay.Surface {
		return nullSurface{}
	}
	ruler := overlay.NewRuler(router, factory, time.Hour, func() { frames.Add(1) })
	ruler.SetViewport(80, 24)
	ctl := overlay.NewControl(ruler)

	tint := effects.NewTint(tcell.NewRGBColor(255, 220, 130), 0.25)
	dark := effects.NewDarkMode()
	vision := effects.NewColorVision()

	dir := t.TempDir()
	profiles, err := store.Open(filepath.Join(dir, "profiles.db"))
	if err != nil {
		t.Fatalf("open profile store: %v", err)
	}
	t.Cleanup(func() { profiles.Close() })

	dispatcher := NewDispatcher(ctl, tint, dark, vision, profiles, func() { frames.Add(1) })

	socket := filepath.Join(dir, "veilterm.sock")
	srv := NewServer(socket, dispatcher)
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	return &testEnv{
		dispatcher: dispatcher,
		server:     srv,
		socket:     socket,
		frames:     &frames,
		vision:     vision,
		tint:       tint,
		profiles:   profiles,
	}
}

func mustAck(t *testing.T, env *testEnv, msgType protocol.MessageType, payload []byte) {
	t.Helper()
	replyType, _, err := Request(env.socket, msgType, payload)
	if err != nil {
		t.Fatalf("request type %d: %v", msgType, err)
	}
	if replyType != protocol.MsgAck {
		t.Fatalf("expected ack, got reply type %d", replyType)
	}
}

func queryState(t *testing.T, env *testEnv) protocol.StateReply {
	t.Helper()
	replyType, payload, err := Request(env.socket, protocol.MsgGetState, nil)
	if err != nil {
		t.Fatalf("state query: %v", err)
	}
	if replyType != protocol.MsgStateReply {
		t.Fatalf("expected state reply, got type %d", replyType)
	}
	st, err := protocol.DecodeStateReply(payload)
	if err != nil {
		t.Fatalf("decode state reply: %v", err)
	}
	return st
}

func TestToggleOverSocket(t *testing.T) {
	env := newTestEnv(t)

	thickness, intensity := 60.0, 0.5
	mustAck(t, env, protocol.MsgToggle, protocol.EncodeToggle(protocol.Toggle{
		Enabled:     true,
		HasSettings: true,
		Thickness:   thickness,
		Intensity:   intensity,
	}))

	st := queryState(t, env)
	if !st.Enabled {
		t.Fatal("ruler should be enabled after toggle")
	}
	if st.CursorY != 12 {
		t.Fatalf("cursor should seed to viewport center, got %d", st.CursorY)
	}

	mustAck(t, env, protocol.MsgToggle, protocol.EncodeToggle(protocol.Toggle{Enabled: false}))
	if st := queryState(t, env); st.Enabled {
		t.Fatal("ruler should be disabled after second toggle")
	}
}

func TestUpdateSettingsPersists(t *testing.T) {
	env := newTestEnv(t)

	mustAck(t, env, protocol.MsgUpdateSettings, protocol.EncodeUpdateSettings(protocol.UpdateSettings{
		HasIntensity: true,
		Intensity:    0.9,
	}))

	cfg := config.Get()
	if got := cfg.GetFloat("ruler", "intensity", -1); got != 0.9 {
		t.Fatalf("intensity not persisted, got %v", got)
	}
	if got := cfg.GetFloat("ruler", "thickness", -1); got != overlay.DefaultThickness {
		t.Fatalf("thickness should stay at default, got %v", got)
	}
}

func TestSetVisionOverSocket(t *testing.T) {
	env := newTestEnv(t)

	payload, err := protocol.EncodeSetVision(protocol.SetVision{Mode: "protanopia"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	mustAck(t, env, protocol.MsgSetVision, payload)

	if env.vision.Mode() != effects.VisionProtanopia {
		t.Fatalf("vision mode not applied, got %v", env.vision.Mode())
	}
	if got := config.Get().GetString("appearance", "vision", ""); got != "protanopia" {
		t.Fatalf("vision mode not persisted, got %q", got)
	}
}

func TestSetTintOverSocket(t *testing.T) {
	env := newTestEnv(t)

	payload, err := protocol.EncodeSetTint(protocol.SetTint{
		Enabled:   true,
		Color:     "#ff0000",
		Intensity: 0.4,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	mustAck(t, env, protocol.MsgSetTint, payload)

	if !env.tint.Enabled() {
		t.Fatal("tint should be enabled")
	}
	color, intensity := env.tint.Params()
	if color != tcell.NewRGBColor(255, 0, 0) {
		t.Fatalf("tint color mismatch: %v", color)
	}
	if intensity != 0.4 {
		t.Fatalf("tint intensity mismatch: %v", intensity)
	}
}

func TestMalformedPayloadAnswersError(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := Request(env.socket, protocol.MsgToggle, []byte{1})
	if err == nil {
		t.Fatal("truncated toggle payload should produce an error reply")
	}

	// The connection and server survive a bad command.
	if st := queryState(t, env); st.Enabled {
		t.Fatal("bad command must not mutate state")
	}
}

func TestUnknownCommandAnswersError(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := Request(env.socket, protocol.MessageType(250), nil)
	if err == nil {
		t.Fatal("unknown command should produce an error reply")
	}
}

func TestProfileRoundTripOverSocket(t *testing.T) {
	env := newTestEnv(t)

	mustAck(t, env, protocol.MsgToggle, protocol.EncodeToggle(protocol.Toggle{
		Enabled:     true,
		HasSettings: true,
		Thickness:   72,
		Intensity:   0.33,
	}))

	ref, err := protocol.EncodeProfileRef(protocol.ProfileRef{Name: "reading"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	mustAck(t, env, protocol.MsgProfileSave, ref)

	replyType, payload, err := Request(env.socket, protocol.MsgProfileList, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if replyType != protocol.MsgProfileListReply {
		t.Fatalf("expected list reply, got type %d", replyType)
	}
	list, err := protocol.DecodeProfileListReply(payload)
	if err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Names) != 1 || list.Names[0] != "reading" {
		t.Fatalf("unexpected profile list: %v", list.Names)
	}

	// Change state, then load the profile back and expect the saved shape.
	mustAck(t, env, protocol.MsgToggle, protocol.EncodeToggle(protocol.Toggle{Enabled: false}))
	mustAck(t, env, protocol.MsgProfileLoad, ref)

	if st := queryState(t, env); !st.Enabled {
		t.Fatal("loading the profile should re-enable the ruler")
	}
	cfg := config.Get()
	if got := cfg.GetFloat("ruler", "thickness", -1); got != 72 {
		t.Fatalf("profile thickness not restored, got %v", got)
	}
}

func TestServerStopIsIdempotentAndQuiesces(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := env.server.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := env.server.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	// Once the socket is down, no command can mutate overlay state, so the
	// shutdown path can quiesce the server before tearing down the ruler.
	if _, _, err := Request(env.socket, protocol.MsgToggle,
		protocol.EncodeToggle(protocol.Toggle{Enabled: true})); err == nil {
		t.Fatal("command succeeded after server stop")
	}
}

func TestReapplyFromConfig(t *testing.T) {
	env := newTestEnv(t)

	cfg := config.Get()
	cfg.SetValue("ruler", "enabled", true)
	cfg.SetValue("ruler", "thickness", 50.0)
	cfg.SetValue("ruler", "intensity", 0.6)
	cfg.SetValue("appearance", "dark_mode", true)

	env.dispatcher.ReapplyFromConfig()

	if st := queryState(t, env); !st.Enabled {
		t.Fatal("reapply should enable the ruler from persisted state")
	}
	if env.frames.Load() == 0 {
		t.Fatal("reapply should request a frame")
	}
}

func TestSnapshotFromConfigDefaults(t *testing.T) {
	snap := SnapshotFromConfig(config.Config{})
	if snap.RulerThickness != overlay.DefaultThickness {
		t.Fatalf("thickness default mismatch: %v", snap.RulerThickness)
	}
	if snap.Vision != "none" {
		t.Fatalf("vision default mismatch: %q", snap.Vision)
	}
}

func TestParseColorFallback(t *testing.T) {
	if got := ParseColor("#00ff00"); got != tcell.NewRGBColor(0, 255, 0) {
		t.Fatalf("hex parse mismatch: %v", got)
	}
	fallback := ParseColor("not-a-color")
	if fallback != tcell.NewRGBColor(255, 220, 130) {
		t.Fatalf("fallback mismatch: %v", fallback)
	}
}
