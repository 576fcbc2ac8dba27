// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/veilctl/main.go
// Summary: Command-line control for a running veilterm instance.
// Usage: `veilctl [-socket path] <command> [args]`; run without arguments
// for the command list.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/veilterm/veilterm/protocol"
	"github.com/veilterm/veilterm/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: veilctl [-socket path] <command> [args]

Commands:
  toggle on|off [-thickness N] [-intensity V]   Enable or disable the focus ruler
  ruler [-thickness N] [-intensity V]           Update ruler settings live
  state                                         Print the current ruler state
  tint on|off [-color #rrggbb] [-intensity V]   Configure the screen tint
  dark on|off                                   Toggle dark mode
  vision none|protanopia|deuteranopia|tritanopia
                                                Select color-vision simulation
  profile save|load <name>                      Save or load a settings profile
  profile list                                  List stored profiles`)
}

func run() error {
	socket := flag.String("socket", defaultSocket(), "Unix socket of the running veilterm")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "toggle":
		return cmdToggle(*socket, args[1:])
	case "ruler":
		return cmdRuler(*socket, args[1:])
	case "state":
		return cmdState(*socket)
	case "tint":
		return cmdTint(*socket, args[1:])
	case "dark":
		return cmdDark(*socket, args[1:])
	case "vision":
		return cmdVision(*socket, args[1:])
	case "profile":
		return cmdProfile(*socket, args[1:])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func cmdToggle(socket string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("toggle requires on or off")
	}
	enabled, err := parseOnOff(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("toggle", flag.ContinueOnError)
	thickness := fs.Float64("thickness", 0, "Clear strip height in rows")
	intensity := fs.Float64("intensity", 0, "Dimming strength, 0 to 1")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	msg := protocol.Toggle{Enabled: enabled}
	if flagSet(fs, "thickness") || flagSet(fs, "intensity") {
		if !flagSet(fs, "thickness") || !flagSet(fs, "intensity") {
			return fmt.Errorf("toggle with settings requires both -thickness and -intensity")
		}
		msg.HasSettings = true
		msg.Thickness = *thickness
		msg.Intensity = *intensity
	}
	_, _, err = session.Request(socket, protocol.MsgToggle, protocol.EncodeToggle(msg))
	return err
}

func cmdRuler(socket string, args []string) error {
	fs := flag.NewFlagSet("ruler", flag.ContinueOnError)
	thickness := fs.Float64("thickness", 0, "Clear strip height in rows")
	intensity := fs.Float64("intensity", 0, "Dimming strength, 0 to 1")
	if err := fs.Parse(args); err != nil {
		return err
	}

	msg := protocol.UpdateSettings{}
	if flagSet(fs, "thickness") {
		msg.HasThickness = true
		msg.Thickness = *thickness
	}
	if flagSet(fs, "intensity") {
		msg.HasIntensity = true
		msg.Intensity = *intensity
	}
	if !msg.HasThickness && !msg.HasIntensity {
		return fmt.Errorf("ruler requires -thickness or -intensity")
	}
	_, _, err := session.Request(socket, protocol.MsgUpdateSettings, protocol.EncodeUpdateSettings(msg))
	return err
}

func cmdState(socket string) error {
	replyType, payload, err := session.Request(socket, protocol.MsgGetState, nil)
	if err != nil {
		return err
	}
	if replyType != protocol.MsgStateReply {
		return fmt.Errorf("unexpected reply type %d", replyType)
	}
	st, err := protocol.DecodeStateReply(payload)
	if err != nil {
		return err
	}
	state := "disabled"
	if st.Enabled {
		state = "enabled"
	}
	fmt.Printf("ruler: %s, cursor row %d\n", state, st.CursorY)
	return nil
}

func cmdTint(socket string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("tint requires on or off")
	}
	enabled, err := parseOnOff(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("tint", flag.ContinueOnError)
	color := fs.String("color", "#ffdc82", "Tint color as #rrggbb")
	intensity := fs.Float64("intensity", 0.25, "Blend strength, 0 to 1")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	payload, err := protocol.EncodeSetTint(protocol.SetTint{
		Enabled:   enabled,
		Color:     *color,
		Intensity: *intensity,
	})
	if err != nil {
		return err
	}
	_, _, err = session.Request(socket, protocol.MsgSetTint, payload)
	return err
}

func cmdDark(socket string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("dark requires on or off")
	}
	enabled, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	_, _, err = session.Request(socket, protocol.MsgSetDarkMode,
		protocol.EncodeSetDarkMode(protocol.SetDarkMode{Enabled: enabled}))
	return err
}

func cmdVision(socket string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("vision requires a mode")
	}
	switch args[0] {
	case "none", "protanopia", "deuteranopia", "tritanopia":
	default:
		return fmt.Errorf("unknown vision mode %q", args[0])
	}
	payload, err := protocol.EncodeSetVision(protocol.SetVision{Mode: args[0]})
	if err != nil {
		return err
	}
	_, _, err = session.Request(socket, protocol.MsgSetVision, payload)
	return err
}

func cmdProfile(socket string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("profile requires save, load or list")
	}
	switch args[0] {
	case "list":
		replyType, payload, err := session.Request(socket, protocol.MsgProfileList, nil)
		if err != nil {
			return err
		}
		if replyType != protocol.MsgProfileListReply {
			return fmt.Errorf("unexpected reply type %d", replyType)
		}
		list, err := protocol.DecodeProfileListReply(payload)
		if err != nil {
			return err
		}
		for _, name := range list.Names {
			fmt.Println(name)
		}
		return nil
	case "save", "load":
		if len(args) < 2 {
			return fmt.Errorf("profile %s requires a name", args[0])
		}
		payload, err := protocol.EncodeProfileRef(protocol.ProfileRef{Name: args[1]})
		if err != nil {
			return err
		}
		msgType := protocol.MsgProfileSave
		if args[0] == "load" {
			msgType = protocol.MsgProfileLoad
		}
		_, _, err = session.Request(socket, msgType, payload)
		return err
	default:
		return fmt.Errorf("unknown profile command %q", args[0])
	}
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func defaultSocket() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("veilterm-%d.sock", os.Getuid()))
}
