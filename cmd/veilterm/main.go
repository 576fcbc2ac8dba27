// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/veilterm/main.go
// Summary: Hosts a terminal program and composites accessibility aids over it.
// Usage: Run `veilterm [flags] [command args...]`; defaults to $SHELL.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/veilterm/veilterm/compositor"
	"github.com/veilterm/veilterm/config"
	"github.com/veilterm/veilterm/host"
	"github.com/veilterm/veilterm/internal/effects"
	"github.com/veilterm/veilterm/overlay"
	"github.com/veilterm/veilterm/session"
	"github.com/veilterm/veilterm/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("veilterm", flag.ContinueOnError)
	socketPath := fs.String("socket", defaultSocket(), "Unix socket path for veilctl commands")
	restart := fs.Bool("restart", false, "Relaunch the hosted command when it exits")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("veilterm must run on a terminal")
	}

	command := fs.Args()
	if len(command) == 0 {
		shell := os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
		command = []string{shell}
	}

	closeLog := setupLogging()
	defer closeLog()

	if err := config.Err(); err != nil {
		log.Printf("Main: Settings unavailable, starting with defaults: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	tint := effects.NewTint(session.ParseColor("#ffdc82"), 0.25)
	dark := effects.NewDarkMode()
	vision := effects.NewColorVision()
	fx := effects.NewManager()
	fx.Register(vision)
	fx.Register(dark)
	fx.Register(tint)

	comp := compositor.New(screen, fx)
	w, h := comp.Size()

	ruler := overlay.NewRuler(comp.Router(), comp.NewMaskLayer, overlay.DefaultFrameInterval, comp.RequestFrame)
	ruler.SetViewport(w, h)
	ctl := overlay.NewControl(ruler)

	profiles := openProfiles()
	if profiles != nil {
		defer profiles.Close()
	}

	dispatcher := session.NewDispatcher(ctl, tint, dark, vision, profiles, comp.RequestFrame)

	srv := session.NewServer(*socketPath, dispatcher)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start command socket: %w", err)
	}
	stopServer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	}
	defer stopServer()
	log.Printf("Main: Listening on %s", *socketPath)

	sess, err := host.Start(command, w, h, comp.RequestFrame)
	if err != nil {
		return fmt.Errorf("start hosted command: %w", err)
	}
	comp.SetSession(sess)

	dispatcher.ReapplyFromConfig()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		comp.Stop()
	}()

	go superviseHost(comp, dispatcher, sess, command, *restart)

	comp.Run()

	// Quiesce the command socket before tearing down the ruler, so a late
	// command cannot re-enable it mid-shutdown.
	stopServer()
	sess.Close()
	ruler.Disable()
	log.Println("Main: Stopped cleanly")
	return nil
}

// superviseHost watches the hosted command. On exit it either relaunches the
// command and reapplies the persisted overlay state, or shuts the whole
// program down.
func superviseHost(comp *compositor.Compositor, dispatcher *session.Dispatcher, sess *host.Session, command []string, restart bool) {
	for {
		<-sess.Done()
		if !restart {
			comp.Stop()
			return
		}
		log.Printf("Main: Hosted command exited, relaunching %v", command)
		w, h := comp.Size()
		next, err := host.Start(command, w, h, comp.RequestFrame)
		if err != nil {
			log.Printf("Main: Relaunch failed: %v", err)
			comp.Stop()
			return
		}
		sess.Close()
		comp.SetSession(next)
		dispatcher.ReapplyFromConfig()
		sess = next
	}
}

func setupLogging() func() {
	path, err := config.LogPath()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}
	log.SetOutput(file)
	log.Println("Main: Application starting")
	return func() { file.Close() }
}

func openProfiles() *store.Store {
	path, err := config.ProfileDBPath()
	if err != nil {
		log.Printf("Main: Profile store unavailable: %v", err)
		return nil
	}
	profiles, err := store.Open(path)
	if err != nil {
		log.Printf("Main: Failed to open profile store: %v", err)
		return nil
	}
	return profiles
}

func defaultSocket() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("veilterm-%d.sock", os.Getuid()))
}
