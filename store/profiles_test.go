// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/veilterm/veilterm/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func snapshot(thickness float64) config.Config {
	return config.Config{
		"ruler": map[string]interface{}{
			"enabled":   true,
			"thickness": thickness,
			"intensity": 0.75,
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save("reading", snapshot(40)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("reading")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if th := got.GetFloat("ruler", "thickness", 0); th != 40 {
		t.Fatalf("expected thickness 40, got %v", th)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save("reading", snapshot(40)); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := s.Save("reading", snapshot(60)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load("reading")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if th := got.GetFloat("ruler", "thickness", 0); th != 60 {
		t.Fatalf("expected overwrite to 60, got %v", th)
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("expected one profile, got %v", names)
	}
}

func TestLoadMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save("night", snapshot(20)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete("night"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load("night"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete("night"); err != nil {
		t.Fatalf("double delete should be silent: %v", err)
	}
}

func TestListEmpty(t *testing.T) {
	s := openTestStore(t)
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty list, got %v", names)
	}
}

func TestSaveRequiresName(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save("", snapshot(40)); err == nil {
		t.Fatalf("expected error for empty profile name")
	}
}
