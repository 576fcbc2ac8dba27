// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for veilterm configuration and data files.

package config

import (
	"os"
	"path/filepath"
)

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "veilterm"), nil
}

func configPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, configName), nil
}

// LogPath returns the log file location for the full-screen binary, creating
// the directory on the way.
func LogPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	logDir := filepath.Join(root, "logs")
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return "", err
	}
	return filepath.Join(logDir, "veilterm.log"), nil
}

// ProfileDBPath returns the SQLite profile store location.
func ProfileDBPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return "", err
	}
	return filepath.Join(root, "profiles.db"), nil
}
