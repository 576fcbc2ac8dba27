// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for the veilterm configuration file.

package config

func applyDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("ruler", Section{
		"enabled":   false,
		"thickness": 40.0,
		"intensity": 0.75,
	})
	cfg.RegisterDefaults("tint", Section{
		"enabled":   false,
		"color":     "#ffdc82",
		"intensity": 0.25,
	})
	cfg.RegisterDefaults("appearance", Section{
		"dark_mode": false,
		"vision":    "none",
	})
}
