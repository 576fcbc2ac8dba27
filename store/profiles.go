// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: store/profiles.go
// Summary: SQLite-backed store for named accessibility profiles.
// Usage: A profile is a full settings snapshot; loading one replaces the
// live configuration and is persisted like any other settings change.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/veilterm/veilterm/config"
)

// ErrNotFound is returned when a named profile does not exist.
var ErrNotFound = errors.New("store: profile not found")

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	name       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store holds named settings snapshots in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the profile database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open profile db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init profile schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts a named snapshot.
func (s *Store) Save(name string, snapshot config.Config) error {
	if name == "" {
		return fmt.Errorf("store: profile name is required")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal profile %q: %w", name, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO profiles (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save profile %q: %w", name, err)
	}
	return nil
}

// Load returns the snapshot stored under name.
func (s *Store) Load(name string) (config.Config, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM profiles WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", name, err)
	}
	var snapshot config.Config
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("decode profile %q: %w", name, err)
	}
	return snapshot, nil
}

// List returns profile names, most recently updated first.
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM profiles ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes a profile. Deleting a missing profile is not an error.
func (s *Store) Delete(name string) error {
	if _, err := s.db.Exec(`DELETE FROM profiles WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete profile %q: %w", name, err)
	}
	return nil
}
