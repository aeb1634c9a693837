// Package backend constructs the storage layer selected by configuration.
package backend

import (
	"fmt"

	appconfig "github.com/jithinsajeev21/Smartspend/internal/config"
)

// Type identifies a storage backend.
type Type string

const (
	// TypeSnapshot keeps expenses in memory, persisted as JSON snapshots.
	TypeSnapshot Type = "snapshot"
	// TypeSQLite keeps expenses in a local SQLite database.
	TypeSQLite Type = "sqlite"
)

// IsValid reports whether the type names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case TypeSnapshot, TypeSQLite:
		return true
	}
	return false
}

// Config carries the settings a factory needs to build a backend.
type Config struct {
	Type         Type
	SnapshotDir  string
	SQLiteDBPath string
}

// FromAppConfig maps application configuration to a backend config.
func FromAppConfig(cfg *appconfig.Config) (Config, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
	return Config{
		Type:         t,
		SnapshotDir:  cfg.SnapshotDir,
		SQLiteDBPath: cfg.SQLiteDBPath,
	}, nil
}
