// Package config loads application settings from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting for the server and the export worker.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// DataBackend selects the storage layer: "snapshot" or "sqlite".
	DataBackend string

	// SnapshotDir is the directory for the snapshot backend's data files.
	SnapshotDir string

	// SQLiteDBPath is the database file for the sqlite backend.
	SQLiteDBPath string

	// AMQPURL enables the export pipeline when set.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// GeminiAPIKey enables receipt scanning and insights when set.
	GeminiAPIKey string
	GeminiModel  string

	// Google Sheets ledger settings, read by the worker.
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Export worker tuning.
	ExportBatchSize int
	ExportInterval  time.Duration
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() *Config {
	return &Config{
		Port:                getEnv("PORT", "8080"),
		DataBackend:         getEnv("DATA_BACKEND", "snapshot"),
		SnapshotDir:         getEnv("SNAPSHOT_DIR", "data"),
		SQLiteDBPath:        getEnv("SQLITE_DB_PATH", filepath.Join("data", "smartspend.db")),
		AMQPURL:             getEnv("AMQP_URL", ""),
		AMQPExchange:        getEnv("AMQP_EXCHANGE", "smartspend"),
		AMQPQueue:           getEnv("AMQP_QUEUE", "export_expenses"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		ExportBatchSize:     getEnvInt("EXPORT_BATCH_SIZE", 50),
		ExportInterval:      getEnvDuration("EXPORT_INTERVAL", 5*time.Minute),
	}
}

// Validate checks the loaded configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("PORT must be a number, got %q", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got %d", port))
	}

	switch c.DataBackend {
	case "snapshot":
		if c.SnapshotDir == "" {
			errors = append(errors, "SNAPSHOT_DIR cannot be empty when DATA_BACKEND=snapshot")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLITE_DB_PATH cannot be empty when DATA_BACKEND=sqlite")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create database directory %q: %v", dir, err))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("DATA_BACKEND must be snapshot or sqlite, got %q", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("AMQP_URL is not a valid URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("AMQP_URL scheme must be amqp or amqps, got %q", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP_EXCHANGE cannot be empty when AMQP_URL is set")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP_QUEUE cannot be empty when AMQP_URL is set")
		}
	}

	if c.ExportBatchSize < 1 || c.ExportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("EXPORT_BATCH_SIZE must be between 1 and 1000, got %d", c.ExportBatchSize))
	}
	if c.ExportInterval < time.Second || c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("EXPORT_INTERVAL must be between 1s and 24h, got %s", c.ExportInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

// ExportEnabled reports whether the AMQP export pipeline is configured.
func (c *Config) ExportEnabled() bool {
	return c.AMQPURL != ""
}

// AIEnabled reports whether the Gemini features are configured.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
