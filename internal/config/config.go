// Package config loads and validates the application configuration
// from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP Server
	Port     string
	PageSize int

	// Auth
	JWTSecret string

	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// Postgres
	PostgresURL string

	// AMQP export queue (optional; empty URL disables exporting)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export target
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		PageSize: getEnvInt("PAGE_SIZE", 6),

		JWTSecret: getEnv("JWT_SECRET", ""),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tally.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tally"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_records"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", ""),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.PageSize < 1 || c.PageSize > 100 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be between 1 and 100", c.PageSize))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET must be set")
	} else if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" && c.PostgresURL == "" {
		errors = append(errors, "POSTGRES_URL must be set when using postgres backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
