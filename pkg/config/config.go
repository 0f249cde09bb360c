// Package config provides configuration management for the ledger posting service.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Ledger  LedgerConfig
	Posting PostingConfig
	Server  ServerConfig
	Debug   bool
}

// LedgerConfig represents where ledger data lives.
type LedgerConfig struct {
	Root        string
	DBPath      string
	CachePath   string
	ExportDir   string
	ChartPath   string
	MappingPath string
}

// PostingConfig represents posting behavior.
type PostingConfig struct {
	OwnerID         string
	EntryDateSource string
	Currency        string
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Port int
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	port, err := parseIntEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}

	source := strings.ToLower(getEnvOrDefault("LEDGER_ENTRY_DATE_SOURCE", "posting"))
	if source != "posting" && source != "transaction" {
		return nil, fmt.Errorf("invalid LEDGER_ENTRY_DATE_SOURCE: %s (expected posting or transaction)", source)
	}

	config := &Config{
		Ledger: LedgerConfig{
			Root:        getEnvOrDefault("LEDGER_ROOT", "./ledger"),
			DBPath:      os.Getenv("LEDGER_DB_PATH"),
			CachePath:   os.Getenv("LEDGER_CACHE_PATH"),
			ExportDir:   os.Getenv("LEDGER_EXPORT_DIR"),
			ChartPath:   os.Getenv("LEDGER_CHART_PATH"),
			MappingPath: os.Getenv("LEDGER_MAPPING_PATH"),
		},
		Posting: PostingConfig{
			OwnerID:         os.Getenv("LEDGER_OWNER_ID"),
			EntryDateSource: source,
			Currency:        getEnvOrDefault("LEDGER_CURRENCY", "USD"),
		},
		Server: ServerConfig{
			Port: port,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set and reports every missing one.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "ledger":
			switch path[1] {
			case "root":
				value = c.Ledger.Root
			case "dbPath":
				value = c.Ledger.DBPath
			case "cachePath":
				value = c.Ledger.CachePath
			case "exportDir":
				value = c.Ledger.ExportDir
			case "chartPath":
				value = c.Ledger.ChartPath
			}
		case "posting":
			switch path[1] {
			case "ownerId":
				value = c.Posting.OwnerID
			case "currency":
				value = c.Posting.Currency
			}
		case "server":
			if path[1] == "port" && c.Server.Port > 0 {
				value = "set"
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}
