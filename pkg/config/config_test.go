package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LEDGER_ROOT", "LEDGER_DB_PATH", "LEDGER_CACHE_PATH", "LEDGER_EXPORT_DIR",
		"LEDGER_CHART_PATH", "LEDGER_MAPPING_PATH", "LEDGER_OWNER_ID",
		"LEDGER_ENTRY_DATE_SOURCE", "LEDGER_CURRENCY", "PORT", "DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "./ledger", cfg.Ledger.Root)
	assert.Equal(t, "posting", cfg.Posting.EntryDateSource)
	assert.Equal(t, "USD", cfg.Posting.Currency)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Debug)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even to "".
	for _, key := range []string{"LEDGER_ROOT", "LEDGER_OWNER_ID", "LEDGER_ENTRY_DATE_SOURCE", "PORT", "DEBUG"} {
		assert.NoError(t, os.Unsetenv(key))
	}

	envFile := filepath.Join(t.TempDir(), "test.env")
	content := strings.Join([]string{
		"LEDGER_ROOT=/srv/books",
		"LEDGER_OWNER_ID=acme",
		"LEDGER_ENTRY_DATE_SOURCE=transaction",
		"PORT=9090",
		"DEBUG=true",
	}, "\n")
	assert.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load(envFile)
	assert.NoError(t, err)
	assert.Equal(t, "/srv/books", cfg.Ledger.Root)
	assert.Equal(t, "acme", cfg.Posting.OwnerID)
	assert.Equal(t, "transaction", cfg.Posting.EntryDateSource)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Debug)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	t.Setenv("PORT", "eighty")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PORT", "")
	t.Setenv("LEDGER_ENTRY_DATE_SOURCE", "ledger")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidateReportsAllMissing(t *testing.T) {
	cfg := &Config{Ledger: LedgerConfig{Root: "./ledger"}}

	err := cfg.Validate([]string{"ledger", "root"}, []string{"posting", "ownerId"}, []string{"server", "port"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "posting.ownerId")
	assert.Contains(t, err.Error(), "server.port")
	assert.NotContains(t, err.Error(), "ledger.root")

	cfg.Posting.OwnerID = "acme"
	cfg.Server.Port = 8080
	assert.NoError(t, cfg.Validate([]string{"posting", "ownerId"}, []string{"server", "port"}))
}
