// Package pathutil provides centralized path management for ledger data files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PathResolver manages paths for the database, the account cache and exports.
type PathResolver struct {
	root         string
	databasePath string
	cachePath    string
	exportDir    string
	chartPath    string
	mappingPath  string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// Root is the data root (e.g., ~/books/ledger)
	Root string
	// DatabasePath is the SQLite database file
	DatabasePath string
	// CachePath is the bbolt resolved-account cache file
	CachePath string
	// ExportDir is where Beancount exports are written
	ExportDir string
	// ChartPath is the chart-of-accounts seed file
	ChartPath string
	// MappingPath is the Beancount account mapping file
	MappingPath string
}

// New creates a new PathResolver with the given configuration.
// Empty paths default to locations under Root:
//
//	{Root}/.data/ledger.db
//	{Root}/.data/accounts.cache
//	{Root}/export
//	{Root}/chart.yaml
//	{Root}/mapping.yaml
func New(config Config) *PathResolver {
	return &PathResolver{
		root:         config.Root,
		databasePath: orDefault(config.DatabasePath, filepath.Join(config.Root, ".data", "ledger.db")),
		cachePath:    orDefault(config.CachePath, filepath.Join(config.Root, ".data", "accounts.cache")),
		exportDir:    orDefault(config.ExportDir, filepath.Join(config.Root, "export")),
		chartPath:    orDefault(config.ChartPath, filepath.Join(config.Root, "chart.yaml")),
		mappingPath:  orDefault(config.MappingPath, filepath.Join(config.Root, "mapping.yaml")),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// GetRoot returns the data root directory.
func (p *PathResolver) GetRoot() string {
	return p.root
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetCachePath returns the account cache file path.
func (p *PathResolver) GetCachePath() string {
	return p.cachePath
}

// GetExportDir returns the export root directory.
func (p *PathResolver) GetExportDir() string {
	return p.exportDir
}

// GetChartPath returns the chart-of-accounts seed file path.
func (p *PathResolver) GetChartPath() string {
	return p.chartPath
}

// GetMappingPath returns the account mapping file path.
func (p *PathResolver) GetMappingPath() string {
	return p.mappingPath
}

// GetYearDir returns the export directory path for a year.
// Example: ~/books/ledger/export/2024
func (p *PathResolver) GetYearDir(year int) string {
	return filepath.Join(p.exportDir, fmt.Sprintf("%04d", year))
}

// GetMonthFilePath returns the export file for the month containing day.
// Example: ~/books/ledger/export/2024/2024-01.beancount
func (p *PathResolver) GetMonthFilePath(day time.Time) string {
	return filepath.Join(p.GetYearDir(day.Year()), day.Format("2006-01")+".beancount")
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
