package beancount

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/pathutil"
)

// Repository defines the interface for Beancount file operations.
type Repository interface {
	// AppendTransaction appends a transaction to the file of its month
	// and returns the file path
	AppendTransaction(txn Transaction, comment ...string) (string, error)

	// ReadMonthFile reads the content of a monthly file
	ReadMonthFile(month time.Time) (string, error)

	// GetMonthFilesInYear gets all monthly files in a year
	GetMonthFilesInYear(year int) ([]string, error)

	// EnsureMonthFile ensures a monthly file exists with header
	EnsureMonthFile(month time.Time) (string, error)

	// MonthFilePath returns the file a transaction dated in month is appended to
	MonthFilePath(month time.Time) string
}

// FileSystemRepository is a file system implementation of Repository.
type FileSystemRepository struct {
	pathResolver *pathutil.PathResolver
	now          func() time.Time
}

// NewFileSystemRepository creates a new FileSystemRepository.
func NewFileSystemRepository(pathResolver *pathutil.PathResolver) *FileSystemRepository {
	return &FileSystemRepository{
		pathResolver: pathResolver,
		now:          time.Now,
	}
}

// AppendTransaction appends a transaction to its monthly file.
// It creates the file if it doesn't exist.
func (r *FileSystemRepository) AppendTransaction(txn Transaction, comment ...string) (string, error) {
	filePath, err := r.EnsureMonthFile(txn.Date)
	if err != nil {
		return "", fmt.Errorf("failed to ensure month file: %w", err)
	}

	var content strings.Builder
	if len(comment) > 0 && comment[0] != "" {
		fmt.Fprintf(&content, "; %s\n", comment[0])
	}
	content.WriteString(txn.Format())
	content.WriteString("\n")

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open file for appending: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content.String()); err != nil {
		return "", fmt.Errorf("failed to write to file: %w", err)
	}

	return filePath, nil
}

// MonthFilePath returns the monthly file path without touching the disk.
func (r *FileSystemRepository) MonthFilePath(month time.Time) string {
	return r.pathResolver.GetMonthFilePath(month)
}

// ReadMonthFile reads the content of a monthly file.
// Returns empty string if file doesn't exist.
func (r *FileSystemRepository) ReadMonthFile(month time.Time) (string, error) {
	filePath := r.pathResolver.GetMonthFilePath(month)
	if !r.pathResolver.FileExists(filePath) {
		return "", nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return string(data), nil
}

// GetMonthFilesInYear gets all monthly files in a year.
// Returns a sorted slice of year-month strings (e.g., ["2024-01", "2024-02"]).
func (r *FileSystemRepository) GetMonthFilesInYear(year int) ([]string, error) {
	yearDir := r.pathResolver.GetYearDir(year)
	if !r.pathResolver.FileExists(yearDir) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(yearDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read year directory: %w", err)
	}

	var monthFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if filepath.Ext(name) == ".beancount" {
			monthFiles = append(monthFiles, strings.TrimSuffix(name, ".beancount"))
		}
	}
	sort.Strings(monthFiles)

	return monthFiles, nil
}

// EnsureMonthFile ensures a monthly file exists with header and returns its path.
// If the file already exists, this is a no-op.
func (r *FileSystemRepository) EnsureMonthFile(month time.Time) (string, error) {
	filePath := r.pathResolver.GetMonthFilePath(month)
	if r.pathResolver.FileExists(filePath) {
		return filePath, nil
	}

	if err := r.pathResolver.EnsureParentDir(filePath); err != nil {
		return "", fmt.Errorf("failed to ensure parent directory: %w", err)
	}

	header := fmt.Sprintf("; Beancount file for %s\n; Generated at %s\n\n",
		month.Format("2006-01"), r.now().Format(time.RFC3339))
	if err := os.WriteFile(filePath, []byte(header), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}
