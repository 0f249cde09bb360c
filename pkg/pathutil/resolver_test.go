package pathutil

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	p := New(Config{Root: "/books"})

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"database", p.GetDatabasePath(), filepath.Join("/books", ".data", "ledger.db")},
		{"cache", p.GetCachePath(), filepath.Join("/books", ".data", "accounts.cache")},
		{"export", p.GetExportDir(), filepath.Join("/books", "export")},
		{"chart", p.GetChartPath(), filepath.Join("/books", "chart.yaml")},
		{"mapping", p.GetMappingPath(), filepath.Join("/books", "mapping.yaml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestOverrides(t *testing.T) {
	p := New(Config{Root: "/books", DatabasePath: "/tmp/x.db", ExportDir: "/out"})

	if got := p.GetDatabasePath(); got != "/tmp/x.db" {
		t.Errorf("GetDatabasePath() = %q", got)
	}

	day := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	want := filepath.Join("/out", "2024", "2024-01.beancount")
	if got := p.GetMonthFilePath(day); got != want {
		t.Errorf("GetMonthFilePath() = %q, want %q", got, want)
	}
}

func TestEnsureParentDir(t *testing.T) {
	p := New(Config{Root: t.TempDir()})
	file := filepath.Join(p.GetExportDir(), "2024", "2024-01.beancount")

	if err := p.EnsureParentDir(file); err != nil {
		t.Fatalf("EnsureParentDir() error = %v", err)
	}
	if !p.FileExists(filepath.Dir(file)) {
		t.Errorf("expected %s to exist", filepath.Dir(file))
	}
}
