package database

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name     string
		expected int
	}{
		{"001_relay_attempts.sql", 1},
		{"012_add_index.sql", 12},
		{"README.md", 0},
		{"abc_bad.sql", 0},
		{"001.sql", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := migrationVersion(tc.name); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 || migrationVersion(entries[0].Name()) != 1 {
		t.Fatalf("expected 001 migration to be embedded, got %v", entries)
	}

	content, err := fs.ReadFile(Migrations, "migrations/"+entries[0].Name())
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(content), "relay_attempts") {
		t.Errorf("Expected relay_attempts table in first migration")
	}
}
