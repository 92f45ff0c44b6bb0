package database

import (
	"os"
	"path/filepath"
	"testing"

	"gdrive-backup/internal/config"
)

func TestNewLedgerFromConfig(t *testing.T) {
	t.Run("memory ledger", func(t *testing.T) {
		got, err := NewLedgerFromConfig(config.DatabaseConfig{Type: "memory"}, "", nil)
		if err != nil {
			t.Fatalf("NewLedgerFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if got.Path() != ":memory:" {
			t.Errorf("Path() = %q, want %q", got.Path(), ":memory:")
		}
	})

	t.Run("sqlite ledger lives under __ledger__", func(t *testing.T) {
		backupDir := t.TempDir()
		got, err := NewLedgerFromConfig(config.DatabaseConfig{Type: "sqlite"}, backupDir, nil)
		if err != nil {
			t.Fatalf("NewLedgerFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		want := filepath.Join(backupDir, "__ledger__", "ledger.db")
		if got.Path() != want {
			t.Errorf("Path() = %q, want %q", got.Path(), want)
		}
		if err := got.Migrate(); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("ledger file not created: %v", err)
		}
	})

	t.Run("sqlite ledger without backup dir", func(t *testing.T) {
		got, err := NewLedgerFromConfig(config.DatabaseConfig{Type: "sqlite"}, "", nil)
		if err == nil {
			t.Error("NewLedgerFromConfig() expected error for missing backup dir, got nil")
		}
		if got != nil {
			t.Error("NewLedgerFromConfig() should return nil on error")
			got.Close()
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewLedgerFromConfig(config.DatabaseConfig{Type: "postgres"}, t.TempDir(), nil)
		if err == nil {
			t.Error("NewLedgerFromConfig() expected error for unknown type, got nil")
		}
	})
}
