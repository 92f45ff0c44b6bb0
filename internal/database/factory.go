package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gdrive-backup/internal/backup"
	"gdrive-backup/internal/config"
)

const (
	// LedgerDirName is the ledger's directory inside the backup directory.
	LedgerDirName = "__ledger__"
	// LedgerFileName is the SQLite file inside LedgerDirName.
	LedgerFileName = "ledger.db"
)

// LedgerPath returns where the sqlite ledger of backupDir lives.
func LedgerPath(backupDir string) string {
	return filepath.Join(backupDir, LedgerDirName, LedgerFileName)
}

// NewLedgerFromConfig opens a ledger based on the database config type.
// The ledger directory is created for sqlite ledgers; the schema is left to the caller.
func NewLedgerFromConfig(cfg config.DatabaseConfig, backupDir string, clock backup.Clock) (*SQLiteLedger, error) {
	switch cfg.Type {
	case "sqlite", "":
		if backupDir == "" {
			return nil, fmt.Errorf("backup_dir required for sqlite ledger")
		}
		path := LedgerPath(backupDir)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
		return NewSQLiteLedger(path, clock)
	case "memory":
		return NewSQLiteLedger(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
