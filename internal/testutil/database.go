package testutil

import (
	"testing"

	"gdrive-backup/internal/database"
)

// NewTestLedger creates a new in-memory SQLite ledger with migrations applied.
// The ledger is automatically closed when the test completes.
func NewTestLedger(t *testing.T) *database.SQLiteLedger {
	t.Helper()

	l, err := database.NewSQLiteLedger(":memory:", FixedClock())
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}

	if err := l.Migrate(); err != nil {
		l.Close()
		t.Fatalf("failed to migrate ledger: %v", err)
	}

	t.Cleanup(func() {
		l.Close()
	})

	return l
}
