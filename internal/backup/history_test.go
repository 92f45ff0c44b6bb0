package backup_test

import (
	"path/filepath"
	"testing"

	"gdrive-backup/internal/backup"
)

func TestService_GetFileHistory(t *testing.T) {
	f := newFixture(t)
	f.drive.AddFile("r", "report.txt", "text/plain", backup.RootFolderID, "2024-01-02T00:00:00Z", []byte("one"))
	if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	f.drive.Modify("r", "2024-01-03T00:00:00Z", []byte("two"))
	if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	v1 := filepath.Join(f.dir, "report.txt")
	v2 := filepath.Join(f.dir, "report.v02.txt")

	for _, path := range []string{v1, v2} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			entries, err := f.service().GetFileHistory(path)
			if err != nil {
				t.Fatalf("GetFileHistory() error = %v", err)
			}
			if len(entries) != 2 {
				t.Fatalf("GetFileHistory() = %d entries, want 2", len(entries))
			}
			if entries[0].Version != 2 || !entries[0].IsCurrent || entries[0].LocalPath != v2 {
				t.Errorf("entries[0] = %+v, want current v2", entries[0])
			}
			if entries[1].Version != 1 || entries[1].IsCurrent || entries[1].LocalPath != v1 {
				t.Errorf("entries[1] = %+v, want v1", entries[1])
			}
			if entries[1].ModifiedTime != "2024-01-02T00:00:00Z" {
				t.Errorf("entries[1].ModifiedTime = %q", entries[1].ModifiedTime)
			}
		})
	}

	t.Run("unknown path", func(t *testing.T) {
		if _, err := f.service().GetFileHistory(filepath.Join(f.dir, "nope.txt")); err == nil {
			t.Error("GetFileHistory() expected error for unknown path")
		}
	})
}

func TestService_GetHistory(t *testing.T) {
	f := newFixture(t)
	for _, op := range []string{"sync", "sync", "sync"} {
		rec, err := f.ledger.CreateSyncOperation(op, "root [2010-01-01, 2024-01-01]")
		if err != nil {
			t.Fatalf("CreateSyncOperation() error = %v", err)
		}
		if err := f.ledger.FinishSyncOperation(rec.ID, "success", backup.SyncStats{Downloaded: 1}); err != nil {
			t.Fatalf("FinishSyncOperation() error = %v", err)
		}
	}

	ops, err := f.service().GetHistory(2)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("GetHistory() = %d ops, want 2", len(ops))
	}
	if ops[0].ID <= ops[1].ID {
		t.Errorf("GetHistory() not newest first: %d, %d", ops[0].ID, ops[1].ID)
	}
	if ops[0].Status != "success" || ops[0].Downloaded != 1 {
		t.Errorf("ops[0] = %+v", ops[0])
	}
}
