package backup_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gdrive-backup/internal/backup"
	"gdrive-backup/internal/database"
	"gdrive-backup/internal/database/sqlc"
	"gdrive-backup/internal/testutil"
)

type fixture struct {
	drive  *testutil.FakeDrive
	ledger backup.Ledger
	dir    string
	logger *testutil.RecordingLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		drive:  testutil.NewFakeDrive(),
		ledger: testutil.NewTestLedger(t),
		dir:    t.TempDir(),
		logger: testutil.NewRecordingLogger(),
	}
}

func (f *fixture) service() *backup.Service {
	return backup.NewService(f.drive, f.ledger, testutil.NoWaitRetry(), 4, f.logger, testutil.FixedClock(),
		database.LedgerDirName)
}

func (f *fixture) sync(t *testing.T, start, end string) (backup.SyncStats, error) {
	t.Helper()
	return f.syncContext(context.Background(), t, start, end)
}

func (f *fixture) syncContext(ctx context.Context, t *testing.T, start, end string) (backup.SyncStats, error) {
	t.Helper()
	return f.service().Sync(ctx, backup.RootFolderID, f.dir, newWindow(t, start, end))
}

func newWindow(t *testing.T, start, end string) backup.Window {
	t.Helper()
	s, err := backup.ParseDate(start, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	e, err := backup.ParseDate(end, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	w, err := backup.NewWindow(s, e)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file %s: %v", path, err)
	}
	if string(data) != want {
		t.Errorf("%s content = %q, want %q", path, data, want)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to not exist (err = %v)", path, err)
	}
}

func assertVersions(t *testing.T, l backup.Ledger, fileID string, want int) []*sqlc.FileVersion {
	t.Helper()
	versions, err := l.Versions(fileID)
	if err != nil {
		t.Fatalf("Versions(%s) error = %v", fileID, err)
	}
	if len(versions) != want {
		t.Fatalf("Versions(%s) = %d rows, want %d", fileID, len(versions), want)
	}
	for i, v := range versions {
		if v.Version != int64(i+1) {
			t.Errorf("Versions(%s)[%d].Version = %d, want %d", fileID, i, v.Version, i+1)
		}
	}
	return versions
}

func TestSync_SpreadsheetVersions(t *testing.T) {
	f := newFixture(t)
	f.drive.AddFolder("docs", "Docs", backup.RootFolderID)
	f.drive.AddFile("spec", "Spec", backup.MimeSpreadsheet, "docs", "2024-01-01T00:00:00Z", []byte("first"))

	stats, err := f.sync(t, "2024-01-01", "2024-01-01")
	if err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	if stats.Folders != 2 || stats.Downloaded != 1 {
		t.Errorf("first Sync() stats = %+v, want 2 folders and 1 download", stats)
	}
	v1 := filepath.Join(f.dir, "Docs", "Spec.xlsx")
	assertFile(t, v1, "first")
	versions := assertVersions(t, f.ledger, "spec", 1)
	if versions[0].LocalPath != v1 {
		t.Errorf("LocalPath = %q, want %q", versions[0].LocalPath, v1)
	}
	if versions[0].ModifiedTime != "2024-01-01T00:00:00Z" {
		t.Errorf("ModifiedTime = %q", versions[0].ModifiedTime)
	}

	t.Run("unchanged remote is a no-op", func(t *testing.T) {
		exports := f.drive.Calls(testutil.OpExport, "spec")
		stats, err := f.sync(t, "2024-01-01", "2024-01-01")
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if stats.Downloaded != 0 || stats.Unchanged != 1 {
			t.Errorf("stats = %+v, want 0 downloads and 1 unchanged", stats)
		}
		if calls := f.drive.Calls(testutil.OpExport, "spec"); calls != exports {
			t.Errorf("export calls = %d, want no new calls after %d", calls, exports)
		}
		assertVersions(t, f.ledger, "spec", 1)
	})

	t.Run("modified remote adds a version", func(t *testing.T) {
		f.drive.Modify("spec", "2024-01-01T12:00:00Z", []byte("second"))

		stats, err := f.sync(t, "2024-01-01", "2024-01-01")
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if stats.Downloaded != 1 {
			t.Errorf("stats = %+v, want 1 download", stats)
		}
		assertFile(t, filepath.Join(f.dir, "Docs", "Spec.v02.xlsx"), "second")
		assertFile(t, v1, "first")
		versions := assertVersions(t, f.ledger, "spec", 2)
		if versions[1].ModifiedTime != "2024-01-01T12:00:00Z" {
			t.Errorf("v2 ModifiedTime = %q", versions[1].ModifiedTime)
		}
	})
}

func TestSync_BinaryFiles(t *testing.T) {
	t.Run("downloads in chunks and records the version", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFile("n1", "notes.txt", "text/plain", backup.RootFolderID, "2024-02-10T09:00:00.123Z", []byte("hello, world"))

		if _, err := f.sync(t, "2024-01-01", "2024-12-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		assertFile(t, filepath.Join(f.dir, "notes.txt"), "hello, world")
		versions := assertVersions(t, f.ledger, "n1", 1)
		if !versions[0].RecordedAt.Equal(testutil.FixedClock().Now()) {
			t.Errorf("RecordedAt = %v", versions[0].RecordedAt)
		}
		if !versions[0].ParentID.Valid || versions[0].ParentID.String != backup.RootFolderID {
			t.Errorf("ParentID = %+v, want root", versions[0].ParentID)
		}
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFile("before", "before.txt", "text/plain", backup.RootFolderID, "2023-12-31T23:59:59.999Z", []byte("b"))
		f.drive.AddFile("first", "first.txt", "text/plain", backup.RootFolderID, "2024-01-01T00:00:00Z", []byte("f"))
		f.drive.AddFile("last", "last.txt", "text/plain", backup.RootFolderID, "2024-01-31T23:59:59.999999Z", []byte("l"))
		f.drive.AddFile("after", "after.txt", "text/plain", backup.RootFolderID, "2024-02-01T00:00:00Z", []byte("a"))

		stats, err := f.sync(t, "2024-01-01", "2024-01-31")
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if stats.Downloaded != 2 {
			t.Errorf("Downloaded = %d, want 2", stats.Downloaded)
		}
		assertFile(t, filepath.Join(f.dir, "first.txt"), "f")
		assertFile(t, filepath.Join(f.dir, "last.txt"), "l")
		assertMissing(t, filepath.Join(f.dir, "before.txt"))
		assertMissing(t, filepath.Join(f.dir, "after.txt"))
	})

	t.Run("trashed files are ignored", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFile("gone", "gone.txt", "text/plain", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("x"))
		f.drive.Trash("gone")

		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		assertMissing(t, filepath.Join(f.dir, "gone.txt"))
	})

	t.Run("follows listing pages", func(t *testing.T) {
		f := newFixture(t)
		f.drive.MaxPageSize = 2
		for i := 0; i < 5; i++ {
			id := fmt.Sprintf("p%d", i)
			f.drive.AddFile(id, id+".txt", "text/plain", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte(id))
		}

		stats, err := f.sync(t, "2024-01-01", "2024-01-31")
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if stats.Downloaded != 5 {
			t.Errorf("Downloaded = %d, want 5", stats.Downloaded)
		}
		if calls := f.drive.Calls(testutil.OpList, backup.RootFolderID); calls != 4 {
			t.Errorf("list calls = %d, want 3 file pages and 1 folder page", calls)
		}
	})

	t.Run("sanitizes names", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFolder("q", "Q1/Q2", backup.RootFolderID)
		f.drive.AddFile("r", `plan: "v1"?.txt`, "text/plain", "q", "2024-01-05T00:00:00Z", []byte("r"))

		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		assertFile(t, filepath.Join(f.dir, "Q1_Q2", "plan_ _v1__.txt"), "r")
	})

	t.Run("distinct files with one name get distinct paths", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFile("a", "same.txt", "text/plain", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("a"))
		f.drive.AddFile("b", "same.txt", "text/plain", backup.RootFolderID, "2024-01-06T00:00:00Z", []byte("b"))

		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		assertFile(t, filepath.Join(f.dir, "same.txt"), "a")
		assertFile(t, filepath.Join(f.dir, "same.01.txt"), "b")

		stats, err := f.sync(t, "2024-01-01", "2024-01-31")
		if err != nil {
			t.Fatalf("second Sync() error = %v", err)
		}
		if stats.Unchanged != 2 || stats.Downloaded != 0 {
			t.Errorf("second Sync() stats = %+v, want 2 unchanged", stats)
		}
	})
}

func TestSync_LocalNames(t *testing.T) {
	t.Run("remote folder named like the ledger directory is renamed", func(t *testing.T) {
		f := newFixture(t)
		live := filepath.Join(f.dir, database.LedgerDirName, database.LedgerFileName)
		if err := os.MkdirAll(filepath.Dir(live), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(live, []byte("live"), 0644); err != nil {
			t.Fatal(err)
		}
		f.drive.AddFolder("clash", database.LedgerDirName, backup.RootFolderID)
		f.drive.AddFile("db", database.LedgerFileName, "application/octet-stream", "clash", "2024-01-05T00:00:00Z", []byte("remote"))

		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		assertFile(t, live, "live")
		assertFile(t, filepath.Join(f.dir, database.LedgerDirName+".01", database.LedgerFileName), "remote")
		if !f.logger.Contains("WARN", "reserved") {
			t.Error("expected a reserved name warning")
		}
	})

	t.Run("remote file named like the ledger directory is renamed", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFile("clash", "__LEDGER__", "text/plain", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("x"))

		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		assertFile(t, filepath.Join(f.dir, "__LEDGER__.01"), "x")
		versions := assertVersions(t, f.ledger, "clash", 1)
		if versions[0].LocalPath != filepath.Join(f.dir, "__LEDGER__.01") {
			t.Errorf("LocalPath = %q", versions[0].LocalPath)
		}
	})

	t.Run("reserved names apply only at the root", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFolder("sub", "Sub", backup.RootFolderID)
		f.drive.AddFolder("nested", database.LedgerDirName, "sub")
		f.drive.AddFile("n", "n.txt", "text/plain", "nested", "2024-01-05T00:00:00Z", []byte("n"))

		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		assertFile(t, filepath.Join(f.dir, "Sub", database.LedgerDirName, "n.txt"), "n")
	})

	t.Run("dot names stay inside the mirror", func(t *testing.T) {
		f := newFixture(t)
		f.dir = filepath.Join(t.TempDir(), "mirror")
		f.drive.AddFolder("up", "..", backup.RootFolderID)
		f.drive.AddFile("e", "escaped.txt", "text/plain", "up", "2024-01-05T00:00:00Z", []byte("e"))
		f.drive.AddFolder("here", ".", backup.RootFolderID)
		f.drive.AddFile("h", "here.txt", "text/plain", "here", "2024-01-05T00:00:00Z", []byte("h"))
		f.drive.AddFile("dotfile", "..", "text/plain", "here", "2024-01-05T00:00:00Z", []byte("d"))

		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		assertFile(t, filepath.Join(f.dir, "__", "escaped.txt"), "e")
		assertFile(t, filepath.Join(f.dir, "_", "here.txt"), "h")
		assertFile(t, filepath.Join(f.dir, "_", "__"), "d")
		assertMissing(t, filepath.Join(filepath.Dir(f.dir), "escaped.txt"))
		assertMissing(t, filepath.Join(f.dir, "here.txt"))
		for _, v := range append(assertVersions(t, f.ledger, "e", 1), assertVersions(t, f.ledger, "dotfile", 1)...) {
			if !strings.HasPrefix(v.LocalPath, f.dir+string(filepath.Separator)) {
				t.Errorf("LocalPath %q is outside %s", v.LocalPath, f.dir)
			}
		}
	})

	t.Run("renamed folder is logged", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFolder("docs", "Docs", backup.RootFolderID)
		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if f.logger.Contains("INFO", "renamed") {
			t.Fatal("first sync must not report a rename")
		}

		f.drive.Rename("docs", "Papers")
		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if !f.logger.Contains("INFO", "renamed") {
			t.Error("expected a folder rename entry")
		}
		folder, err := f.ledger.FindFolder("docs")
		if err != nil || folder == nil || folder.Name != "Papers" {
			t.Errorf("FindFolder(docs) = %+v, %v, want name Papers", folder, err)
		}
	})
}

func TestSync_Failures(t *testing.T) {
	t.Run("exhausted retries skip only that file", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFile("bad", "bad.bin", "application/octet-stream", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("bad"))
		f.drive.AddFile("good", "good.bin", "application/octet-stream", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("good"))
		f.drive.Fail(testutil.OpMedia, "bad", testutil.ErrTransient, -1)

		stats, err := f.sync(t, "2024-01-01", "2024-01-31")
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if stats.Failed != 1 || stats.Downloaded != 1 {
			t.Errorf("stats = %+v, want 1 failed and 1 downloaded", stats)
		}
		if calls := f.drive.Calls(testutil.OpMedia, "bad"); calls != 3 {
			t.Errorf("media calls = %d, want 3", calls)
		}
		assertFile(t, filepath.Join(f.dir, "good.bin"), "good")
		assertMissing(t, filepath.Join(f.dir, "bad.bin"))
		assertVersions(t, f.ledger, "bad", 0)

		// Once the remote recovers, the next run picks the file up as version 1.
		f.drive.Fail(testutil.OpMedia, "bad", nil, 0)
		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("second Sync() error = %v", err)
		}
		assertFile(t, filepath.Join(f.dir, "bad.bin"), "bad")
		assertVersions(t, f.ledger, "bad", 1)
	})

	t.Run("transient failures within budget recover", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFile("f", "f.bin", "application/octet-stream", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("content"))
		f.drive.Fail(testutil.OpMedia, "f", testutil.ErrTransient, 2)

		stats, err := f.sync(t, "2024-01-01", "2024-01-31")
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if stats.Downloaded != 1 {
			t.Errorf("stats = %+v, want 1 download", stats)
		}
		assertFile(t, filepath.Join(f.dir, "f.bin"), "content")
		if !f.logger.Contains("WARN", "retrying") {
			t.Error("expected a retry warning")
		}
	})

	t.Run("folder metadata failure skips its subtree", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFolder("broken", "Broken", backup.RootFolderID)
		f.drive.AddFile("inner", "inner.txt", "text/plain", "broken", "2024-01-05T00:00:00Z", []byte("i"))
		f.drive.AddFolder("fine", "Fine", backup.RootFolderID)
		f.drive.AddFile("ok", "ok.txt", "text/plain", "fine", "2024-01-05T00:00:00Z", []byte("ok"))
		f.drive.Fail(testutil.OpMetadata, "broken", testutil.ErrTransient, -1)

		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		assertMissing(t, filepath.Join(f.dir, "Broken"))
		assertFile(t, filepath.Join(f.dir, "Fine", "ok.txt"), "ok")
	})

	t.Run("root metadata failure fails the run", func(t *testing.T) {
		tests := []struct {
			name  string
			err   error
			times int
		}{
			{"permanent", errors.New("unauthorized"), -1},
			{"transient beyond the retry budget", testutil.ErrTransient, -1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				f.drive.AddFile("a", "a.txt", "text/plain", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("a"))
				f.drive.Fail(testutil.OpMetadata, backup.RootFolderID, tt.err, tt.times)

				stats, err := f.sync(t, "2024-01-01", "2024-01-31")
				if err == nil {
					t.Fatal("Sync() expected an error")
				}
				if !errors.Is(err, tt.err) {
					t.Errorf("Sync() error = %v, want it to wrap %v", err, tt.err)
				}
				if stats.Folders != 0 || stats.Downloaded != 0 {
					t.Errorf("stats = %+v, want nothing synced", stats)
				}
				assertMissing(t, filepath.Join(f.dir, "a.txt"))
			})
		}
	})

	t.Run("file listing failure still visits subfolders", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFile("top", "top.txt", "text/plain", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("t"))
		f.drive.AddFolder("sub", "Sub", backup.RootFolderID)
		f.drive.AddFile("deep", "deep.txt", "text/plain", "sub", "2024-01-05T00:00:00Z", []byte("d"))
		f.drive.Fail(testutil.OpList, backup.RootFolderID, testutil.ErrTransient, 3)

		if _, err := f.sync(t, "2024-01-01", "2024-01-31"); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		assertMissing(t, filepath.Join(f.dir, "top.txt"))
		assertFile(t, filepath.Join(f.dir, "Sub", "deep.txt"), "d")
	})

	t.Run("malformed subfolder fails the branch but siblings are visited", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddItem(backup.RemoteItem{Name: "No ID", MimeType: backup.MimeFolder, Parents: []string{backup.RootFolderID}})
		f.drive.AddFolder("sib", "Sibling", backup.RootFolderID)
		f.drive.AddFile("s", "s.txt", "text/plain", "sib", "2024-01-05T00:00:00Z", []byte("s"))

		_, err := f.sync(t, "2024-01-01", "2024-01-31")
		var merr *backup.MalformedListingError
		if !errors.As(err, &merr) {
			t.Fatalf("Sync() error = %v, want MalformedListingError", err)
		}
		if merr.ParentID != backup.RootFolderID || merr.Item.Name != "No ID" {
			t.Errorf("MalformedListingError = %+v", merr)
		}
		assertFile(t, filepath.Join(f.dir, "Sibling", "s.txt"), "s")
	})

	t.Run("file with incomplete metadata is skipped", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddItem(backup.RemoteItem{ID: "x", MimeType: "text/plain", ModifiedTime: "2024-01-05T00:00:00Z", Parents: []string{backup.RootFolderID}})
		f.drive.AddFile("y", "y.txt", "text/plain", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("y"))

		stats, err := f.sync(t, "2024-01-01", "2024-01-31")
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if stats.Failed != 1 || stats.Downloaded != 1 {
			t.Errorf("stats = %+v, want 1 failed and 1 downloaded", stats)
		}
		assertVersions(t, f.ledger, "x", 0)
	})

	t.Run("unsupported workspace type is skipped", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFile("form", "Survey", "application/vnd.google-apps.form", backup.RootFolderID, "2024-01-05T00:00:00Z", nil)

		stats, err := f.sync(t, "2024-01-01", "2024-01-31")
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if stats.Unsupported != 1 || stats.Downloaded != 0 {
			t.Errorf("stats = %+v, want 1 unsupported", stats)
		}
		if !f.logger.Contains("WARN", "unsupported") {
			t.Error("expected an unsupported type warning")
		}
		assertVersions(t, f.ledger, "form", 0)
	})

	t.Run("ledger conflict aborts the scan", func(t *testing.T) {
		f := newFixture(t)
		f.ledger = conflictLedger{f.ledger}
		f.drive.AddFile("c", "c.txt", "text/plain", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("c"))
		f.drive.AddFolder("later", "Later", backup.RootFolderID)

		_, err := f.sync(t, "2024-01-01", "2024-01-31")
		if !errors.Is(err, backup.ErrVersionConflict) {
			t.Fatalf("Sync() error = %v, want ErrVersionConflict", err)
		}
		if !strings.Contains(err.Error(), "sync aborted") {
			t.Errorf("error = %q, want sync aborted", err)
		}
		assertMissing(t, filepath.Join(f.dir, "Later"))
	})

	t.Run("cancellation aborts the scan", func(t *testing.T) {
		f := newFixture(t)
		f.drive.AddFile("c", "c.txt", "text/plain", backup.RootFolderID, "2024-01-05T00:00:00Z", []byte("c"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.syncContext(ctx, t, "2024-01-01", "2024-01-31")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Sync() error = %v, want context.Canceled", err)
		}
	})
}

// conflictLedger rejects every version, as a ledger with a concurrent writer would.
type conflictLedger struct {
	backup.Ledger
}

func (conflictLedger) RecordVersion(v *sqlc.FileVersion) error {
	return fmt.Errorf("recording %s v%d: %w", v.FileID, v.Version, backup.ErrVersionConflict)
}
