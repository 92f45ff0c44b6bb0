package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"gdrive-backup/internal/backup"
	"gdrive-backup/internal/database/migrations"
	"gdrive-backup/internal/database/sqlc"
)

// SQLiteLedger implements backup.Ledger using SQLite.
type SQLiteLedger struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	clock   backup.Clock
}

// NewSQLiteLedger opens the ledger at path, or an in-memory ledger for ":memory:".
// The schema is not touched; call CheckMigrations or Migrate.
func NewSQLiteLedger(path string, clock backup.Clock) (*SQLiteLedger, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = backup.RealClock{}
	}

	return &SQLiteLedger{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
		clock:   clock,
	}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate PRAGMAs.
// Exported for tools and tests that need a properly configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// File versions

func (s *SQLiteLedger) NextVersion(fileID string) (int64, error) {
	max, err := s.queries.GetMaxFileVersion(context.Background(), fileID)
	if err != nil {
		return 0, fmt.Errorf("getting max version: %w", err)
	}
	return max + 1, nil
}

func (s *SQLiteLedger) Latest(fileID string) (*sqlc.FileVersion, error) {
	v, err := s.queries.GetLatestFileVersion(context.Background(), fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting latest version: %w", err)
	}
	return &v, nil
}

// RecordVersion inserts v inside a transaction that first re-reads the highest
// version, so the sequence for a file stays 1..k without gaps or repeats.
func (s *SQLiteLedger) RecordVersion(v *sqlc.FileVersion) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	max, err := qtx.GetMaxFileVersion(ctx, v.FileID)
	if err != nil {
		return fmt.Errorf("getting max version: %w", err)
	}
	if v.Version != max+1 {
		return fmt.Errorf("file %s version %d after %d: %w", v.FileID, v.Version, max, backup.ErrVersionConflict)
	}

	err = qtx.InsertFileVersion(ctx, sqlc.InsertFileVersionParams{
		FileID:       v.FileID,
		Version:      v.Version,
		Name:         v.Name,
		MimeType:     v.MimeType,
		ParentID:     v.ParentID,
		ModifiedTime: v.ModifiedTime,
		LocalPath:    v.LocalPath,
		RecordedAt:   v.RecordedAt,
	})
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("file %s version %d: %w", v.FileID, v.Version, backup.ErrVersionConflict)
		}
		return fmt.Errorf("inserting version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func isConstraintError(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint
}

func (s *SQLiteLedger) Versions(fileID string) ([]*sqlc.FileVersion, error) {
	versions, err := s.queries.GetFileVersions(context.Background(), fileID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}

	result := make([]*sqlc.FileVersion, len(versions))
	for i := range versions {
		result[i] = &versions[i]
	}
	return result, nil
}

func (s *SQLiteLedger) FindFileIDByLocalPath(localPath string) (string, error) {
	id, err := s.queries.GetFileIDByLocalPath(context.Background(), localPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("finding file by local path: %w", err)
	}
	return id, nil
}

func (s *SQLiteLedger) LocalPathClaimed(localPath, fileID string) (bool, error) {
	n, err := s.queries.CountLocalPathClaims(context.Background(), sqlc.CountLocalPathClaimsParams{
		LocalPath: localPath,
		FileID:    fileID,
	})
	if err != nil {
		return false, fmt.Errorf("counting local path claims: %w", err)
	}
	return n > 0, nil
}

// Folders

func (s *SQLiteLedger) UpsertFolder(folder *sqlc.Folder) error {
	err := s.queries.UpsertFolder(context.Background(), sqlc.UpsertFolderParams{
		ID:       folder.ID,
		Name:     folder.Name,
		ParentID: folder.ParentID,
	})
	if err != nil {
		return fmt.Errorf("upserting folder: %w", err)
	}
	return nil
}

// FindFolder returns the folder row for id, or nil if none.
func (s *SQLiteLedger) FindFolder(id string) (*sqlc.Folder, error) {
	f, err := s.queries.GetFolderByID(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding folder: %w", err)
	}
	return &f, nil
}

// Sync operation tracking

func (s *SQLiteLedger) CreateSyncOperation(operation string, parameters string) (*sqlc.SyncOperation, error) {
	startedAt := s.clock.Now()
	res, err := s.queries.InsertSyncOperation(context.Background(), sqlc.InsertSyncOperationParams{
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  startedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("creating sync operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading sync operation id: %w", err)
	}
	return &sqlc.SyncOperation{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  startedAt,
		Status:     "running",
	}, nil
}

func (s *SQLiteLedger) FinishSyncOperation(id int64, status string, stats backup.SyncStats) error {
	err := s.queries.UpdateSyncOperationFinished(context.Background(), sqlc.UpdateSyncOperationFinishedParams{
		FinishedAt:  sql.NullTime{Time: s.clock.Now(), Valid: true},
		Status:      status,
		Folders:     int64(stats.Folders),
		Downloaded:  int64(stats.Downloaded),
		Unchanged:   int64(stats.Unchanged),
		Unsupported: int64(stats.Unsupported),
		Failed:      int64(stats.Failed),
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("finishing sync operation: %w", err)
	}
	return nil
}

func (s *SQLiteLedger) ListSyncOperations(limit int) ([]*sqlc.SyncOperation, error) {
	ops, err := s.queries.GetSyncOperations(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing sync operations: %w", err)
	}

	result := make([]*sqlc.SyncOperation, len(ops))
	for i := range ops {
		result[i] = &ops[i]
	}
	return result, nil
}

func (s *SQLiteLedger) MaxSyncOperationID() (int64, error) {
	id, err := s.queries.GetMaxSyncOperationID(context.Background())
	if err != nil {
		return 0, fmt.Errorf("getting max sync operation ID: %w", err)
	}
	return id, nil
}

// CountVersions returns the number of file versions recorded across all files.
func (s *SQLiteLedger) CountVersions() (int64, error) {
	n, err := s.queries.CountFileVersions(context.Background())
	if err != nil {
		return 0, fmt.Errorf("counting file versions: %w", err)
	}
	return n, nil
}

// Path returns the ledger file path (or ":memory:").
func (s *SQLiteLedger) Path() string {
	return s.path
}

// CheckMigrations verifies the ledger schema is up-to-date.
func (s *SQLiteLedger) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate applies all pending migrations.
func (s *SQLiteLedger) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// BackupTo writes a complete copy of the ledger to destPath using VACUUM INTO.
func (s *SQLiteLedger) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up ledger: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteLedger) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ backup.Ledger = (*SQLiteLedger)(nil)

