package backup

import "gdrive-backup/internal/database/sqlc"

// Ledger is the durable index of observed folders and file versions.
// A Ledger is not safe for concurrent use; the engine drives it from one goroutine.
type Ledger interface {
	// NextVersion returns 1 + the highest recorded version of fileID, or 1 if none.
	NextVersion(fileID string) (int64, error)

	// Latest returns the newest version of fileID, or nil if the file is unknown.
	Latest(fileID string) (*sqlc.FileVersion, error)

	// RecordVersion inserts one immutable version row. It fails with
	// ErrVersionConflict unless v.Version is exactly NextVersion(v.FileID).
	RecordVersion(v *sqlc.FileVersion) error

	// Versions returns every version of fileID, oldest first.
	Versions(fileID string) ([]*sqlc.FileVersion, error)

	// FindFileIDByLocalPath returns the file whose version was written to localPath,
	// or "" if none.
	FindFileIDByLocalPath(localPath string) (string, error)

	// LocalPathClaimed reports whether a file other than fileID owns localPath.
	LocalPathClaimed(localPath, fileID string) (bool, error)

	// FindFolder returns the row for id, or nil if the folder was never seen.
	FindFolder(id string) (*sqlc.Folder, error)

	// UpsertFolder replaces the row for folder.ID.
	UpsertFolder(folder *sqlc.Folder) error

	// CreateSyncOperation starts an operation record and returns it with its ID.
	CreateSyncOperation(operation, parameters string) (*sqlc.SyncOperation, error)

	// FinishSyncOperation stamps the end time, status and counters of an operation.
	FinishSyncOperation(id int64, status string, stats SyncStats) error

	// ListSyncOperations returns the most recent operations, newest first.
	ListSyncOperations(limit int) ([]*sqlc.SyncOperation, error)

	// Close closes the underlying storage.
	Close() error
}
