package backup

import (
	"fmt"
	"time"

	"gdrive-backup/internal/database/sqlc"
)

// FileHistoryEntry is one recorded version of a mirrored file.
type FileHistoryEntry struct {
	Version      int64
	LocalPath    string
	ModifiedTime string
	RecordedAt   time.Time
	IsCurrent    bool
}

// GetFileHistory returns the version history of the file that was written to
// localPath, newest first. Any version's path identifies the file.
func (s *Service) GetFileHistory(localPath string) ([]*FileHistoryEntry, error) {
	s.logger.Debug("fetching file history", "path", localPath)

	fileID, err := s.ledger.FindFileIDByLocalPath(localPath)
	if err != nil {
		return nil, fmt.Errorf("finding file: %w", err)
	}
	if fileID == "" {
		return nil, fmt.Errorf("file has no backup history: %s", localPath)
	}

	versions, err := s.ledger.Versions(fileID)
	if err != nil {
		return nil, fmt.Errorf("finding versions: %w", err)
	}

	entries := make([]*FileHistoryEntry, len(versions))
	for i, v := range versions {
		entries[len(versions)-1-i] = &FileHistoryEntry{
			Version:      v.Version,
			LocalPath:    v.LocalPath,
			ModifiedTime: v.ModifiedTime,
			RecordedAt:   v.RecordedAt,
			IsCurrent:    i == len(versions)-1,
		}
	}
	return entries, nil
}

// GetHistory returns the most recent sync operations, ordered newest first.
func (s *Service) GetHistory(limit int) ([]*sqlc.SyncOperation, error) {
	ops, err := s.ledger.ListSyncOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing sync operations: %w", err)
	}
	return ops, nil
}
