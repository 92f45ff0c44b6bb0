package backup

import (
	"context"
	"errors"
	"fmt"
)

// SyncStats counts what one sync run did.
type SyncStats struct {
	Folders     int
	Downloaded  int
	Unchanged   int
	Unsupported int
	Failed      int
}

// Service is the orchestration layer that wires the remote client, the ledger
// and the local mirror together for the CLI.
type Service struct {
	drive     Drive
	ledger    Ledger
	retry     RetryPolicy
	chunkSize int64
	logger    Logger
	clock     Clock
	reserved  []string
}

// NewService creates a Service. A non-positive chunkSize uses DefaultChunkSize.
// reserved names are kept free at the top of the backup directory.
func NewService(drive Drive, ledger Ledger, retry RetryPolicy, chunkSize int64, logger Logger, clock Clock, reserved ...string) *Service {
	if retry.Logger == nil {
		retry.Logger = logger
	}
	return &Service{
		drive:     drive,
		ledger:    ledger,
		retry:     retry,
		chunkSize: chunkSize,
		logger:    logger,
		clock:     clock,
		reserved:  reserved,
	}
}

// Sync mirrors the tree rooted at rootID into backupDir, downloading files
// modified within window. The returned stats are valid even when err is not nil.
func (s *Service) Sync(ctx context.Context, rootID, backupDir string, window Window) (SyncStats, error) {
	if rootID == "" {
		rootID = RootFolderID
	}
	s.logger.Info("starting sync", "root", rootID, "backup_dir", backupDir, "window", window.String())

	downloader := NewDownloader(s.retry, s.chunkSize, s.logger)
	converter := NewConverter(s.drive, downloader, s.logger)
	r := NewReconciler(s.drive, s.ledger, converter, downloader, s.retry, s.logger, s.clock, s.reserved...)

	err := r.Sync(ctx, rootID, backupDir, window)
	stats := r.Stats()

	var a *abortError
	if errors.As(err, &a) {
		err = fmt.Errorf("sync aborted: %w", a.err)
	}

	s.logger.Info("sync finished",
		"folders", stats.Folders,
		"downloaded", stats.Downloaded,
		"unchanged", stats.Unchanged,
		"unsupported", stats.Unsupported,
		"failed", stats.Failed,
		"ok", err == nil)
	return stats, err
}
