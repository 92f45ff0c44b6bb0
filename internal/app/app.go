package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gdrive-backup/internal/backup"
	"gdrive-backup/internal/config"
	"gdrive-backup/internal/database"
	"gdrive-backup/internal/database/migrations"
	"gdrive-backup/internal/database/sqlc"
	"gdrive-backup/internal/drive"
	"gdrive-backup/internal/vault"
)

// ledgerSnapshotName is the vault item ledger snapshots are stored under.
const ledgerSnapshotName = "ledger"

// SyncApp is the application layer between the CLI and backup.Service.
// It constructs all dependencies from config and manages the ledger
// lifecycle on Close.
type SyncApp struct {
	cfg       *config.Config
	backupDir string
	ledger    *database.SQLiteLedger
	vaults    []backup.Vault
	service   *backup.Service
	logger    *slogAdapter
	logCloser io.Closer
	op        *SyncOperation
	stats     backup.SyncStats
}

// NewSyncApp creates a fully wired SyncApp that talks to Google Drive with the
// user's cached OAuth token. operation identifies the CLI command being run.
// The caller must call Close when done.
func NewSyncApp(ctx context.Context, cfg *config.Config, logOpts LogOptions, operation string) (*SyncApp, error) {
	logger, logCloser, err := newAppLogger(logOpts)
	if err != nil {
		return nil, err
	}

	provider := drive.NewCredentialProvider(cfg.Drive.CredentialsFile, cfg.Drive.TokenFile, logger)
	client, err := provider.Client(ctx)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("authorizing drive access: %w", err)
	}
	d, err := drive.NewGoogleDrive(ctx, client)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	return newSyncApp(ctx, cfg, d, logger, logCloser, operation)
}

// NewSyncAppWithDrive creates a SyncApp on top of any Drive implementation.
// Commands that only read the ledger pass a nil Drive.
func NewSyncAppWithDrive(ctx context.Context, cfg *config.Config, d backup.Drive, logOpts LogOptions, operation string) (*SyncApp, error) {
	logger, logCloser, err := newAppLogger(logOpts)
	if err != nil {
		return nil, err
	}
	return newSyncApp(ctx, cfg, d, logger, logCloser, operation)
}

func newAppLogger(opts LogOptions) (*slogAdapter, io.Closer, error) {
	opID := time.Now().UTC().Format("20060102T150405Z")
	l, closer, err := newLogger(opts, opID)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return &slogAdapter{l: l}, closer, nil
}

func newSyncApp(ctx context.Context, cfg *config.Config, d backup.Drive, logger *slogAdapter, logCloser io.Closer, operation string) (app *SyncApp, err error) {
	defer func() {
		if err != nil {
			logCloser.Close()
		}
	}()

	if cfg.BackupDir == "" {
		return nil, fmt.Errorf("no backup directory configured")
	}
	backupDir, err := filepath.Abs(cfg.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("resolving backup directory: %w", err)
	}
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	var vaults []backup.Vault
	for _, vc := range cfg.Vaults {
		v, err := vault.NewVaultFromConfig(ctx, vc)
		if err != nil {
			return nil, fmt.Errorf("creating vault %q: %w", vc.Name, err)
		}
		if err := v.ValidateSetup(); err != nil {
			return nil, fmt.Errorf("vault %q: %w", vc.Name, err)
		}
		vaults = append(vaults, v)
	}

	ledger, err := database.NewLedgerFromConfig(cfg.Database, backupDir, backup.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	if err := openLedgerSchema(ledger, logger); err != nil {
		ledger.Close()
		return nil, err
	}

	// A vault holding a newer snapshot than the local ledger means the ledger
	// was lost or replaced; syncing on top of it would fork the history.
	localMax, err := ledger.MaxSyncOperationID()
	if err != nil {
		ledger.Close()
		return nil, fmt.Errorf("checking local ledger version: %w", err)
	}
	for i, v := range vaults {
		remote, err := v.GetMetadataVersion(cfg.InstanceID, ledgerSnapshotName)
		if err != nil {
			ledger.Close()
			return nil, fmt.Errorf("checking vault %q ledger version: %w", cfg.Vaults[i].Name, err)
		}
		if remote > localMax {
			ledger.Close()
			return nil, fmt.Errorf("local ledger is behind vault %q (local=%d, vault=%d): run restore-ledger to fetch the snapshot",
				cfg.Vaults[i].Name, localMax, remote)
		}
	}

	svc := backup.NewService(d, ledger, retryPolicy(cfg.Retry, logger), cfg.Drive.ChunkSize, logger, backup.RealClock{},
		database.LedgerDirName)

	return &SyncApp{
		cfg:       cfg,
		backupDir: backupDir,
		ledger:    ledger,
		vaults:    vaults,
		service:   svc,
		logger:    logger,
		logCloser: logCloser,
		op:        NewSyncOperation(operation, ""),
	}, nil
}

// openLedgerSchema migrates a fresh ledger and rejects one with a stale or dirty schema.
func openLedgerSchema(ledger *database.SQLiteLedger, logger backup.Logger) error {
	err := ledger.CheckMigrations()
	if errors.Is(err, migrations.ErrNeedsMigration) {
		logger.Info("initializing ledger", "path", ledger.Path())
		if err := ledger.Migrate(); err != nil {
			return fmt.Errorf("initializing ledger: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("ledger schema out of date: %w", err)
	}
	return nil
}

func retryPolicy(cfg config.RetryConfig, logger backup.Logger) backup.RetryPolicy {
	p := backup.DefaultRetryPolicy(drive.IsTransient, logger)
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelayMS > 0 {
		p.BaseDelay = time.Duration(cfg.BaseDelayMS) * time.Millisecond
	}
	if cfg.MinDelayMS > 0 {
		p.MinDelay = time.Duration(cfg.MinDelayMS) * time.Millisecond
	}
	if cfg.MaxDelayMS > 0 {
		p.MaxDelay = time.Duration(cfg.MaxDelayMS) * time.Millisecond
	}
	return p
}

// persistOperation saves the sync operation to the ledger, giving it an auto-increment ID.
func (a *SyncApp) persistOperation() error {
	if a.op.Persisted() {
		return nil
	}
	row, err := a.ledger.CreateSyncOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting sync operation: %w", err)
	}
	a.op.ID = row.ID
	return nil
}

// BackupDir returns the absolute mirror directory.
func (a *SyncApp) BackupDir() string {
	return a.backupDir
}

// Sync mirrors the configured root folder into the backup directory,
// downloading files modified within window.
func (a *SyncApp) Sync(ctx context.Context, window backup.Window) (backup.SyncStats, error) {
	root := a.cfg.Drive.RootFolderID
	if root == "" {
		root = backup.RootFolderID
	}
	a.op.Parameters = fmt.Sprintf("%s %s", root, window.String())
	if err := a.persistOperation(); err != nil {
		return backup.SyncStats{}, err
	}

	a.logger.Info("starting Google Drive backup", "start", window.StartBound(), "end", window.EndBound())
	a.logger.Info("backup directory", "path", a.backupDir)

	stats, err := a.service.Sync(ctx, root, a.backupDir, window)
	a.stats = stats
	if err != nil {
		a.op.Status = StatusError
		if ctx.Err() == nil {
			a.logger.Critical("sync failed", "error", err)
		}
		return stats, err
	}
	return stats, nil
}

// GetFileHistory resolves the given path and returns the versions recorded for it.
func (a *SyncApp) GetFileHistory(rawPath string) ([]*backup.FileHistoryEntry, error) {
	p, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.GetFileHistory(p)
}

// GetHistory returns the most recent sync operations.
func (a *SyncApp) GetHistory(limit int) ([]*sqlc.SyncOperation, error) {
	return a.service.GetHistory(limit)
}

// VersionCount returns the number of file versions recorded in the ledger.
func (a *SyncApp) VersionCount() (int64, error) {
	return a.ledger.CountVersions()
}

// Close finalizes the operation and closes all resources. It runs on every
// exit path, including after a failed or cancelled sync.
// For persisted operations: finishes the operation record, snapshots the
// ledger and uploads the snapshot to every vault.
func (a *SyncApp) Close() error {
	var errs []error

	if a.op.Persisted() {
		if err := a.ledger.FinishSyncOperation(a.op.ID, a.op.Status, a.stats); err != nil {
			errs = append(errs, fmt.Errorf("finishing sync operation: %w", err))
		}

		var tmpPath string
		if len(a.vaults) > 0 {
			path, err := a.snapshotLedger()
			if err != nil {
				errs = append(errs, err)
			}
			tmpPath = path
		}

		if err := a.ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing ledger: %w", err))
		}

		if tmpPath != "" {
			for i, v := range a.vaults {
				if err := uploadSnapshot(v, a.cfg.InstanceID, tmpPath, a.op.ID); err != nil {
					errs = append(errs, fmt.Errorf("vault %q: %w", a.cfg.Vaults[i].Name, err))
				}
			}
			os.Remove(tmpPath)
		}
	} else if err := a.ledger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing ledger: %w", err))
	}

	for _, err := range errs {
		a.logger.Error("closing app", "error", err)
	}
	if a.logCloser != nil {
		a.logCloser.Close()
	}
	return errors.Join(errs...)
}

// snapshotLedger writes a consistent copy of the ledger to a temp file.
func (a *SyncApp) snapshotLedger() (string, error) {
	tmpFile, err := os.CreateTemp("", "gdrive-backup-ledger-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for ledger snapshot: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	// VACUUM INTO refuses to overwrite a non-empty file, but an empty one is fine.
	if err := a.ledger.BackupTo(tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// uploadSnapshot stores the snapshot at path in v with the given version.
func uploadSnapshot(v backup.Vault, instanceID, path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening ledger snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger snapshot: %w", err)
	}

	if err := v.PutMetadata(instanceID, ledgerSnapshotName, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading ledger snapshot: %w", err)
	}
	return nil
}
