package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gdrive-backup/internal/backup"
	"gdrive-backup/internal/config"
	"gdrive-backup/internal/database"
	"gdrive-backup/internal/database/migrations"
	"gdrive-backup/internal/vault"
)

// RestoreLedger replaces the local ledger with the latest snapshot held by the
// named vault, or the first configured vault when vaultName is empty. A ledger
// that already records operations is only replaced when force is set. It
// returns the version of the restored snapshot.
func RestoreLedger(ctx context.Context, cfg *config.Config, vaultName string, force bool) (int64, error) {
	if cfg.Database.Type == "memory" {
		return 0, fmt.Errorf("an in-memory ledger cannot be restored")
	}
	if cfg.BackupDir == "" {
		return 0, fmt.Errorf("no backup directory configured")
	}
	backupDir, err := filepath.Abs(cfg.BackupDir)
	if err != nil {
		return 0, fmt.Errorf("resolving backup directory: %w", err)
	}

	vc, err := findVault(cfg.Vaults, vaultName)
	if err != nil {
		return 0, err
	}
	v, err := vault.NewVaultFromConfig(ctx, vc)
	if err != nil {
		return 0, fmt.Errorf("creating vault %q: %w", vc.Name, err)
	}
	if err := v.ValidateSetup(); err != nil {
		return 0, fmt.Errorf("vault %q: %w", vc.Name, err)
	}

	version, err := v.GetMetadataVersion(cfg.InstanceID, ledgerSnapshotName)
	if err != nil {
		return 0, fmt.Errorf("checking vault %q ledger version: %w", vc.Name, err)
	}
	if version == 0 {
		return 0, fmt.Errorf("vault %q holds no ledger snapshot for instance %s", vc.Name, cfg.InstanceID)
	}

	path := database.LedgerPath(backupDir)
	if !force {
		local, err := localOperations(path)
		if err != nil {
			return 0, err
		}
		if local > 0 {
			return 0, fmt.Errorf("ledger at %s already records %d operation(s) (use --force to replace it)", path, local)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("creating ledger directory: %w", err)
	}

	tmpPath, err := fetchSnapshot(v, cfg.InstanceID, filepath.Dir(path))
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmpPath)

	if err := checkSnapshot(tmpPath); err != nil {
		return 0, err
	}

	// Leftovers from the replaced ledger would be replayed onto the snapshot.
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("removing %s: %w", path+suffix, err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("installing restored ledger: %w", err)
	}
	return version, nil
}

// localOperations returns the newest operation ID in the ledger at path, or 0
// when there is no ledger or it was never used.
func localOperations(path string) (int64, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("checking ledger: %w", err)
	}

	l, err := database.NewSQLiteLedger(path, nil)
	if err != nil {
		return 0, fmt.Errorf("opening ledger: %w", err)
	}
	defer l.Close()

	err = l.CheckMigrations()
	if errors.Is(err, migrations.ErrNeedsMigration) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger at %s is unreadable (use --force to replace it): %w", path, err)
	}
	return l.MaxSyncOperationID()
}

func findVault(vaults []config.VaultConfig, name string) (config.VaultConfig, error) {
	if len(vaults) == 0 {
		return config.VaultConfig{}, fmt.Errorf("no vaults configured")
	}
	if name == "" {
		return vaults[0], nil
	}
	for _, vc := range vaults {
		if vc.Name == name {
			return vc, nil
		}
	}
	return config.VaultConfig{}, fmt.Errorf("no vault named %q", name)
}

// fetchSnapshot downloads the ledger snapshot into a temp file in dir.
func fetchSnapshot(v backup.Vault, instanceID, dir string) (string, error) {
	f, err := os.CreateTemp(dir, ".restore-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for ledger snapshot: %w", err)
	}
	tmpPath := f.Name()

	if err := v.GetMetadata(instanceID, ledgerSnapshotName, f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("downloading ledger snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("syncing ledger snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing ledger snapshot: %w", err)
	}
	return tmpPath, nil
}

// checkSnapshot opens the downloaded file and verifies it is a current ledger.
func checkSnapshot(path string) error {
	l, err := database.NewSQLiteLedger(path, nil)
	if err != nil {
		return fmt.Errorf("opening restored ledger: %w", err)
	}
	defer l.Close()
	if err := l.CheckMigrations(); err != nil {
		return fmt.Errorf("restored ledger is not usable: %w", err)
	}
	return nil
}
