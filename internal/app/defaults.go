package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - GDRIVE_BACKUP_CONFIG: config file location (default: ~/.config/gdrive-backup.toml)
//   - GDRIVE_BACKUP_HOME: directory for credentials, token and logs (default: ~/.local/share/gdrive-backup)
//
// The mirror itself defaults to ~/gdrive-backup.
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	homeDir, err := getHomeDir()
	if err != nil {
		return nil, err
	}

	backupDir, err := getBackupDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"home_dir":    homeDir,
		"log_dir":     filepath.Join(homeDir, "log"),
		"backup_dir":  backupDir,
	}, nil
}

// getConfigPath returns the config file path, checking GDRIVE_BACKUP_CONFIG first,
// then falling back to ~/.config/gdrive-backup.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("GDRIVE_BACKUP_CONFIG"); path != "" {
		return path, nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(userHome, ".config", "gdrive-backup.toml"), nil
}

// getHomeDir returns the application data directory, checking GDRIVE_BACKUP_HOME
// first, then falling back to the XDG default ~/.local/share/gdrive-backup.
func getHomeDir() (string, error) {
	if path := os.Getenv("GDRIVE_BACKUP_HOME"); path != "" {
		return path, nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(userHome, ".local", "share", "gdrive-backup"), nil
}

func getBackupDir() (string, error) {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(userHome, "gdrive-backup"), nil
}
