package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("GDRIVE_BACKUP_CONFIG", "/custom/config.toml")
		t.Setenv("GDRIVE_BACKUP_HOME", "/custom/gdb")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["home_dir"] != "/custom/gdb" {
			t.Errorf("home_dir = %q, want %q", defaults["home_dir"], "/custom/gdb")
		}
		if defaults["log_dir"] != "/custom/gdb/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/gdb/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("GDRIVE_BACKUP_CONFIG", "")
		t.Setenv("GDRIVE_BACKUP_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		userHome, _ := os.UserHomeDir()

		wantConfig := filepath.Join(userHome, ".config", "gdrive-backup.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantHome := filepath.Join(userHome, ".local", "share", "gdrive-backup")
		if defaults["home_dir"] != wantHome {
			t.Errorf("home_dir = %q, want %q", defaults["home_dir"], wantHome)
		}

		wantBackup := filepath.Join(userHome, "gdrive-backup")
		if defaults["backup_dir"] != wantBackup {
			t.Errorf("backup_dir = %q, want %q", defaults["backup_dir"], wantBackup)
		}
	})
}
