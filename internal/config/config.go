package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for gdrive-backup.
type Config struct {
	InstanceID string         `toml:"instance_id"`
	BackupDir  string         `toml:"backup_dir"`
	LogDir     string         `toml:"log_dir"`
	Drive      DriveConfig    `toml:"drive"`
	Retry      RetryConfig    `toml:"retry"`
	Database   DatabaseConfig `toml:"database"`
	Vaults     []VaultConfig  `toml:"vaults"`
}

// DriveConfig holds the Google Drive connection settings.
type DriveConfig struct {
	CredentialsFile string `toml:"credentials_file"` // OAuth client secrets (credentials.json)
	TokenFile       string `toml:"token_file"`       // cached user token (token.json)
	RootFolderID    string `toml:"root_folder_id"`   // defaults to "root"
	ChunkSize       int64  `toml:"chunk_size"`       // bytes per ranged download; defaults to 100 MiB
}

// RetryConfig tunes the retry policy for remote calls. Zero values use the defaults
// (3 attempts, waits between 4s and 10s).
type RetryConfig struct {
	MaxAttempts int   `toml:"max_attempts,omitempty"`
	BaseDelayMS int64 `toml:"base_delay_ms,omitempty"`
	MinDelayMS  int64 `toml:"min_delay_ms,omitempty"`
	MaxDelayMS  int64 `toml:"max_delay_ms,omitempty"`
}

// VaultConfig represents configuration for a ledger snapshot vault.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"`   // S3-compatible servers; enables path-style addressing
	S3AccessKey string `toml:"s3_access_key,omitempty"` // static credentials; empty uses the default AWS chain
	S3SecretKey string `toml:"s3_secret_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DatabaseConfig represents configuration for the version ledger.
// The sqlite ledger always lives in <backup_dir>/__ledger__/.
type DatabaseConfig struct {
	Type string `toml:"type"` // "sqlite" or "memory"
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(instanceID, homeDir, backupDir string) *Config {
	return &Config{
		InstanceID: instanceID,
		BackupDir:  backupDir,
		LogDir:     filepath.Join(homeDir, "log"),
		Drive: DriveConfig{
			CredentialsFile: filepath.Join(homeDir, "credentials.json"),
			TokenFile:       filepath.Join(homeDir, "token.json"),
			RootFolderID:    "root",
		},
		Database: DatabaseConfig{Type: "sqlite"},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
