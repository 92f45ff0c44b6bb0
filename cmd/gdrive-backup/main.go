package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gdrive-backup/internal/app"
	"gdrive-backup/internal/backup"
	"gdrive-backup/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const defaultStartDate = "2010-01-01"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when there is none.
// A --backup-dir flag overrides the configured mirror directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	path := defaults["config_path"]
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		path = p
	}

	cfg, err := config.ReadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.NewConfig("", defaults["home_dir"], defaults["backup_dir"])
	} else if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if cfg.LogDir == "" {
		cfg.LogDir = defaults["log_dir"]
	}
	if cmd.Flags().Lookup("backup-dir") != nil {
		if dir, _ := cmd.Flags().GetString("backup-dir"); dir != "" {
			cfg.BackupDir = dir
		}
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = defaults["backup_dir"]
	}
	return cfg, nil
}

func logOptions(cmd *cobra.Command, cfg *config.Config) (app.LogOptions, error) {
	console, _ := cmd.Flags().GetBool("log-console")
	file, _ := cmd.Flags().GetBool("log-file")
	levelName, _ := cmd.Flags().GetString("log-level")

	level, err := app.ParseLevel(levelName)
	if err != nil {
		return app.LogOptions{}, err
	}
	return app.LogOptions{Console: console, File: file, Level: level, Dir: cfg.LogDir}, nil
}

// newApp reads the config and creates a SyncApp that talks to Google Drive.
// The caller must defer app.Close().
func newApp(cmd *cobra.Command, operation string) (*app.SyncApp, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := logOptions(cmd, cfg)
	if err != nil {
		return nil, err
	}

	a, err := app.NewSyncApp(cmd.Context(), cfg, opts, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// newLedgerApp opens the ledger without connecting to Google Drive.
func newLedgerApp(cmd *cobra.Command, operation string) (*app.SyncApp, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := logOptions(cmd, cfg)
	if err != nil {
		return nil, err
	}

	a, err := app.NewSyncAppWithDrive(cmd.Context(), cfg, nil, opts, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func parseWindow(cmd *cobra.Command) (backup.Window, error) {
	startStr, _ := cmd.Flags().GetString("start-date")
	endStr, _ := cmd.Flags().GetString("end-date")
	if endStr == "" {
		endStr = time.Now().UTC().Format(backup.DateLayout)
	}

	start, err := backup.ParseDate(startStr, time.UTC)
	if err != nil {
		return backup.Window{}, err
	}
	end, err := backup.ParseDate(endStr, time.UTC)
	if err != nil {
		return backup.Window{}, err
	}
	return backup.NewWindow(start, end)
}

func runSync(cmd *cobra.Command, args []string) error {
	window, err := parseWindow(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, "Sync")
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.Sync(cmd.Context(), window)
	fmt.Printf("Synced %d folder(s) into %s: %d downloaded, %d unchanged, %d unsupported, %d failed\n",
		stats.Folders, a.BackupDir(), stats.Downloaded, stats.Unchanged, stats.Unsupported, stats.Failed)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "gdrive-backup",
	Short: "Mirror Google Drive to a local directory with version history",
	RunE:  runSync,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download files modified within a date range",
	RunE:  runSync,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		path := defaults["config_path"]
		if p, _ := cmd.Flags().GetString("config"); p != "" {
			path = p
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults["home_dir"], defaults["backup_dir"])

		if err := config.Init(path, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", path)
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Backup Dir:  %s\n", cfg.BackupDir)
		fmt.Printf("Credentials: %s\n", cfg.Drive.CredentialsFile)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("Instance ID: %s\n", cfg.InstanceID)
		fmt.Printf("Backup Dir:  %s\n", cfg.BackupDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Credentials: %s\n", cfg.Drive.CredentialsFile)
		fmt.Printf("Token:       %s\n", cfg.Drive.TokenFile)
		fmt.Printf("Root Folder: %s\n", cfg.Drive.RootFolderID)
		fmt.Printf("Ledger:      %s\n", cfg.Database.Type)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:       %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// log command
var logCmd = &cobra.Command{
	Use:   "log FILENAME",
	Short: "View the version history of a mirrored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newLedgerApp(cmd, "GetFileHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.GetFileHistory(args[0])
		if err != nil {
			return err
		}

		for _, e := range entries {
			current := ""
			if e.IsCurrent {
				current = "  [current]"
			}
			fmt.Printf("v%02d  %s  modified:%s  %s%s\n",
				e.Version,
				e.RecordedAt.Format("2006-01-02 15:04:05"),
				e.ModifiedTime,
				e.LocalPath,
				current,
			)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View sync operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newLedgerApp(cmd, "GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No sync operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %s  %-8s  %4d new  %4d unchanged  %4d failed  %s\n",
				op.ID,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				op.Downloaded,
				op.Unchanged,
				op.Failed,
				duration,
			)
		}

		versions, err := a.VersionCount()
		if err != nil {
			return err
		}
		fmt.Printf("%d file version(s) recorded\n", versions)
		return nil
	},
}

// restore-ledger command
var restoreLedgerCmd = &cobra.Command{
	Use:   "restore-ledger",
	Short: "Replace the local ledger with the latest vault snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("vault")
		force, _ := cmd.Flags().GetBool("force")

		version, err := app.RestoreLedger(cmd.Context(), cfg, name, force)
		if err != nil {
			return err
		}
		fmt.Printf("Restored ledger snapshot %d into %s\n", version, cfg.BackupDir)
		return nil
	},
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().String("backup-dir", "", "Local mirror directory (default from config, else ~/gdrive-backup)")
	cmd.Flags().String("start-date", defaultStartDate, "First modification day to include (YYYY-MM-DD, UTC)")
	cmd.Flags().String("end-date", "", "Last modification day to include (YYYY-MM-DD, UTC; default today)")
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default $GDRIVE_BACKUP_CONFIG or ~/.config/gdrive-backup.toml)")
	rootCmd.PersistentFlags().Bool("log-console", false, "Write log lines to stderr")
	rootCmd.PersistentFlags().Bool("log-file", false, "Write log lines to <log_dir>/gdrive-backup.log")
	rootCmd.PersistentFlags().String("log-level", "INFO", "Minimum log level: DEBUG, INFO, WARNING, ERROR or CRITICAL")

	addSyncFlags(rootCmd)
	addSyncFlags(syncCmd)
	logCmd.Flags().String("backup-dir", "", "Local mirror directory holding the ledger")
	historyCmd.Flags().String("backup-dir", "", "Local mirror directory holding the ledger")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	restoreLedgerCmd.Flags().String("backup-dir", "", "Local mirror directory holding the ledger")
	restoreLedgerCmd.Flags().String("vault", "", "Vault to restore from (default: the first configured vault)")
	restoreLedgerCmd.Flags().Bool("force", false, "Replace an existing ledger")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(restoreLedgerCmd)
}
