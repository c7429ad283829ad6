// pawctl is the admin CLI: migration status, backup operations, and VAPID
// key generation. It operates directly on the database file, so stop the
// server before running restore.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hollyoak/pawtrail/internal/backup"
	"github.com/hollyoak/pawtrail/internal/config"
	"github.com/hollyoak/pawtrail/internal/database"
	"github.com/hollyoak/pawtrail/internal/model"
	"github.com/hollyoak/pawtrail/internal/push"
	"github.com/hollyoak/pawtrail/internal/store"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "pawctl",
		Short:         "PawTrail admin tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "pawtrail.yaml", "path to the config file")

	root.AddCommand(statusCmd(), backupCmd(), vapidCmd())

	if err := root.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func openDB() (config.Config, *sql.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, db, nil
}

func newBackupManager(cfg config.Config, db *sql.DB) *backup.Manager {
	return backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.S3Endpoint,
			Bucket:    cfg.Backup.S3Bucket,
			Region:    cfg.Backup.S3Region,
			AccessKey: cfg.Backup.S3AccessKey,
			SecretKey: cfg.Backup.S3SecretKey,
		},
		DBPath:        cfg.Database.Path,
		Passphrase:    cfg.Backup.Passphrase,
		Schedule:      cfg.Backup.Schedule,
		RetentionDays: cfg.Backup.RetentionDays,
	}, db, store.NewBackupStore(db), slog.Default(), nil)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Status(db)
		},
	}
}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage encrypted backups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run a backup now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := newBackupManager(cfg, db).RunNow(context.Background())
			if err != nil {
				return err
			}
			color.Green("backup %d completed", id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recent backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			backups, err := store.NewBackupStore(db).List(20)
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Println("no backups yet")
				return nil
			}
			for _, b := range backups {
				line := fmt.Sprintf("%4d  %s  %8d bytes  %-10s  %s",
					b.ID, b.CreatedAt.Format(time.RFC3339), b.SizeBytes, b.Status, b.Filename)
				switch b.Status {
				case model.BackupStatusCompleted:
					color.Green(line)
				case model.BackupStatusFailed:
					color.Red("%s  (%s)", line, b.ErrorMessage)
				default:
					color.Yellow(line)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore <id>",
		Short: "Restore the database from a backup (stop the server first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid backup id %q", args[0])
			}

			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := newBackupManager(cfg, db).Restore(context.Background(), id); err != nil {
				return err
			}
			color.Green("restore complete, restart the server")
			return nil
		},
	})

	var outputPath string
	download := &cobra.Command{
		Use:   "download <id>",
		Short: "Download an encrypted backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid backup id %q", args[0])
			}

			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			body, size, err := newBackupManager(cfg, db).Download(context.Background(), id)
			if err != nil {
				return err
			}
			defer body.Close()

			out, err := os.Create(outputPath)
			if err != nil {
				return err
			}
			defer out.Close()
			if _, err := io.Copy(out, body); err != nil {
				return err
			}
			color.Green("wrote %d bytes to %s", size, outputPath)
			return nil
		},
	}
	download.Flags().StringVarP(&outputPath, "output", "o", "backup.db.enc", "output file path")
	cmd.AddCommand(download)

	return cmd
}

func vapidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid",
		Short: "Generate a VAPID key pair for push notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Printf("PAWTRAIL_VAPID_PUBLIC_KEY=%s\n", pub)
			fmt.Printf("PAWTRAIL_VAPID_PRIVATE_KEY=%s\n", priv)
			return nil
		},
	}
}
