package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/fitbot/internal/backup"
	"github.com/julianstephens/fitbot/internal/constants"
	"github.com/julianstephens/fitbot/internal/logger"
	"github.com/julianstephens/fitbot/internal/storage"
)

var errNotSQLite = errors.New("backups are only supported for the sqlite store")

func (c *Context) backups() (*backup.Manager, error) {
	if storage.Kind(c.Config.DB) != storage.KindSQLite {
		return nil, errNotSQLite
	}
	return backup.NewManager(c.Config.DB), nil
}

// backupBeforeSnapshot is the scheduler hook. Non-sqlite stores are skipped.
func backupBeforeSnapshot(dsn string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if storage.Kind(dsn) != storage.KindSQLite {
			logger.Debug("Skipping pre-snapshot backup", "store", storage.Kind(dsn))
			return nil
		}
		_, err := backup.NewManager(dsn).Create(ctx)
		return err
	}
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}
	path, err := mgr.Create(context.Background())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.printf("✓ Backup created: %s\n", filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		ctx.println("No backups found.")
		ctx.printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	t := newTable("Created", "File", "Size")
	for _, b := range backups {
		t.Row(b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), fmt.Sprintf("%.1f KB", float64(b.Size)/1024.0))
	}
	ctx.printf("Available backups (%d total, keeping most recent %d):\n", len(backups), constants.MaxBackups)
	ctx.println(t.String())
	ctx.printf("Backup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}

	path := c.BackupFile
	if !filepath.IsAbs(path) {
		if candidate := filepath.Join(mgr.Dir(), path); fileExists(candidate) {
			path = candidate
		}
	}

	if !c.Yes {
		ctx.printf("Restore %s over %s? Stop the bot first. [y/N]: ", filepath.Base(path), ctx.Config.DB)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
			ctx.println("Restore cancelled.")
			return nil
		}
	}

	previous, err := mgr.Restore(context.Background(), path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if previous != "" {
		ctx.printf("✓ Previous database saved as %s\n", filepath.Base(previous))
	}
	ctx.printf("✓ Restored %s\n", filepath.Base(path))
	return nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
