package cli

import (
	"context"
	"fmt"
)

// SnapshotCmd runs one weekly snapshot immediately.
type SnapshotCmd struct {
	Backup bool `help:"Back up the sqlite database first."`
}

func (c *SnapshotCmd) Run(ctx *Context) error {
	bg := context.Background()
	if err := ctx.load(bg); err != nil {
		return err
	}
	defer ctx.Store.Close()

	if c.Backup || ctx.Config.SnapshotBackup {
		if err := backupBeforeSnapshot(ctx.Config.DB)(bg); err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
	}

	l, err := ctx.ledger()
	if err != nil {
		return err
	}
	res, err := l.RunWeeklySnapshot(bg)
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	ctx.printf("✓ Snapshot %s for %s: %d written\n", res.RunID, res.Date, res.Written)
	for _, f := range res.Failed {
		ctx.printf("  ❌ user %d: %v\n", f.UserID, f.Err)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d users could not be snapshotted", len(res.Failed))
	}
	return nil
}
