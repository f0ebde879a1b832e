package cli

import (
	"context"
	"fmt"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(context.Background()); err != nil {
		return err
	}
	defer ctx.Store.Close()
	ctx.printf("Initialized fitbot storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	bg := context.Background()
	if err := ctx.Store.Init(bg); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer ctx.Store.Close()

	current, latest, err := ctx.Store.SchemaVersion(bg)
	if err != nil {
		return err
	}
	ctx.printf("✓ Schema version: %d (latest: %d)\n", current, latest)
	return nil
}
