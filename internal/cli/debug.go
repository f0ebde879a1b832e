package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/fitbot/internal/storage"
)

type DebugCmd struct {
	DBPath   *DebugDBPathCmd   `cmd:"" help:"Show database path and backend."`
	DumpUser *DebugDumpUserCmd `cmd:"" help:"Dump a user and their history as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *Context) error {
	return ctx.writeJSON(map[string]string{
		"path":  ctx.Store.GetConfigPath(),
		"store": storage.Kind(ctx.Config.DB),
	})
}

type DebugDumpUserCmd struct {
	UserID string `arg:"" help:"Telegram user id."`
}

func (cmd *DebugDumpUserCmd) Run(ctx *Context) error {
	id, err := parseUserID(cmd.UserID)
	if err != nil {
		return err
	}
	bg := context.Background()
	if err := ctx.load(bg); err != nil {
		return err
	}
	defer ctx.Store.Close()

	user, err := ctx.Store.GetUser(bg, id)
	if err != nil {
		return fmt.Errorf("failed to get user %d: %w", id, err)
	}
	history, err := ctx.Store.ListWeightHistory(bg, id)
	if err != nil {
		return err
	}
	return ctx.writeJSON(map[string]interface{}{
		"user":    user,
		"history": history,
	})
}

func (c *Context) writeJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	c.println(string(b))
	return nil
}
