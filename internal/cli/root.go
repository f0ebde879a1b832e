package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/julianstephens/fitbot/internal/config"
	"github.com/julianstephens/fitbot/internal/ledger"
	"github.com/julianstephens/fitbot/internal/storage"
)

// Context is bound into every kong command.
type Context struct {
	Config config.Config
	Store  storage.Provider
	Out    io.Writer
}

func NewContext(cfg config.Config) *Context {
	return &Context{
		Config: cfg,
		Store:  storage.Open(cfg.DB),
		Out:    os.Stdout,
	}
}

func (c *Context) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// load opens the store without touching the schema.
func (c *Context) load(ctx context.Context) error {
	if err := c.Store.Load(ctx); err != nil {
		return fmt.Errorf("failed to load database %s: %w", c.Store.GetConfigPath(), err)
	}
	return nil
}

func (c *Context) ledger() (*ledger.Ledger, error) {
	loc, err := c.Config.Location()
	if err != nil {
		return nil, err
	}
	return ledger.New(c.Store, loc), nil
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}
