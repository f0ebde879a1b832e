package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/fitbot/internal/keyring"
	"github.com/julianstephens/fitbot/internal/session"
	"github.com/julianstephens/fitbot/internal/storage"
)

type DoctorCmd struct{}

type check struct {
	name     string
	warnOnly bool
	needsDB  bool
	run      func(context.Context, *Context) error
}

var doctorChecks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Data validation", needsDB: true, run: checkValidation},
	{name: "Bot token", run: checkToken},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Session store", warnOnly: true, run: checkSessions},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	bg := context.Background()
	defer ctx.Store.Close()

	hasError := false
	dbReachable := false
	for _, c := range doctorChecks {
		if c.needsDB && !dbReachable {
			ctx.printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(bg, ctx)
		switch {
		case err == nil:
			ctx.printf("✓ %s: OK\n", c.name)
			if c.name == "Database reachable" {
				dbReachable = true
			}
		case c.warnOnly:
			ctx.printf("⚠ %s: WARNING\n", c.name)
			ctx.printf("   %v\n", err)
		default:
			ctx.printf("❌ %s: FAIL\n", c.name)
			ctx.printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkDBReachable(bg context.Context, ctx *Context) error {
	if err := ctx.load(bg); err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(bg, 5*time.Second)
	defer cancel()
	return ctx.Store.Ping(pingCtx)
}

func checkSchemaVersion(bg context.Context, ctx *Context) error {
	current, latest, err := ctx.Store.SchemaVersion(bg)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'fitbot migrate')", current, latest)
	}
	return nil
}

func checkValidation(bg context.Context, ctx *Context) error {
	users, err := ctx.Store.ListUsers(bg)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		if u.Weight != nil && *u.Weight <= 0 {
			return fmt.Errorf("user %d has a non-positive weight %v", u.ID, *u.Weight)
		}
	}
	return nil
}

func checkToken(_ context.Context, ctx *Context) error {
	token, err := keyring.ResolveToken(ctx.Config.Token)
	if err != nil {
		return err
	}
	return keyring.ValidateToken(token)
}

func checkBackupsPresent(_ context.Context, ctx *Context) error {
	mgr, err := ctx.backups()
	if errors.Is(err, errNotSQLite) {
		return nil
	}
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'fitbot backup create'")
	}
	return nil
}

func checkSessions(bg context.Context, ctx *Context) error {
	if ctx.Config.RedisURL == "" {
		return nil
	}
	r, err := session.NewRedis(bg, ctx.Config.RedisURL, ctx.Config.SessionTTL.Duration())
	if err != nil {
		return fmt.Errorf("redis unreachable, sessions would not survive restarts: %w", err)
	}
	return r.Close()
}

func checkClockTimezone(_ context.Context, ctx *Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	sched, err := ctx.Config.Schedule()
	if err != nil {
		return err
	}
	ctx.printf("   Next snapshot: %s\n", sched.NextBoundary(now).Format(time.RFC3339))
	if storage.Kind(ctx.Config.DB) == storage.KindMemory {
		ctx.printf("   Note: the memory store loses all data on exit\n")
	}
	return nil
}
