package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/fitbot/internal/config"
	"github.com/julianstephens/fitbot/internal/dispatcher"
	"github.com/julianstephens/fitbot/internal/health"
	"github.com/julianstephens/fitbot/internal/instance"
	"github.com/julianstephens/fitbot/internal/keyring"
	"github.com/julianstephens/fitbot/internal/lifecycle"
	"github.com/julianstephens/fitbot/internal/logger"
	"github.com/julianstephens/fitbot/internal/scheduler"
	"github.com/julianstephens/fitbot/internal/session"
	"github.com/julianstephens/fitbot/internal/storage"
	"github.com/julianstephens/fitbot/internal/telegram"
)

// RunCmd starts the bot, the weekly snapshot scheduler and, when an address
// is configured, the health endpoint.
type RunCmd struct{}

type service struct {
	name string
	run  func(ctx context.Context) error
}

func (c *RunCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	token, err := keyring.ResolveToken(cfg.Token)
	if err != nil {
		return err
	}
	if err := keyring.ValidateToken(token); err != nil {
		return fmt.Errorf("bot token: %w", err)
	}

	lock, err := instance.Acquire(cfg.Dir())
	if err != nil {
		return err
	}
	defer lock.Release()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctx.Store.Init(sigCtx); err != nil {
		return err
	}
	defer ctx.Store.Close()

	sessions, sessionPinger := openSessions(sigCtx, cfg)
	if closer, ok := sessions.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	l, err := ctx.ledger()
	if err != nil {
		return err
	}
	sched, err := cfg.Schedule()
	if err != nil {
		return err
	}

	var opts []scheduler.Option
	if cfg.SnapshotBackup {
		opts = append(opts, scheduler.WithBeforeRun(backupBeforeSnapshot(cfg.DB)))
	}
	snapshots := scheduler.New(sched, l.RunWeeklySnapshot, opts...)

	bot, err := telegram.New(token, dispatcher.New(l, sessions), cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}

	services := []service{
		{name: "scheduler", run: func(ctx context.Context) error {
			snapshots.Run(ctx)
			return nil
		}},
		{name: "telegram", run: bot.Run},
	}
	if cfg.HealthAddr != "" {
		router := health.NewRouter(health.Checks{
			Store:        ctx.Store,
			StoreKind:    storage.Kind(cfg.DB),
			Sessions:     sessionPinger,
			NextSnapshot: snapshots.Next,
		})
		services = append(services, service{name: "health", run: func(ctx context.Context) error {
			return health.Serve(ctx, cfg.HealthAddr, router)
		}})
	}

	logger.Info("fitbot started", "store", storage.Kind(cfg.DB), "schedule", sched.String())
	return runServices(sigCtx, cfg.ShutdownGrace.Duration(), services)
}

// openSessions returns the redis store when one is configured and reachable,
// otherwise the in-memory store. The pinger is nil for memory sessions.
func openSessions(ctx context.Context, cfg config.Config) (session.Store, health.Pinger) {
	if cfg.RedisURL == "" {
		return session.NewMemory(), nil
	}
	r, err := session.NewRedis(ctx, cfg.RedisURL, cfg.SessionTTL.Duration())
	if err != nil {
		logger.Warn("Redis unavailable, keeping sessions in memory", "error", err)
		return session.NewMemory(), nil
	}
	return r, r
}

// runServices runs every service under one lifecycle manager. The first
// service error, or ctx ending, shuts all of them down; they then get grace
// to return.
func runServices(ctx context.Context, grace time.Duration, services []service) error {
	mgr := lifecycle.NewManager(ctx)

	handles := make([]*lifecycle.Handle, 0, len(services))
	for _, s := range services {
		h, err := mgr.NewServiceHandle(s.name)
		if err != nil {
			mgr.Shutdown()
			for _, started := range handles {
				started.Close()
			}
			return err
		}
		handles = append(handles, h)
	}

	var g errgroup.Group
	for i, s := range services {
		s := s
		h := handles[i]
		g.Go(func() error {
			defer h.Close()
			if err := s.run(h.Ctx()); err != nil {
				logger.Error("Service failed", "service", s.name, "error", err)
				mgr.Shutdown()
				return fmt.Errorf("%s: %w", s.name, err)
			}
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(finished)
	}()
	select {
	case <-mgr.Done():
	case <-finished:
		mgr.Shutdown()
	}
	logger.Info("Shutting down", "grace", grace.String())
	if remaining := mgr.WaitWithTimeout(grace); len(remaining) > 0 {
		logger.Warn("Services still running after grace period", "services", remaining)
		return fmt.Errorf("shutdown timed out waiting for %s", strings.Join(remaining, ", "))
	}
	return g.Wait()
}
