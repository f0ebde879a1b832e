// Package health serves the liveness endpoint of the bot process.
package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/fitbot/internal/constants"
	"github.com/julianstephens/fitbot/internal/logger"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checks are the inputs of /healthz. NextSnapshot may be nil.
type Checks struct {
	Store        Pinger
	StoreKind    string
	Sessions     Pinger
	NextSnapshot func() time.Time
}

// NewRouter returns a gin engine serving GET /healthz and GET /version.
func NewRouter(c Checks) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", healthHandler(c))
	r.GET("/version", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"version": constants.Version})
	})
	return r
}

func healthHandler(c Checks) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), pingTimeout)
		defer cancel()

		ok := true
		body := gin.H{"store": c.StoreKind}
		if err := c.Store.Ping(pingCtx); err != nil {
			ok = false
			body["store_error"] = "unreachable"
			logger.Warn("Health check: store ping failed", "error", err)
		}
		if c.Sessions != nil {
			if err := c.Sessions.Ping(pingCtx); err != nil {
				// Sessions degrade to Idle, so the process stays healthy.
				body["sessions"] = "degraded"
			} else {
				body["sessions"] = "ok"
			}
		}
		if c.NextSnapshot != nil {
			if next := c.NextSnapshot(); !next.IsZero() {
				body["next_snapshot"] = next.Format(time.RFC3339)
			}
		}
		body["ok"] = ok

		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		ctx.JSON(status, body)
	}
}

// Serve runs the router on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Health endpoint listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
