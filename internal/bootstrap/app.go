package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
	"github.com/ndelacroix/depanneur/internal/infra/config"
)

// App encapsulates the application lifecycle: seed the knowledge store, then
// serve HTTP until shutdown.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	seeder *diagnostic.Seeder
	server *http.Server
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, seeder *diagnostic.Seeder, server *http.Server) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), seeder: seeder, server: server}
}

// Run seeds the catalogue and starts the HTTP server, blocking until shutdown.
// A seeding failure aborts startup; serving an empty or half-written catalogue
// would answer every query with not_found.
func (a *App) Run(ctx context.Context) error {
	seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := a.seeder.Seed(seedCtx); err != nil {
		return fmt.Errorf("seed knowledge store: %w", err)
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
