// Package server wires configuration, storage, services and listeners into
// one runnable application with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/taskmaster/internal/logging"
	"github.com/dmitrijs2005/taskmaster/internal/server/config"
	"github.com/dmitrijs2005/taskmaster/internal/server/health"
	"github.com/dmitrijs2005/taskmaster/internal/server/metrics"
	"github.com/dmitrijs2005/taskmaster/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskmaster/internal/server/rest"
	"github.com/dmitrijs2005/taskmaster/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	rest   *rest.Server
	health *health.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.New(c.LogFormat, logOut)
	if err != nil {
		return nil, err
	}

	repos, err := newRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := services.NewUserService(repos, c)
	ts := services.NewTaskService(repos)

	app := &App{
		config: c,
		logger: logger,
		repos:  repos,
		rest:   rest.NewServer(c, logger, us, ts, metrics.New()),
	}
	if c.EndpointAddrGRPC != "" {
		app.health = health.NewGRPCServer(c.EndpointAddrGRPC, logger)
	}

	return app, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.StorageType {
	case config.StoragePostgres:
		return repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	case config.StorageMemory, "":
		return repomanager.NewInMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", c.StorageType)
	}
}

// Run serves until ctx is cancelled, a termination signal arrives, or one of
// the listeners fails. A listener failure stops the other one too.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageType)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	start := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancel()
			}
		}()
	}

	start("rest", app.rest.Run)
	if app.health != nil {
		start("grpc", app.health.Run)
	}

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")

	return errors.Join(errs...)
}
