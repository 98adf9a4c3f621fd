package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcpconnect/internal/config"
	"mcpconnect/internal/server"
	"mcpconnect/internal/session"
	"mcpconnect/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long graceful shutdown may take before the
// process gives up on in-flight requests.
const shutdownTimeout = 10 * time.Second

// Application bootstraps and runs mcpconnect. It follows a two-phase
// pattern: NewApplication loads configuration and wires the services, Run
// drives the server until a signal or a fatal error arrives.
type Application struct {
	cfg      config.Config
	sessions *session.Registry
	server   *server.Server
}

// NewApplication creates and initializes an application instance. It
// configures logging, loads the configuration file, applies command-line
// overrides, and builds the session registry and HTTP server.
func NewApplication(opts *Config) (*Application, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if opts.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stdout)

	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}

	sessions := session.NewRegistry()

	return &Application{
		cfg:      cfg,
		sessions: sessions,
		server:   server.New(cfg, sessions),
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled, an
// interrupt arrives, or the server fails. All live sessions are disconnected
// before Run returns.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		logging.Info("Bootstrap", "Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.sessions.Drain()

	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}
