// Package app wires the HTTP admission boundary around the bridge
// health engine: it is the outermost layer, outside the core described
// by C1-C7, and owns only the process's HTTP lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/thushan/obfswatch/internal/adapter/probe"
	"github.com/thushan/obfswatch/internal/adapter/transport"
	"github.com/thushan/obfswatch/internal/config"
	"github.com/thushan/obfswatch/internal/engine"
	"github.com/thushan/obfswatch/internal/logger"
	"github.com/thushan/obfswatch/internal/router"
)

// Application owns the HTTP server, the route registry, and the bridge
// health engine beneath it.
type Application struct {
	config   *config.Config
	server   *http.Server
	logger   *logger.StyledLogger
	registry *router.RouteRegistry
	engine   *engine.Engine
	facade   *transport.Facade
	errCh    chan error
}

func New(cfg *config.Config, log *logger.StyledLogger) (*Application, error) {
	facade := transport.New(transport.Config{
		BinPath:  cfg.Transport.BinPath,
		Protocol: cfg.Transport.Protocol,
	})
	executor := probe.New(facade, log)
	eng := engine.New(facade, executor, log)

	registry := router.NewRouteRegistry(log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Application{
		config:   cfg,
		server:   server,
		logger:   log,
		registry: registry,
		engine:   eng,
		facade:   facade,
		errCh:    make(chan error, 1),
	}, nil
}

// Start wires the routes and begins serving. It does not block; the
// engine's transport bootstrap and its background coordinator (C3/C4)
// start lazily on the first POST /bridge-state call, but they run under
// ctx - the process-lifetime context passed in here - not under that
// request's own context, so they keep running for every request after
// the first and are stopped only when ctx is cancelled at shutdown.
func (a *Application) Start(ctx context.Context) error {
	a.engine.Start(ctx)

	go func() {
		select {
		case err := <-a.errCh:
			a.logger.Error("server startup error", "error", err)
		case <-ctx.Done():
			return
		}
	}()

	a.startWebServer()

	a.logger.Info("obfswatch started", "bind", a.server.Addr)
	return nil
}

// Stop shuts the HTTP server down and tears down the transport helper
// process and the engine's event buses.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.config.Server.ShutdownTimeout)
	defer cancel()

	a.engine.Shutdown()
	a.facade.Stop()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (a *Application) registerRoutes() {
	a.registry.RegisterWithMethod("/bridge-state", a.handleBridgeState, "Probe bridges and start the engine", "POST")
	a.registry.RegisterWithMethod("/add-bridges", a.handleAddBridges, "Admit new bridges into the running pool", "POST")
	a.registry.Register("/updates", a.handleUpdates, "Long-poll bridge state deltas")
	a.registry.Register("/internal/health", a.healthHandler, "Process liveness probe")
}

func (a *Application) startWebServer() {
	a.logger.Info("starting web server", "host", a.config.Server.Host, "port", a.config.Server.Port)

	mux := http.NewServeMux()
	a.registerRoutes()
	a.registry.WireUp(mux)
	a.server.Handler = mux

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
			a.errCh <- err
		}
	}()
}
