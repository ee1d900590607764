// Package gateway exposes the tool server over HTTP. It wraps the
// streamable MCP handler with bearer authentication and adds health,
// status and metrics endpoints for operators.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/syncmcp/internal/config"
	"github.com/flemzord/syncmcp/internal/history"
	"github.com/flemzord/syncmcp/internal/metrics"
	"github.com/flemzord/syncmcp/internal/probe"
	"github.com/flemzord/syncmcp/internal/registry"
)

// Gateway is the HTTP front of the tool server.
type Gateway struct {
	config    config.HTTP
	logger    *slog.Logger
	mcp       http.Handler
	reg       *registry.Registry
	prober    *probe.Prober
	metrics   *metrics.Metrics
	history   *history.Store
	version   string
	server    *http.Server
	startedAt time.Time
}

// New assembles a gateway. prober, metrics and history may be nil; the
// corresponding endpoints degrade gracefully.
func New(cfg config.HTTP, logger *slog.Logger, mcpHandler http.Handler, reg *registry.Registry,
	prober *probe.Prober, m *metrics.Metrics, store *history.Store, version string) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:  cfg,
		logger:  logger,
		mcp:     mcpHandler,
		reg:     reg,
		prober:  prober,
		metrics: m,
		history: store,
		version: version,
	}
}

// Start validates the configuration, binds the listener and serves in the
// background.
func (g *Gateway) Start() error {
	if g.config.BearerToken == "" {
		return errors.New("gateway: bearer token is required for HTTP mode")
	}
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}

	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
