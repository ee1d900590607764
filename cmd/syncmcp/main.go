// Package main is the entry point for the syncmcp CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/flemzord/syncmcp/internal/config"
	"github.com/flemzord/syncmcp/internal/gateway"
	"github.com/flemzord/syncmcp/internal/history"
	"github.com/flemzord/syncmcp/internal/metrics"
	"github.com/flemzord/syncmcp/internal/probe"
	"github.com/flemzord/syncmcp/internal/registry"
	"github.com/flemzord/syncmcp/internal/syncthing"
	"github.com/flemzord/syncmcp/internal/telemetry"
	"github.com/flemzord/syncmcp/internal/tools"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "syncmcp",
		Short:         "MCP server exposing Syncthing instances as agent tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.AddCommand(versionCmd(), serveCmd(), httpCmd(), configCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("syncmcp %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd, serveStdio)
			if err != nil {
				return err
			}
			defer app.shutdown()
			return server.ServeStdio(app.mcp)
		},
	}
}

func httpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "http",
		Short: "Serve MCP over streamable HTTP with bearer auth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd, serveHTTP)
			if err != nil {
				return err
			}
			defer app.shutdown()

			httpHandler := server.NewStreamableHTTPServer(app.mcp, server.WithStateLess(true))
			gw := gateway.New(app.cfg.HTTP, app.logger, httpHandler, app.reg,
				app.prober, app.metrics, app.history, version)
			if err := gw.Start(); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			return gw.Stop(context.Background())
		},
	}
}

type serveMode int

const (
	serveStdio serveMode = iota
	serveHTTP
)

// app bundles everything the serve commands assemble.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	reg     *registry.Registry
	metrics *metrics.Metrics
	history *history.Store
	prober  *probe.Prober
	mcp     *server.MCPServer

	stopTelemetry func(context.Context) error
}

// buildApp loads configuration and wires the server. Stdio mode keeps all
// logging on stderr and skips the HTTP-only machinery.
func buildApp(cmd *cobra.Command, mode serveMode) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = resolveConfigPath()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if os.Getenv("SYNCMCP_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	stopTelemetry, err := telemetry.Setup(context.Background(),
		cfg.Telemetry.Endpoint, cfg.Telemetry.Insecure, "syncmcp", version)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, stopTelemetry: stopTelemetry}

	if mode == serveHTTP {
		a.metrics = metrics.New()
	}

	a.reg = registry.New(logger, cfg.Instances, a.clientOptions()...)

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.history = store
	}

	if mode == serveHTTP && cfg.Probe.Schedule != "" {
		a.prober = probe.New(a.reg, a.metrics, logger, cfg.Probe.Schedule)
		if a.history != nil {
			retention := cfg.History.Retention
			a.prober.WithPrune("0 3 * * *", func(ctx context.Context) {
				if n, err := a.history.Prune(ctx, retention); err != nil {
					logger.Warn("history prune failed", "error", err)
				} else if n > 0 {
					logger.Info("history pruned", "removed", n)
				}
			})
		}
		if err := a.prober.Start(); err != nil {
			return nil, err
		}
	}

	s := server.NewMCPServer("syncmcp", version, server.WithToolCapabilities(false))
	tools.NewBundle(a.reg, logger, a.metrics, a.history).Register(s)
	a.mcp = s

	logger.Info("server ready", "instances", a.reg.Len(), "version", version)
	return a, nil
}

// clientOptions feeds REST call outcomes into the metrics collectors.
func (a *app) clientOptions() []syncthing.Option {
	if a.metrics == nil {
		return nil
	}
	m := a.metrics
	return []syncthing.Option{
		syncthing.WithObserver(func(instance, method, _ string, status int, err error, _ time.Duration) {
			class := "error"
			switch {
			case err != nil:
			case status >= 500:
				class = "5xx"
			case status >= 400:
				class = "4xx"
			case status >= 300:
				class = "3xx"
			case status >= 200:
				class = "2xx"
			}
			m.ObserveRemote(instance, method, class)
		}),
	}
}

func (a *app) shutdown() {
	if a.prober != nil {
		a.prober.Stop()
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("history close failed", "error", err)
		}
	}
	if a.stopTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.stopTelemetry(ctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", "error", err)
		}
	}
}

// resolveConfigPath searches standard locations for a config file. An empty
// return means environment-only configuration, which is the common stdio
// deployment.
func resolveConfigPath() string {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "syncmcp", "syncmcp.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "syncmcp", "syncmcp.yaml"))
	}
	candidates = append(candidates, "syncmcp.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
