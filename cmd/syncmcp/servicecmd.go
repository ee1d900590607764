package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kardianos/service"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/flemzord/syncmcp/internal/gateway"
)

// program adapts the HTTP serving loop to the system service manager. Only
// the HTTP transport makes sense as a service; stdio needs a client on the
// other end of the pipe.
type program struct {
	cmd *cobra.Command
	app *app
	gw  *gateway.Gateway
}

func (p *program) Start(service.Service) error {
	app, err := buildApp(p.cmd, serveHTTP)
	if err != nil {
		return err
	}
	p.app = app

	httpHandler := server.NewStreamableHTTPServer(app.mcp, server.WithStateLess(true))
	p.gw = gateway.New(app.cfg.HTTP, app.logger, httpHandler, app.reg,
		app.prober, app.metrics, app.history, version)
	return p.gw.Start()
}

func (p *program) Stop(service.Service) error {
	if p.gw != nil {
		if err := p.gw.Stop(context.Background()); err != nil {
			return err
		}
	}
	if p.app != nil {
		p.app.shutdown()
	}
	return nil
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service [install|uninstall|start|stop|run]",
		Short: "Manage syncmcp as a system service (HTTP mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcConfig := &service.Config{
				Name:        "syncmcp",
				DisplayName: "Syncthing MCP Server",
				Description: "Exposes Syncthing instances as MCP tools over HTTP.",
				Arguments:   []string{"service", "run"},
			}
			if cfgPath, _ := cmd.Flags().GetString("config"); cfgPath != "" {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgPath)
			}

			prg := &program{cmd: cmd}
			svc, err := service.New(prg, svcConfig)
			if err != nil {
				return err
			}

			switch args[0] {
			case "install":
				if err := svc.Install(); err != nil {
					return err
				}
				fmt.Println("Service installed.")
			case "uninstall":
				if err := svc.Uninstall(); err != nil {
					return err
				}
				fmt.Println("Service uninstalled.")
			case "start":
				return svc.Start()
			case "stop":
				return svc.Stop()
			case "run":
				return svc.Run()
			default:
				fmt.Fprintf(os.Stderr, "unknown service action %q\n", args[0])
				os.Exit(2)
			}
			return nil
		},
	}
	return cmd
}
