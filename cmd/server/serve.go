package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/coderun/config"
	"github.com/isdmx/coderun/httpserver"
	"github.com/isdmx/coderun/logger"
	"github.com/isdmx/coderun/mcpserver"
	"github.com/isdmx/coderun/sandbox"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server selected by server.transport",
	Long: `Start coderun as a long-running service.

  http   web page and POST /run on server.http_port
  stdio  MCP tool run_code over standard input/output
  mcp    MCP tool run_code over streamable HTTP on server.mcp_port`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	app := fx.New(
		fx.Provide(
			config.New,
			logger.NewFromConfig,
			sandbox.NewExecutor,
			sandbox.NewRunnerFromConfig,
		),
		fx.Invoke(registerTransport),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}

	app.Run()
	return nil
}

// registerTransport builds only the server named by server.transport.
func registerTransport(lc fx.Lifecycle, sd fx.Shutdowner, cfg *config.Config, log *zap.Logger, runner *sandbox.Runner) error {
	switch cfg.Server.Transport {
	case config.TransportHTTP:
		srv := httpserver.New(cfg, log, runner)
		lc.Append(fx.Hook{
			OnStart: srv.Start,
			OnStop:  srv.Shutdown,
		})
	case config.TransportStdio, config.TransportMCP:
		srv, err := mcpserver.New(cfg, log, runner)
		if err != nil {
			return err
		}
		lc.Append(mcpHook(cfg.Server.Transport, srv, sd, log))
	}
	return nil
}

func mcpHook(transport string, srv *mcpserver.MCPServer, sd fx.Shutdowner, log *zap.Logger) fx.Hook {
	serve := srv.ServeHTTP
	if transport == config.TransportStdio {
		serve = srv.ServeStdio
	}

	return fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				err := serve()
				switch {
				case err == nil, errors.Is(err, http.ErrServerClosed), errors.Is(err, context.Canceled):
					log.Info("MCP server stopped", zap.String("transport", transport))
				default:
					log.Error("MCP server failed", zap.String("transport", transport), zap.Error(err))
				}
				// stdio ends when the client closes its end; take the app down with it.
				if shutdownErr := sd.Shutdown(); shutdownErr != nil {
					log.Debug("shutdown already in progress", zap.Error(shutdownErr))
				}
			}()
			return nil
		},
		OnStop: srv.Shutdown,
	}
}
