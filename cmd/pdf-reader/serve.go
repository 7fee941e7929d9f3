package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf-reader/internal/api"
	"github.com/spherical/pdf-reader/internal/pdf"
	"github.com/spherical/pdf-reader/internal/present"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reader sessions over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return fmt.Errorf("invalid --addr: %w", err)
				}
				p, err := strconv.Atoi(port)
				if err != nil {
					return fmt.Errorf("invalid --addr port: %w", err)
				}
				cfg.Server.Host, cfg.Server.Port = host, p
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine := pdf.NewFitzEngine()
			store := api.NewSessionStore(func(id string) *present.Adapter {
				log := logger.WithSession(id)
				return newAdapter(engine, present.NewLogNotifier(log), log)
			}, cfg.Server.MaxSessions)

			logger.Info().
				Str("addr", cfg.Server.Addr()).
				Float64("max_size_mb", cfg.Upload.MaxSizeMB).
				Float64("scale", cfg.Render.Scale).
				Int("max_sessions", cfg.Server.MaxSessions).
				Msg("Starting PDF reader API")

			router := api.NewRouter(logger, store, cfg.Upload.MaxSizeMB)
			return api.NewServer(cfg.Server, router, logger).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address host:port (overrides config)")

	return cmd
}
