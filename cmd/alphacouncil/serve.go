package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/alphacouncil/pkg/pipeline"
	"github.com/zen-systems/alphacouncil/pkg/server"
)

func serveCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API and provider proxy routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}

			cfg := server.Config{
				Host:            a.cfg.Server.Host,
				Port:            a.cfg.Server.Port,
				CORSOrigins:     a.cfg.Server.CORSOrigins,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				SessionTTL:      a.cfg.Server.SessionTTL,
				MaxSessions:     a.cfg.Server.MaxSessions,
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			srv := server.New(cfg, server.Deps{
				NewController: a.newController,
				Executor:      a.executor,
				Quotes:        a.quotes,
				Catalog:       a.catalog,
				Gatherer:      a.registry,
			}, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.logger.Info("alphacouncil ready",
				slog.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
				slog.Any("stages", a.stages.IDs()),
				slog.Any("default_keys", configuredKeys(a)),
			)

			group, ctx := errgroup.WithContext(ctx)
			group.Go(func() error {
				if err := srv.ListenAndServe(ctx); err != nil {
					return fmt.Errorf("http server error: %w", err)
				}
				return nil
			})
			group.Go(func() error {
				return srv.SweepSessions(ctx)
			})
			return group.Wait()
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

func configuredKeys(a *app) []string {
	return pipeline.Credentials(a.cfg.DefaultCredentials()).Names()
}
