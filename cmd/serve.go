package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sales dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			container, err := opts.containerFor(cmd, cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			if container.CacheWatcher != nil {
				g.Go(func() error {
					container.CacheWatcher.Run(ctx)
					return nil
				})
			}
			if cfg.Server.RefreshInterval > 0 {
				container.Logger.Info("Starting periodic dataset refresher", slog.Duration("interval", cfg.Server.RefreshInterval))
				container.DatasetRefresherService.StartPeriodicJob(ctx, cfg.Server.RefreshInterval)
			}
			g.Go(func() error {
				// A failed listen cancels ctx and stops the watcher.
				defer stop()
				return container.DashboardHttpServer.Start(ctx)
			})

			return g.Wait()
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	return serveCmd
}
