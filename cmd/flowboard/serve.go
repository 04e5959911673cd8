package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/flowboard"
	"github.com/meikuraledutech/flowboard/httpapi"
	"github.com/meikuraledutech/flowboard/metrics"
	"github.com/meikuraledutech/flowboard/redisfeed"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer closeStore()

			if cfg.Storage.AutoSchema {
				if err := store.CreateSchema(ctx); err != nil {
					return err
				}
			}

			opts := httpapi.Options{Store: store, Logger: logger, AccessLog: true}
			if cfg.Server.Metrics {
				opts.Metrics = metrics.New()
			}
			if cfg.Redis.Addr != "" {
				rdb := redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,

					ContextTimeoutEnabled: true,
				})
				defer rdb.Close()
				if err := rdb.Ping(ctx).Err(); err != nil {
					return err
				}
				opts.Observers = []flowboard.Observer{redisfeed.NewPublisher(rdb, cfg.Redis.Prefix, logger)}
				logger.Info("change feed enabled", "redis", cfg.Redis.Addr)
			}

			srv := httpapi.New(opts)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", brand.Sprint("flowboard"), version, subtle.Sprint("on "+cfg.Server.Addr+" ("+cfg.Storage.Driver+")"))
			errc := make(chan error, 1)
			go func() { errc <- srv.Listen(cfg.Server.Addr) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
