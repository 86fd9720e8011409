package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/stake-plus/govcomms-suggestions/src/actions"
	"github.com/stake-plus/govcomms-suggestions/src/data"
)

func newServeCmd(rt *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the suggestion bot and the read API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := rt.openDB()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			var rdb *redis.Client
			if rt.env.RedisURL != "" {
				if rdb, err = data.ConnectRedis(ctx, rt.env.RedisURL); err != nil {
					return err
				}
				defer rdb.Close()
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			manager, err := actions.StartAll(ctx, actions.Deps{
				DB:       db,
				Redis:    rdb,
				Registry: reg,
				Logger:   rt.log,
				Env:      rt.env,
			})
			if err != nil {
				return err
			}

			<-ctx.Done()
			rt.log.Info("suggestions: shutting down")

			stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			manager.Stop(stopCtx)
			return nil
		},
	}
}
