package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dori/swimlane/internal/config"
	"github.com/dori/swimlane/internal/db"
	"github.com/dori/swimlane/internal/logging"
	"github.com/dori/swimlane/internal/server"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local database over HTTP",
		Long: `serve exposes the SQLite task store as a JSON API so boards on other
machines can use it with the http backend. Requests need a bearer token
when server.auth_secret is set (see "swimlane token"). Task lists are cached
in Redis when server.redis_url is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Backend != config.BackendSQLite {
				return fmt.Errorf("serve needs the %s backend, config has %q", config.BackendSQLite, cfg.Backend)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	log, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer closeLog()

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	ctx := cmd.Context()

	var backend server.Backend = database
	if cfg.Server.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.Server.RedisURL, log)
		if err != nil {
			return err
		}
		defer rdb.Close()
		backend = server.NewCache(database, rdb, cfg.Server.CacheTTL, log)
	}

	if cfg.Server.AuthSecret == "" {
		log.Warn("server.auth_secret is empty, the API accepts unauthenticated requests")
	}

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		AuthSecret:      cfg.Server.AuthSecret,
		ShutdownTimeout: shutdownTimeout,
	}, backend, log)
	return srv.Run(ctx)
}

// openRedis connects to the task cache. An unreachable server is only
// logged; the cache falls back to the database on every error.
func openRedis(ctx context.Context, url string, log logrus.FieldLogger) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("server.redis_url: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).WithField("addr", opt.Addr).Warn("redis unreachable, serving without a warm cache")
	} else {
		log.WithField("addr", opt.Addr).Info("task cache enabled")
	}
	return rdb, nil
}
