package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratetree/internal/server"
	"github.com/matzehuels/cratetree/pkg/cache"
	"github.com/matzehuels/cratetree/pkg/config"
	"github.com/matzehuels/cratetree/pkg/observability"
	"github.com/matzehuels/cratetree/pkg/pipeline"
	"github.com/matzehuels/cratetree/pkg/session"
)

// Cache backends selectable with --cache.
const (
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	config      configFlags
	addr        string
	backend     string
	redis       cache.RedisConfig
	keyPrefix   string
	sessionTTL  time.Duration
	cleanupTick time.Duration
}

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := &serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve collapsible tree sessions over HTTP",
		Long: `Serve starts an HTTP API for interactive trees.

POST a JSON-LD document to /api/sessions to open a session, then toggle
nodes with POST /api/sessions/{id}/toggle/{key} and fetch the current view
from /api/sessions/{id}/svg. Rendered views are cached by document hash,
configuration and expanded set.`,
		Example: `  cratetree serve --addr :8080
  cratetree serve --cache redis --redis-addr localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config.resolve(cmd)
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runServe(ctx, cfg, opts)
		},
	}

	opts.config.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.backend, "cache", cacheFile, "cache backend: file, redis or none")
	cmd.Flags().StringVar(&opts.redis.Addr, "redis-addr", "localhost:6379", "redis address")
	cmd.Flags().StringVar(&opts.redis.Password, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&opts.redis.DB, "redis-db", 0, "redis database")
	cmd.Flags().StringVar(&opts.keyPrefix, "key-prefix", appName+":", "prefix of every cache key")
	cmd.Flags().DurationVar(&opts.sessionTTL, "session-ttl", session.DefaultTTL, "idle session lifetime")
	cmd.Flags().DurationVar(&opts.cleanupTick, "cleanup-interval", session.DefaultCleanupInterval, "expired session sweep interval")

	return cmd
}

// runServe wires the cache, the runner and the session store into the
// server and blocks until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg config.Config, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	backend, err := openCache(ctx, opts.backend, opts.redis)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(backend, cache.NewScopedKeyer(nil, opts.keyPrefix), logger)
	defer runner.Close()

	sessions := session.NewMemoryStore(opts.sessionTTL)
	go sessions.Run(ctx, opts.cleanupTick)

	printInfo("Serving on %s", StyleHighlight.Render(opts.addr))
	printDetail("cache: %s · session ttl: %s", opts.backend, opts.sessionTTL)

	rec := observability.NewRecorder(logger)
	rec.Install()

	srv := server.New(runner, sessions, cfg, logger)
	srv.Stats = rec
	return srv.ListenAndServe(ctx, opts.addr)
}

// openCache creates the named cache backend.
func openCache(ctx context.Context, backend string, redis cache.RedisConfig) (cache.Cache, error) {
	switch backend {
	case cacheFile:
		return newCache(false)
	case cacheRedis:
		return cache.NewRedisCache(ctx, redis)
	case cacheNone:
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (must be %s, %s or %s)", backend, cacheFile, cacheRedis, cacheNone)
	}
}
