// Command asc-mcp serves App Store Connect tools over the MCP stdio transport.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/appstore-connect-mcp/internal/tools"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/client"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/logging"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/metrics"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/ratelimit"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

const redisPingTimeout = 5 * time.Second

type options struct {
	logLevel    string
	logPretty   bool
	envFile     string
	redisURL    string
	metricsAddr string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "asc-mcp:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "asc-mcp",
		Short: "App Store Connect MCP server (stdio)",
		Long: `asc-mcp exposes App Store Connect reviews, TestFlight crashes, Xcode Cloud
builds and analytics reports as MCP tools over stdin/stdout.

Credentials are read from APP_STORE_KEY_ID, APP_STORE_ISSUER_ID and
APP_STORE_PRIVATE_KEY_PATH, optionally loaded from a .env file.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default $LOG_LEVEL or info)")
	flags.BoolVar(&opts.logPretty, "log-pretty", false, "Human-readable log output on stderr")
	flags.StringVar(&opts.envFile, "env-file", "", "Environment file to load (default .env when present)")
	flags.StringVar(&opts.redisURL, "redis-url", "", "Redis URL for shared quota state (default $REDIS_URL, in-memory when empty)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	if err := loadEnv(opts.envFile); err != nil {
		return err
	}

	level, err := logging.ParseLevel(firstNonEmpty(opts.logLevel, os.Getenv("LOG_LEVEL")))
	if err != nil {
		return err
	}
	logger := logging.Setup(logging.Config{
		Level:   level,
		Pretty:  opts.logPretty,
		Service: tools.ServerName,
		Output:  os.Stderr,
	})

	cfg, err := client.ConfigFromEnv()
	if err != nil {
		return err
	}

	store, closeStore, err := rateLimitStore(ctx, firstNonEmpty(opts.redisURL, os.Getenv("REDIS_URL")), logger)
	if err != nil {
		return err
	}
	defer closeStore()
	cfg.RateLimitStore = store

	asc, err := client.New(cfg)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, opts.metricsAddr, logger); err != nil {
				logger.Error().Err(err).Msg("Metrics listener failed")
			}
		}()
	}

	logger.Info().
		Str("version", version).
		Bool("default_app_id", cfg.DefaultAppID != "").
		Bool("shared_quota", store != nil).
		Msg("App Store Connect MCP server starting")

	return tools.New(asc, version).ServeStdio()
}

// loadEnv loads path, or .env when path is empty and the file exists.
// Variables already set in the environment win.
func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// rateLimitStore connects to Redis when url is set. A nil store keeps quota
// state in process memory.
func rateLimitStore(ctx context.Context, url string, logger zerolog.Logger) (ratelimit.Store, func(), error) {
	if url == "" {
		return nil, func() {}, nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", opt.Addr, err)
	}

	logger.Info().Str("addr", opt.Addr).Msg("Connected to Redis")
	return ratelimit.NewRedisStore(rdb), func() { rdb.Close() }, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
