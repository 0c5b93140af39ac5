package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stitchbook/stitchbook/cmd/stitchbook/cli"
	"github.com/stitchbook/stitchbook/internal/app"
	"github.com/stitchbook/stitchbook/internal/observability"
	"github.com/stitchbook/stitchbook/internal/platform/cache"
)

const usage = `usage:
  stitchbook                     run the API server
  stitchbook jobs trigger NAME   enqueue reconcile | warmup [YEAR]
  stitchbook jobs stats          show queue depth
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	if len(os.Args) > 1 {
		if err := runCommand(ctx, redisOpts, os.Args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		return
	}

	if err := serve(ctx, stop, cfg, logger, redisOpts); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, redisOpts asynq.RedisClientOpt, args []string) error {
	if len(args) < 2 || args[0] != "jobs" {
		return fmt.Errorf("unknown command %v", args)
	}
	jobsCLI := cli.NewJobsCLI(redisOpts)
	defer func() { _ = jobsCLI.Close() }()

	switch args[1] {
	case "trigger":
		if len(args) < 3 {
			return fmt.Errorf("jobs trigger: job name required")
		}
		arg := ""
		if len(args) > 3 {
			arg = args[3]
		}
		info, err := jobsCLI.Trigger(ctx, args[2], arg)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s as %s\n", info.Type, info.ID)
		return nil
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		return cli.WriteStats(os.Stdout, stats)
	default:
		return fmt.Errorf("unknown jobs command %q", args[1])
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger, redisOpts asynq.RedisClientOpt) error {
	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	storage, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer storage.Close()

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	deps := app.Deps{
		Config:    cfg,
		Logger:    logger,
		Redis:     redisClient,
		Ledger:    storage.Ledger,
		Users:     storage.Users,
		Metrics:   observability.NewMetrics(),
		Inspector: inspector,
		Ready: func(r *http.Request) error {
			if err := storage.Ping(r.Context()); err != nil {
				return err
			}
			return redisClient.Ping(r.Context()).Err()
		},
	}
	services := app.NewServices(deps)

	if cfg.AdminUsername != "" {
		created, err := services.Users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info("created bootstrap admin", slog.String("username", cfg.AdminUsername))
		}
	}
	if err := services.Cache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("reports cache invalidation listener", slog.Any("error", err))
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      app.NewAPI(deps, services),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("storage", cfg.StorageDriver),
			slog.String("timezone", cfg.LedgerTimezone))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
