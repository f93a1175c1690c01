package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/shinwari-dera/backend-pos/internal/config"
	"github.com/shinwari-dera/backend-pos/internal/events"
	"github.com/shinwari-dera/backend-pos/internal/inventory"
	"github.com/shinwari-dera/backend-pos/internal/lock"
	"github.com/shinwari-dera/backend-pos/internal/menu"
	"github.com/shinwari-dera/backend-pos/internal/obs"
	"github.com/shinwari-dera/backend-pos/internal/order"
	"github.com/shinwari-dera/backend-pos/internal/queue"
)

const taskLowStockSweep = "inventory:low-stock-sweep"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().
		Str("env", cfg.AppEnv).
		Str("component", "worker").
		Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "dera"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	defer connectCancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		_ = redisClient.Close()
	}()
	if err := redisClient.Ping(connectCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	bus := &events.Bus{
		Store:     &events.PGStore{Pool: pool},
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}
	ledger := &inventory.Service{
		Store:   &inventory.PGStore{Pool: pool},
		Locks:   lock.Locker{R: redisClient},
		Events:  bus,
		LockTTL: cfg.InventoryLockTTL,
	}
	menuSvc := &menu.Service{
		Store: &menu.Store{Pool: pool},
		Cache: menu.NewCache(redisClient, cfg.MenuCacheTTL),
	}
	deductor := &inventory.Deductor{Ledger: ledger, Menu: menuSvc, Log: logger}

	// The sweep keeps the low-stock gauge honest on quiet days. It rides on
	// asynq's scheduler rather than the order queue so a DLQ backlog can
	// never starve it.
	asynqOpt := asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB}
	mux := asynq.NewServeMux()
	mux.HandleFunc(taskLowStockSweep, func(ctx context.Context, _ *asynq.Task) error {
		low, err := ledger.SweepLowStock(ctx)
		if err != nil {
			return err
		}
		logger.Debug().Int("low_stock_items", low).Msg("low stock sweep")
		return nil
	})
	sweepServer := asynq.NewServer(asynqOpt, asynq.Config{Concurrency: 1})
	if err := sweepServer.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start sweep server")
	}
	defer sweepServer.Shutdown()

	scheduler := asynq.NewScheduler(asynqOpt, nil)
	if _, err := scheduler.Register(fmt.Sprintf("@every %s", cfg.LowStockSweepEvery), asynq.NewTask(taskLowStockSweep, nil)); err != nil {
		logger.Fatal().Err(err).Msg("register sweep schedule")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start sweep scheduler")
	}
	defer scheduler.Shutdown()

	worker := queue.Worker{
		R:                 redisClient,
		Prefix:            cfg.QueueRedisPrefix,
		Kind:              order.TaskRecipeDeduction,
		Concurrency:       cfg.QueueConcurrency,
		VisibilityTimeout: cfg.QueueVisibilityTO,
		Store:             queue.NewStore(pool),
		Logger:            &logger,
		Handler: func(ctx context.Context, t queue.Task) error {
			var lines []inventory.SoldLine
			if err := json.Unmarshal(t.Payload, &lines); err != nil {
				return fmt.Errorf("decode deduction payload: %w", err)
			}
			return deductor.Deduct(ctx, lines)
		},
	}

	logger.Info().Str("kind", order.TaskRecipeDeduction).Msg("worker starting")
	if err := worker.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
	logger.Info().Msg("worker stopped")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
