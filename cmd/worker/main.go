package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"

	"artfolio/internal/config"
	"artfolio/internal/database"
	"artfolio/internal/generation"
	"artfolio/internal/metrics"
	"artfolio/internal/repository"
	"artfolio/internal/storage"
	"artfolio/internal/tasks"
	"artfolio/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database, false)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	store, err := storage.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}
	logger.Info("storage ready", slog.String("driver", cfg.Storage.Driver))

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Logger:      newAsynqLogger(logger),
	})

	repo := repository.NewGormRepository(db)
	generator := generation.NewServiceFromConfig(cfg.Render, repo, store, logger)
	publisher := worker.NewRedisPublisher(redisClient)

	var enqueuer worker.Enqueuer
	if cfg.Render.Previews {
		client := asynq.NewClient(redisOpt)
		defer client.Close()
		enqueuer = client
	}

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypePortfolioGenerate, worker.NewGenerateTaskHandler(generator, repo, publisher, enqueuer, logger))
	if cfg.Render.Previews {
		shooter := worker.NewRodScreenshotter(logger)
		mux.Handle(tasks.TypePortfolioPreview, worker.NewPreviewTaskHandler(generator, shooter, repo, store, publisher, logger))
	}

	if cfg.Worker.MetricsPort > 0 {
		go serveMetrics(logger, cfg.Worker.MetricsPort)
	}

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.Int("concurrency", cfg.Worker.Concurrency),
		slog.Bool("previews", cfg.Render.Previews),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}

func serveMetrics(logger *slog.Logger, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("worker metrics server stopped", slog.Any("error", err))
	}
}

// asynqLogger 把 asynq 的日志接到 slog。
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) asynqLogger {
	return asynqLogger{logger: logger.With(slog.String("component", "asynq"))}
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
