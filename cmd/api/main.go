package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"

	"artfolio/internal/api"
	"artfolio/internal/auth"
	"artfolio/internal/config"
	"artfolio/internal/database"
	"artfolio/internal/generation"
	"artfolio/internal/repository"
	"artfolio/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database, true)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("db", cfg.Database.Name),
	)

	store, err := storage.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}
	logger.Info("storage ready", slog.String("driver", cfg.Storage.Driver))

	authService, err := auth.NewAuthServiceFromConfig(cfg.Auth)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	repo := repository.NewGormRepository(db)
	generator := generation.NewServiceFromConfig(cfg.Render, repo, store, logger)

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, api.Dependencies{
		Config:      cfg,
		Repo:        repo,
		Store:       store,
		Generator:   generator,
		AuthService: authService,
		Redis:       redisClient,
		Subscriber:  redisClient,
		Queue:       asynqClient,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("api shutdown failed", slog.Any("error", err))
	}
	logger.Info("api stopped")
}
