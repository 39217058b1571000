package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/saral/aadhaar-pulse/internal/api"
	"github.com/saral/aadhaar-pulse/internal/archive"
	"github.com/saral/aadhaar-pulse/internal/cache"
	"github.com/saral/aadhaar-pulse/internal/config"
	"github.com/saral/aadhaar-pulse/internal/datagov"
	"github.com/saral/aadhaar-pulse/internal/insights"
	"github.com/saral/aadhaar-pulse/internal/pkg/logger"
	"github.com/saral/aadhaar-pulse/internal/repository/postgres"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("failed to load config", "error", err.Error())
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("failed to open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("database unreachable", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("connected to database")

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, caching disabled", "error", err.Error())
			redisClient = nil
		} else {
			logger.Info("connected to redis")
		}
	}

	repo := postgres.NewAggregateRepo(db)
	responseCache := cache.New(redisClient, cfg.Redis.TTL())

	archiver, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		logger.Warn("archive disabled", "error", err.Error())
	} else if archiver != nil {
		logger.Info("upload archival enabled", "bucket", cfg.Archive.Bucket)
	}

	var narrator api.Narrator
	if cfg.Bedrock.Enabled {
		gen, err := insights.NewGenerator(ctx, cfg.Bedrock)
		if err != nil {
			logger.Warn("insights disabled", "error", err.Error())
		} else {
			narrator = gen
		}
	}

	var syncer api.Syncer
	if cfg.DataGov.APIKey != "" && cfg.DataGov.ResourceID != "" {
		syncer = datagov.NewSyncer(datagov.NewClient(cfg.DataGov), repo, redisClient)
		logger.Info("data.gov.in sync enabled", "resource", cfg.DataGov.ResourceID)
	}

	handlers := api.NewHandlers(repo, repo, responseCache, archiver, narrator, syncer)
	server := api.NewServer(cfg.Server, handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		logger.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("server stopped")
}
