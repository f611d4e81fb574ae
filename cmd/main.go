package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RishiKendai/clonescope/internal/api"
	"github.com/RishiKendai/clonescope/internal/config"
	"github.com/RishiKendai/clonescope/internal/configs/env"
	"github.com/RishiKendai/clonescope/internal/engine"
	"github.com/RishiKendai/clonescope/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/clonescope/internal/infra/redis"
	"github.com/RishiKendai/clonescope/internal/loader"
	"github.com/RishiKendai/clonescope/internal/logger"
	"github.com/RishiKendai/clonescope/internal/observability"
	"github.com/RishiKendai/clonescope/internal/plagiarism"
	"github.com/RishiKendai/clonescope/internal/report"
	"github.com/RishiKendai/clonescope/internal/repository"
	"github.com/RishiKendai/clonescope/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("store", cfg.StoreDriver).Msg("Starting clonescope server")

	observability.InitPrometheus()
	metricsServer := api.StartMetricsServer(observability.MetricsHandler(), cfg.MetricsPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect Redis
	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis client")
	}
	defer redisClient.Close()

	// Persistence; the memory store keeps nothing across restarts
	var (
		store  repository.Store
		tokens *loader.TokenSource
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		store = repository.NewMemoryStore()
		tokens = loader.NewTokenSource(nil, cfg.GitHubToken)
		log.Warn().Msg("Using in-memory store, results are lost on restart")
	default:
		mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create MongoDB client")
		}
		defer mongoClient.Close(context.Background())

		mongoRepo := repository.NewMongoRepository(mongoClient)
		mongoStore := repository.NewMongoStore(mongoRepo)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
		}
		store = mongoStore
		tokens = loader.NewTokenSource(repository.NewUsersRepository(mongoRepo), cfg.GitHubToken)
	}

	// Fingerprint engine
	var eng engine.Engine
	if cfg.EngineBaseURL != "" {
		eng = engine.NewRemoteEngine(cfg.EngineBaseURL, cfg.EngineAPIKey, cfg.ComparisonTimeout)
		log.Info().Str("url", cfg.EngineBaseURL).Msg("Using remote fingerprint engine")
	} else {
		eng = engine.NewTilingEngine(cfg.EngineKGramSize, cfg.EngineWindowSize, cfg.EngineMinOverlap)
	}

	contentLoader := loader.NewGitHubLoader(tokens, loader.NewRedisBlobCache(redisClient.Client), loader.Options{
		PathPrefix: cfg.GitHubPathPrefix,
		Extension:  cfg.GitHubExtension,
		Branch:     cfg.GitHubBranch,
		BaseURL:    cfg.GitHubBaseURL,
	})

	workerPool := plagiarism.NewWorkerPool(ctx, cfg.MaxConcurrentCompute)
	comparer := plagiarism.NewComparer(store, eng, cfg.ComparisonTimeout)
	groups := plagiarism.NewGroupService(ctx, contentLoader, store, comparer, workerPool,
		plagiarism.WithStatusPublisher(plagiarism.NewRedisStatusPublisher(redisClient.Client)),
		plagiarism.WithSaltedKeys(cfg.GroupKeySalted),
	)

	// Initialize Redis stream consumer
	retryHandler := stream.NewRetryHandler(redisClient.Client, cfg.RedisDeadLetterKey, cfg.StreamMaxRetries, time.Second)
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])
	consumer := stream.NewConsumer(
		redisClient.Client,
		cfg.RedisStreamKey,
		cfg.RedisConsumerGroup,
		consumerName,
		groups,
		retryHandler,
		cfg.StreamRetentionDuration,
	)
	log.Info().Str("consumer_name", consumerName).Msg("Redis stream consumer initialized")

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	go func() {
		defer consumerCancel()
		if err := consumer.Start(consumerCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Redis consumer error")
		}
	}()

	router := api.SetupRoutes(cfg, groups, report.NewBuilder(store))
	srv := api.StartServer(router, cfg.ServerPort)

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down Gin server")
	}

	// Stop intake before draining running sweeps
	consumerCancel()
	workerPool.Close()

	if err := api.ShutdownServer(metricsServer, 5*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}
