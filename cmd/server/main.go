package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"driverfeed/internal/api"
	"driverfeed/internal/api/handlers"
	"driverfeed/internal/config"
	"driverfeed/internal/logger"
	"driverfeed/internal/repository"
	"driverfeed/internal/repository/memory"
	"driverfeed/internal/repository/postgres"
	rediscache "driverfeed/internal/repository/redis"
	"driverfeed/internal/services"
)

func main() {
	configPath := flag.String("config", os.Getenv("DRIVERFEED_CONFIG"), "path to a YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	ctx := context.Background()

	// Initialize the post store
	store, closeStore, err := openStore(ctx, cfg.Store, appLogger)
	if err != nil {
		appLogger.Fatal("unable to open post store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	// Optional shared snapshot cache
	var cache repository.SnapshotCache
	if cfg.Cache.Enabled() {
		client, err := rediscache.NewClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			appLogger.Fatal("unable to connect to redis", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		}
		defer client.Close()
		cache = rediscache.NewSnapshotCache(client, rediscache.DefaultSnapshotKey, cfg.Cache.TTL)
		appLogger.Info("snapshot cache enabled", zap.String("addr", cfg.Cache.RedisAddr), zap.Duration("ttl", cfg.Cache.TTL))
	}

	// Initialize services
	driverService := services.NewActiveDriverService(store, appLogger)
	feed := services.NewPresenceFeed(driverService, services.PresenceFeedConfig{
		FreshnessWindow: cfg.Feed.FreshnessWindow,
		SnapshotTimeout: cfg.Feed.SnapshotTimeout,
		Cache:           cache,
	}, appLogger)

	// Initialize handlers and router
	router := api.NewRouter(
		handlers.NewFeedHandler(feed, cfg.Feed.PushInterval, appLogger),
		handlers.NewGeoHandler(cfg.Geo.AverageSpeedKmH),
		appLogger,
	)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	router.Setup(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("starting driverfeed server",
			zap.String("addr", cfg.Server.Port),
			zap.Duration("freshness_window", cfg.Feed.FreshnessWindow))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("server exiting")
}

// openStore returns the configured PostStore and a func that releases it.
func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (repository.PostStore, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN, cfg.MaxConns, log)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewPostRepository(pool), pool.Close, nil
	default:
		users := memory.NewUserRepository()
		posts := memory.NewPostRepository(users)
		if cfg.SeedFile != "" {
			n, err := memory.SeedFromFile(ctx, cfg.SeedFile, time.Now(), users, posts)
			if err != nil {
				return nil, nil, err
			}
			log.Info("seeded in-memory store", zap.String("file", cfg.SeedFile), zap.Int("posts", n))
		}
		return posts, func() {}, nil
	}
}
