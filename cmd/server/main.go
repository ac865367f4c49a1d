package main

import (
	"context"   // Context for startup and shutdown
	"errors"    // Error matching
	"fmt"       // Error wrapping
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal handling
	"syscall"   // SIGTERM
	"time"      // Shutdown timeout

	"ebank_api/internal/api"     // Custom package for API handlers
	"ebank_api/internal/cache"   // Profile cache
	"ebank_api/internal/config"  // Custom package for configuration
	"ebank_api/internal/db"      // Database connections
	"ebank_api/internal/storage" // Avatar storage
	"ebank_api/internal/store"   // User store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		logrus.Fatalf("%v", err)
	}
}

// run serves until ctx is cancelled or the listener fails; connections are closed on return
func run(ctx context.Context, cfg *config.Config) error {
	users, closeStore, err := openUserStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}
	defer closeStore()

	profiles := cache.NewProfileCache(nil, cfg.ProfileCacheTTL) // Disabled unless Redis is configured
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
		profiles = cache.NewProfileCache(redisClient, cfg.ProfileCacheTTL)
	}

	avatars, err := openAvatarStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up avatar storage: %w", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := api.NewRouter(cfg, api.Dependencies{Users: users, Avatars: avatars, Profiles: profiles})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1) // ListenAndServe failure, if any
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":    cfg.AppPort,        // Listen port
			"store":   cfg.StoreDriver,    // User store backend
			"avatars": cfg.AvatarStorage,  // Avatar storage backend
			"cache":   profiles.Enabled(), // Redis cache on or off
		}).Info("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
	return nil
}

// setupLogger configures logrus from the environment
func setupLogger(cfg *config.Config) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// openUserStore connects the configured credential store
func openUserStore(ctx context.Context, cfg *config.Config) (store.UserStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		users := store.NewMongoStore(client.Database(cfg.MongoDatabase))
		if err := users.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return users, closeFn, nil
	case config.StoreMemory:
		logrus.Warn("Using in-memory user store; data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	default:
		gdb, err := db.OpenMySQL(cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return store.NewGormStore(gdb), closeFn, nil
	}
}

// openAvatarStore selects local disk or S3 for avatar files
func openAvatarStore(ctx context.Context, cfg *config.Config) (storage.AvatarStore, error) {
	if cfg.AvatarStorage == config.AvatarS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return storage.NewLocalStore(cfg.AvatarDir), nil
}
