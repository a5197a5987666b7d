package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stockboard/marketdata-go/internal/api"
	"github.com/stockboard/marketdata-go/internal/cache"
	"github.com/stockboard/marketdata-go/internal/config"
	"github.com/stockboard/marketdata-go/internal/database"
	"github.com/stockboard/marketdata-go/internal/lock"
	"github.com/stockboard/marketdata-go/internal/masterdata"
	"github.com/stockboard/marketdata-go/internal/token"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	if cfg.Environment != "development" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Remote tier is optional; rdb stays nil when unconfigured or unreachable.
	rdb, err := database.NewRedisConnection(cfg.RemoteCache)
	if err != nil {
		logrus.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer rdb.Close()

	var remoteStore cache.Store
	var redisClient *redis.Client
	if rdb != nil {
		remoteStore = cache.NewRedisStore(rdb.Client)
		redisClient = rdb.Client
	}
	tieredCache := cache.NewTieredCache(remoteStore, cache.NewFileStore(cfg.LocalCache.Dir))

	refreshLock := lock.NewRefreshLock(redisClient, cfg.Token.LockTTLDuration())
	tokenManager := token.NewManager(
		tieredCache,
		refreshLock,
		token.NewExchangeClient(cfg.Upstream),
		cfg.Token.ExpiryBufferDuration(),
		cfg.Token.LockMaxWaitDuration(),
		cfg.Token.LockPollDuration(),
	)
	masterService := masterdata.NewService(tieredCache, cfg.MasterData)

	// Setup Gin router
	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		Redis:  rdb,
		Cache:  tieredCache,
		Tokens: tokenManager,
		TokenC: tokenManager,
		Master: masterService,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
