package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citybasic/internal/auth"
	"citybasic/internal/config"
	"citybasic/internal/content"
	"citybasic/internal/db"
	"citybasic/internal/logging"
	"citybasic/internal/ratelimit"
	"citybasic/internal/router"
	"citybasic/internal/services"
	"citybasic/internal/store"

	"github.com/joho/godotenv"
	gormlogger "gorm.io/gorm/logger"
)

const (
	tokenTTL        = 72 * time.Hour
	contentCacheTTL = 10 * time.Minute
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatalw("invalid configuration", "error", err)
	}

	logLevel := gormlogger.Info
	if cfg.IsProduction() {
		logLevel = gormlogger.Warn
	}

	// Initialize Database
	gdb, err := db.Open(cfg.DatabaseURL, logger, db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		LogLevel:     logLevel,
	})
	if err != nil {
		logger.Fatalw("open database", "error", err)
	}
	repo := store.New(gdb)

	resolver, err := content.NewResolver(os.DirFS(cfg.ContentDir), cfg.ContentCacheSize, contentCacheTTL)
	if err != nil {
		logger.Fatalw("init content resolver", "error", err)
	}
	if slugs, err := resolver.Slugs(); err != nil {
		logger.Warnw("content directory not readable", "dir", cfg.ContentDir, "error", err)
	} else {
		logger.Infow("content loaded", "dir", cfg.ContentDir, "cities", len(slugs))
	}

	// 后台校对 vote_count
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	reconciler := services.NewReconciler(repo, logger)
	go reconciler.Run(bgCtx)

	if cfg.GoogleClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID is not set, login will fail")
	}

	r := router.New(router.Deps{
		Config:  cfg,
		Log:     logger,
		Store:   repo,
		Content: resolver,
		Limiter: ratelimit.New(repo, logger),
		OAuth:   auth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.SiteURL),
		Tokens:  auth.NewTokens(cfg.JWTSecret, cfg.SiteURL, tokenTTL),
		Health: func(ctx context.Context) map[string]string {
			return db.Health(ctx, repo.DB())
		},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		logger.Infow("CityBasic server starting", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorw("server forced to shutdown", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server exited")
}
