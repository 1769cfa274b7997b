package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"drinklog/internal/blob"
	"drinklog/internal/cache"
	"drinklog/internal/config"
	apphttp "drinklog/internal/http"
	"drinklog/internal/log"
	"drinklog/internal/metrics"
	"drinklog/internal/services"
	"drinklog/internal/storage"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	log.SetDefault(logger)

	store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open database", log.FieldError, err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	var images blob.ImageStore = blob.NoopStore{}
	if cfg.S3Bucket != "" {
		s3Store, err := blob.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Domain, logger)
		if err != nil {
			logger.Error("failed to initialize image storage", log.FieldError, err)
			os.Exit(1)
		}
		images = s3Store
		logger.Info("image uploads enabled", "bucket", cfg.S3Bucket)
	}

	m := metrics.New()
	summaryCache := cache.NewLRU[any](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)

	drinks := services.NewDrinkService(store, logger)
	if err := drinks.Seed(ctx); err != nil {
		logger.Error("failed to seed drink catalog", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Entries: services.NewEntryService(store, images, summaryCache, m, logger),
		Summary: services.NewSummaryService(store, summaryCache, logger),
		Groups:  services.NewGroupService(store, logger),
		Members: services.NewMemberService(store, logger),
		Drinks:  drinks,
		Images:  images,
		Metrics: m,
		Logger:  logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting drinklog server",
		"port", cfg.Port,
		log.FieldOperation, log.OpStartup,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}

func newLogger(cfg *config.Config) *log.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return log.New(log.Config{Level: level, Component: log.ComponentApp, Handler: handler})
}
