package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appanalysis "github.com/bryanwahyu/glowreader/internal/application/analysis"
	"github.com/bryanwahyu/glowreader/internal/config"
	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
	"github.com/bryanwahyu/glowreader/internal/infra/ai/gemini"
	"github.com/bryanwahyu/glowreader/internal/infra/ai/openai"
	"github.com/bryanwahyu/glowreader/internal/infra/ai/prompt"
	"github.com/bryanwahyu/glowreader/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/glowreader/internal/infra/storage"
	"github.com/bryanwahyu/glowreader/internal/logging"
	"github.com/bryanwahyu/glowreader/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init provider
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		logger.Fatal("provider init error", zap.Error(err))
	}

	svc := appanalysis.NewService(provider, prompt.MustNewBuilder(), logger.Named("analysis"))

	opts := httpserver.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		HealthCheckers: map[string]middleware.HealthChecker{},
		Logger:         logger.Named("http"),
	}

	// init minio (optional)
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		opts.Archive = store
		opts.HealthCheckers["photo_archive"] = store
	}

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
		go limiter.Cleanup(ctx, 5*time.Minute, 10*time.Minute)
		opts.Limiter = limiter
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: httpserver.NewRouter(svc, opts),
		// AI calls routinely take tens of seconds
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// run server
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("provider", provider.Name()),
			zap.Strings("cors_origins", cfg.CORS.AllowedOrigins))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx2)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}

func newProvider(ctx context.Context, cfg *config.Config) (analysis.Provider, error) {
	switch cfg.Provider.Name {
	case config.ProviderOpenAI:
		return openai.NewClientWithBaseURL(cfg.Provider.OpenAIAPIKey, cfg.Provider.BaseURL, cfg.Provider.Model), nil
	default:
		return gemini.NewClient(ctx, cfg.Provider.GoogleAPIKey, gemini.Options{
			Model:   cfg.Provider.Model,
			BaseURL: cfg.Provider.BaseURL,
		})
	}
}
