package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/comparely/shopmatch/internal/config"
	"github.com/comparely/shopmatch/internal/index"
	memoryIndex "github.com/comparely/shopmatch/internal/index/memory"
	redisIndex "github.com/comparely/shopmatch/internal/index/redis"
	logpkg "github.com/comparely/shopmatch/internal/logger"
	"github.com/comparely/shopmatch/internal/metrics"
	"github.com/comparely/shopmatch/internal/repository/catalog"
	"github.com/comparely/shopmatch/internal/scoring"
	chiTransport "github.com/comparely/shopmatch/internal/transport/chi"
	openaiEmb "github.com/comparely/shopmatch/internal/transport/openai"
	"github.com/comparely/shopmatch/internal/usecase/alternatives"
	"github.com/comparely/shopmatch/internal/usecase/recommend"
	"github.com/comparely/shopmatch/internal/usecase/score"
	"github.com/comparely/shopmatch/internal/version"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting shopmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_backend", cfg.Index.Backend),
	)

	// Catalog store
	repo, err := catalog.Open(cfg.Catalog.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to catalog database", zap.Error(err))
	}
	if cfg.Catalog.AutoMigrate {
		if err := repo.Migrate(); err != nil {
			logger.Fatal("Failed to migrate catalog schema", zap.Error(err))
		}
	}
	logger.Info("Connected to catalog database")

	// Embedding index backend
	ctx := context.Background()
	var idx index.Index
	switch cfg.Index.Backend {
	case "redis":
		redisIdx, err := redisIndex.New(redisIndex.Config{
			Addrs:           cfg.Database.Addrs,
			Username:        cfg.Database.Username,
			Password:        cfg.Database.Password,
			DB:              cfg.Database.DB,
			KeyPrefix:       cfg.Index.KeyPrefix,
			Dim:             cfg.Embedding.Dimensions,
			HNSWM:           cfg.Index.HNSWM,
			HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
		})
		if err != nil {
			logger.Fatal("Failed to create redis index", zap.Error(err))
		}
		defer redisIdx.Close()

		readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := redisIdx.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		if err := redisIdx.EnsureIndex(ctx); err != nil {
			logger.Fatal("Failed to ensure vector index", zap.Error(err))
		}
		idx = redisIdx
	case "memory":
		idx = memoryIndex.New()
	default:
		logger.Fatal("Unknown index backend", zap.String("backend", cfg.Index.Backend))
	}
	logger.Info("Embedding index ready", zap.String("backend", cfg.Index.Backend))

	// Register embedding metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Use case services
	scorer := scoring.NewScorer(logger)
	scoreSvc := score.New(scorer, repo, logger)
	altSvc := alternatives.New(repo, logger)
	recSvc := recommend.New(repo, embedder, idx, logger).
		WithLimits(cfg.Recommend.DefaultK, cfg.Recommend.MaxK)

	server := chiTransport.NewServer(scoreSvc, altSvc, recSvc, repo, idx, embedder)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
