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
	"go.uber.org/zap"

	"github.com/vidqa-cloud/vidqa/internal/config"
	"github.com/vidqa-cloud/vidqa/internal/db"
	dbRedis "github.com/vidqa-cloud/vidqa/internal/db/redis"
	"github.com/vidqa-cloud/vidqa/internal/domain"
	logpkg "github.com/vidqa-cloud/vidqa/internal/logger"
	"github.com/vidqa-cloud/vidqa/internal/metrics"
	"github.com/vidqa-cloud/vidqa/internal/repository/embcache"
	chiTransport "github.com/vidqa-cloud/vidqa/internal/transport/chi"
	openaiTransport "github.com/vidqa-cloud/vidqa/internal/transport/openai"
	"github.com/vidqa-cloud/vidqa/internal/transport/youtube"
	indexuc "github.com/vidqa-cloud/vidqa/internal/usecase/index"
	queryuc "github.com/vidqa-cloud/vidqa/internal/usecase/query"
	sessionuc "github.com/vidqa-cloud/vidqa/internal/usecase/session"
	transcriptuc "github.com/vidqa-cloud/vidqa/internal/usecase/transcript"
	"github.com/vidqa-cloud/vidqa/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vidqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Optional Redis embedding cache. Empty addrs runs fully in-memory.
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(context.Background(), 10*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Build embedder chains — composition root. Documents and queries
	// share one model but carry different instruction prefixes.
	docEmbedder := buildEmbedder(cfg, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(cfg, cfg.Embedding.QueryInstruction, store, logger)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:           cfg.Provider.APIKey,
		BaseURL:          cfg.Provider.BaseURL,
		Model:            cfg.Generation.Model,
		MaxTokens:        cfg.Generation.MaxTokens,
		Temperature:      cfg.Generation.Temperature,
		FrequencyPenalty: cfg.Generation.FrequencyPenalty,
		Logger:           logger,
	})

	// Transcript source and fetch policy
	ytClient := youtube.NewClient(time.Duration(cfg.Transcript.TimeoutSec)*time.Second, logger)
	transcriptSvc := transcriptuc.New(ytClient, cfg.Transcript.Languages, cfg.Transcript.TranslateTo, logger)

	// Chunking and index building
	splitter, err := indexuc.NewSplitter(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid chunking config", zap.Error(err))
	}
	builder := indexuc.NewBuilder(splitter, docEmbedder, logger)

	// Session: one active video, engine rebuilt per processed URL
	engineCfg := queryuc.Config{
		K:              cfg.Retrieval.DefaultK,
		MaxK:           cfg.Retrieval.MaxK,
		OutputLanguage: cfg.Generation.OutputLanguage,
		FallbackAnswer: cfg.Generation.FallbackAnswer,
	}
	sessionSvc := sessionuc.New(transcriptSvc, builder,
		func(idx *indexuc.VectorIndex) sessionuc.Engine {
			return queryuc.New(idx, queryEmbedder, generator, engineCfg, logger)
		},
		logger,
	)

	// HTTP surface
	var cachePinger chiTransport.Pinger
	if store != nil {
		cachePinger = store
	}
	server := chiTransport.NewServer(sessionSvc, cachePinger, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction.
// The instruction wrapper is outermost so the cache key includes the prefix.
func buildEmbedder(
	cfg config.Config,
	instruction string,
	store db.Store,
	logger *zap.Logger,
) *domain.InstructionEmbedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Provider.APIKey,
		BaseURL:    cfg.Provider.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(
			base, cfg.Embedding.Model, cfg.Embedding.Dimensions, store,
			time.Duration(cfg.Cache.TTLHours)*time.Hour,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	return domain.NewInstructionEmbedder(embedder, instruction)
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
