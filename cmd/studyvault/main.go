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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/studyvault-app/studyvault/internal/config"
	"github.com/studyvault-app/studyvault/internal/domain"
	"github.com/studyvault-app/studyvault/internal/domain/chunk"
	"github.com/studyvault-app/studyvault/internal/extract"
	logpkg "github.com/studyvault-app/studyvault/internal/logger"
	"github.com/studyvault-app/studyvault/internal/metrics"
	"github.com/studyvault-app/studyvault/internal/repository/jobstore"
	"github.com/studyvault-app/studyvault/internal/repository/studystore"
	"github.com/studyvault-app/studyvault/internal/repository/vectorstore"
	chiTransport "github.com/studyvault-app/studyvault/internal/transport/chi"
	openaiClient "github.com/studyvault-app/studyvault/internal/transport/openai"
	cataloguc "github.com/studyvault-app/studyvault/internal/usecase/catalog"
	chatuc "github.com/studyvault-app/studyvault/internal/usecase/chat"
	healthuc "github.com/studyvault-app/studyvault/internal/usecase/health"
	ingestuc "github.com/studyvault-app/studyvault/internal/usecase/ingest"
	notesuc "github.com/studyvault-app/studyvault/internal/usecase/notes"
	"github.com/studyvault-app/studyvault/internal/version"
)

func main() {
	// .env is optional; real environments configure via the process env.
	_ = godotenv.Load()

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

	logger.Info("Starting studyvault API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_store", cfg.VectorStore.Driver),
		zap.String("job_store", cfg.JobStore.Driver),
	)

	metrics.RegisterLLMMetrics()

	ctx := context.Background()
	health := healthuc.New()

	// Study catalog (optional in memory-only deployments).
	var catalog *studystore.Repository
	if cfg.Postgres.DSN != "" {
		db := studystore.Connect(cfg.Postgres.DSN, cfg.Postgres.Debug)
		defer db.Close()

		catalog = studystore.New(db)
		readyCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Postgres.ReadinessTimeout)*time.Second)
		if err := catalog.Ping(readyCtx); err != nil {
			cancel()
			logger.Fatal("Postgres not ready", zap.Error(err))
		}
		cancel()
		if err := catalog.Init(ctx); err != nil {
			logger.Fatal("Failed to init study store", zap.Error(err))
		}
		health.Add("postgres", catalog)
		logger.Info("Connected to Postgres")
	}

	// Vector store by driver.
	var vectors vectorstore.Store
	switch cfg.VectorStore.Driver {
	case "memory":
		vectors = vectorstore.NewMemoryStore()
	case "chromem":
		vectors, err = vectorstore.NewChromemStore(cfg.VectorStore.ChromemDir)
		if err != nil {
			logger.Fatal("Failed to open chromem store", zap.Error(err))
		}
	case "postgres":
		if catalog == nil {
			logger.Fatal("vector_store.driver postgres requires postgres.dsn")
		}
		pg := vectorstore.NewPostgresStore(catalog.DB())
		if err := pg.Init(ctx); err != nil {
			logger.Fatal("Failed to init postgres vector store", zap.Error(err))
		}
		vectors = pg
	default:
		logger.Fatal("Unknown vector store driver", zap.String("driver", cfg.VectorStore.Driver))
	}

	// Job store by driver.
	var jobs jobstore.Store
	switch cfg.JobStore.Driver {
	case "memory":
		jobs = jobstore.NewMemoryStore()
	case "redis":
		redisJobs, err := jobstore.NewRedisStore(jobstore.RedisConfig{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
			TTL:      time.Duration(cfg.JobStore.TTLSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to create redis job store", zap.Error(err))
		}
		defer redisJobs.Close()
		health.Add("redis", redisJobs)
		jobs = redisJobs
	default:
		logger.Fatal("Unknown job store driver", zap.String("driver", cfg.JobStore.Driver))
	}

	// LLM clients. Query and document embedders carry different task hints
	// and must not be swapped.
	llmTimeout := time.Duration(cfg.LLM.RequestTimeoutSec) * time.Second
	baseEmbedder := openaiClient.NewEmbedder(&openaiClient.EmbedderConfig{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.EmbeddingModel,
		Dimensions:     cfg.LLM.Dimensions,
		RequestTimeout: llmTimeout,
		Logger:         logger,
	})
	docEmbedder := instructed(baseEmbedder, cfg.LLM.DocumentInstruction)
	queryEmbedder := instructed(baseEmbedder, cfg.LLM.QueryInstruction)

	generator := openaiClient.NewChatClient(&openaiClient.ChatConfig{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.ChatModel,
		RequestTimeout: llmTimeout,
		Logger:         logger,
	})
	health.Add("llm", healthuc.PingerFunc(generator.HealthCheck))

	extractor := extract.New()

	ingestSplitter, err := chunk.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid ingest chunking config", zap.Error(err))
	}
	notesSplitter, err := chunk.NewSplitter(cfg.Notes.Chunking.ChunkSize, cfg.Notes.Chunking.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid notes chunking config", zap.Error(err))
	}

	var catalogIface ingestuc.Catalog
	var history chatuc.History
	var studyCatalog cataloguc.Store
	if catalog != nil {
		catalogIface = catalog
		history = catalog
		studyCatalog = catalog
	} else {
		mem := studystore.NewMemory()
		catalogIface = mem
		history = mem
		studyCatalog = mem
	}

	ingestSvc := ingestuc.New(extractor, ingestSplitter, docEmbedder, vectors, catalogIface)
	chatSvc := chatuc.New(queryEmbedder, vectors, generator, history, cfg.Search.TopK, cfg.Search.Threshold)
	catalogSvc := cataloguc.New(studyCatalog)

	notesSvc := notesuc.New(jobs, extractor, notesSplitter, generator, cfg.Notes.ResultDir, cfg.Notes.QueueSize, logger)
	notesSvc.Start(cfg.Notes.Workers)
	logger.Info("Notes workers started",
		zap.Int("workers", cfg.Notes.Workers),
		zap.Int("queue_size", cfg.Notes.QueueSize),
	)

	server := chiTransport.NewServer(notesSvc, ingestSvc, chatSvc, catalogSvc, health, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)
	r.Handle("/metrics", promhttp.Handler())

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

	// Drain in-flight notes jobs after the listener stops.
	notesSvc.Stop()

	logger.Info("Server stopped gracefully")
}

// embedderClient is an embedder with native batch support.
type embedderClient interface {
	domain.Embedder
	domain.BatchEmbedder
}

// instructed wraps an embedder with a task instruction when one is configured.
func instructed(base embedderClient, instruction string) embedderClient {
	if instruction == "" {
		return base
	}
	return domain.NewInstructionEmbedder(base, instruction)
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
						"error": "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

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
