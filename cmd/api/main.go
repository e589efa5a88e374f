package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"learner-feature/internal/config"
	"learner-feature/internal/embedding"
	"learner-feature/internal/fetcher"
	"learner-feature/internal/handlers"
	"learner-feature/internal/http"
	"learner-feature/internal/ingest"
	"learner-feature/internal/keys"
	"learner-feature/internal/llm"
	"learner-feature/internal/metrics"
	"learner-feature/internal/retrieval"
	"learner-feature/internal/service"
	"learner-feature/internal/storage"
	"learner-feature/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API ingests websites into per-project vector namespaces and answers
// explain, chat and analyze requests grounded on that content.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Learner API
//   description: |
//     Retrieval-augmented assistance for embedded site widgets.
//     Every assistance request is authorized by a project API key with an
//     hourly rate limit, an origin allowlist and a feature allowlist.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json
// securityDefinitions:
//   api_key:
//     type: apiKey
//     in: header
//     name: x-api-key

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Key and project storage
	var (
		keyStore     keys.Store
		projectStore storage.ProjectStore
		pinger       handlers.Pinger
	)
	switch cfg.KeyStoreDriver {
	case config.KeyStorePostgres:
		gdb, err := storage.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open postgres: %v", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			log.Fatalf("Failed to access postgres pool: %v", err)
		}
		defer func() {
			_ = sqlDB.Close()
		}()
		keyStore = storage.NewGormKeyRepo(gdb)
		projectStore = storage.NewGormProjectRepo(gdb)
		pinger = sqlDB
		slog.Info("Key store initialized", "driver", cfg.KeyStoreDriver)
	case config.KeyStoreMemory:
		keyStore = keys.NewMemoryStore()
		projectStore = storage.NewMemoryProjectStore()
		slog.Warn("Key store is in memory; keys are lost on restart")
	default:
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()
		if err := storage.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		keyStore = storage.NewKeyRepo(db)
		projectStore = storage.NewProjectRepo(db)
		pinger = db
		slog.Info("Database initialized", "path", cfg.DBPath)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Vector index: Qdrant when configured, in-memory fallback otherwise
	var durable vectorstore.Backend
	if cfg.QdrantURL != "" {
		qdrantBackend, err := vectorstore.NewQdrantBackend(vectorstore.QdrantConfig{
			URL:          cfg.QdrantURL,
			APIKey:       cfg.QdrantAPIKey,
			Collection:   cfg.QdrantCollection,
			VectorSize:   cfg.VectorSize,
			MaxVectors:   cfg.IndexMaxVectors,
			ReadyTimeout: cfg.IndexReadyTimeout,
			PollInterval: cfg.IndexPollInterval,
		})
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		defer func() {
			_ = qdrantBackend.Close()
		}()
		durable = qdrantBackend
	}
	index := vectorstore.New(durable,
		vectorstore.WithDimension(cfg.VectorSize),
		vectorstore.WithMaxVectors(cfg.IndexMaxVectors),
		vectorstore.WithMetrics(m),
		vectorstore.WithLogger(logger),
	)
	state := index.Init(ctx)
	slog.Info("Vector index initialized", "state", state, "collection", cfg.QdrantCollection, "vector_size", cfg.VectorSize)

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.VectorSize)
	if _, err := embedder.Embed(ctx, "test"); err != nil {
		// Degraded health reports this too; startup continues so keys stay manageable.
		slog.Warn("Embedding provider check failed", "error", err)
	} else {
		slog.Info("Embedding client validated", "vector_size", cfg.VectorSize)
	}

	pipeline := embedding.NewPipeline(embedder,
		embedding.WithThrottle(cfg.EmbedThrottle),
		embedding.WithMetrics(m),
		embedding.WithLogger(logger),
	)
	pageFetcher := fetcher.NewHTTPFetcher(cfg.FetchTimeout)

	orchestrator := ingest.NewOrchestrator(pipeline, index,
		ingest.WithFetcher(pageFetcher),
		ingest.WithDimension(cfg.VectorSize),
		ingest.WithLogger(logger),
	)

	registry := keys.NewRegistry(keyStore,
		keys.WithDefaultRateLimit(cfg.DefaultRateLimit),
		keys.WithUsageLimit(cfg.UsageLogLimit),
		keys.WithLogger(logger),
	)

	gateway := retrieval.NewGateway(registry, pipeline, index,
		retrieval.WithMetrics(m),
		retrieval.WithLogger(logger),
	)

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	assistant := service.NewAssistant(gateway, llmClient)
	slog.Info("Assistant initialized", "model", cfg.LLMModelName)

	router := http.NewRouter(&http.Deps{
		Assistant:      assistant,
		Ingester:       orchestrator,
		Retriever:      gateway,
		Gate:           gateway,
		TextStore:      orchestrator,
		Index:          index,
		Vectors:        index,
		Scraper:        pageFetcher,
		Keys:           registry,
		Projects:       projectStore,
		KeyStore:       pinger,
		Embedder:       embedder,
		Metrics:        m,
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
	})

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}
