package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"learner-feature/internal/handlers"
	"learner-feature/internal/metrics"
	"learner-feature/internal/service"
	"learner-feature/internal/storage"
)

// KeyRegistry is the key surface the router needs. *keys.Registry implements it.
type KeyRegistry interface {
	handlers.KeyManager
	handlers.KeyValidator
}

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Assistant handlers.Assistant
	Ingester  handlers.Ingester
	Retriever handlers.Retriever
	Gate      handlers.KeyGate
	TextStore handlers.TextStore
	Index     handlers.IndexInspector
	// Vectors deletes the vectors of projects whose creation failed. Optional.
	Vectors   handlers.VectorPurger
	Scraper   handlers.Scraper
	Keys      KeyRegistry
	Projects  storage.ProjectStore

	// KeyStore is pinged by the health check. Nil for the in-memory store.
	KeyStore handlers.Pinger
	Embedder handlers.EmbeddingProbe

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// RequestTimeout bounds every request when positive.
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}

	explain := handlers.NewExplainHandler(deps.Assistant)
	chat := handlers.NewChatHandler(deps.Assistant)
	analyze := handlers.NewAnalyzeHandler(deps.Assistant)
	embeddings := handlers.NewEmbeddingsHandler(deps.Retriever, deps.Index)
	store := handlers.NewStoreHandler(deps.Gate, deps.TextStore)
	widget := handlers.NewWidgetHandler(deps.Keys)
	projects := handlers.NewProjectsHandler(deps.Ingester, deps.Keys, deps.Projects, deps.Vectors)
	keyAdmin := handlers.NewKeysHandler(deps.Keys)

	r.Method(http.MethodGet, "/api/health", handlers.NewHealthHandler(deps.KeyStore, deps.Index, deps.Embedder))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Key-authenticated endpoints
		r.Method(http.MethodPost, "/explain", handlers.Instrument(deps.Metrics, service.EndpointExplain, explain))
		r.Method(http.MethodPost, "/chat", handlers.Instrument(deps.Metrics, service.EndpointChat, chat))
		r.Method(http.MethodPost, "/analyze", handlers.Instrument(deps.Metrics, service.EndpointAnalyze, analyze))
		r.Method(http.MethodPost, "/embeddings/query",
			handlers.Instrument(deps.Metrics, handlers.EndpointEmbeddingsQuery, http.HandlerFunc(embeddings.Query)))
		r.Method(http.MethodPost, "/embeddings/store", handlers.Instrument(deps.Metrics, handlers.EndpointEmbeddingsStore, store))
		r.Method(http.MethodPost, "/widget/status", handlers.Instrument(deps.Metrics, handlers.EndpointWidgetStatus, widget))
		r.Method(http.MethodGet, "/metrics/project", handlers.NewProjectMetricsHandler(deps.Keys, deps.Gatherer))

		r.Get("/embeddings/stats", embeddings.Stats)
		r.Method(http.MethodPost, "/scrape", handlers.NewScrapeHandler(deps.Scraper))

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projects.List)
			r.Post("/", projects.Create)
			r.Get("/{projectID}", projects.Get)
		})

		r.Route("/keys", func(r chi.Router) {
			r.Get("/", keyAdmin.List)
			r.Post("/", keyAdmin.Create)
			r.Get("/stats", keyAdmin.Stats)
			r.Get("/{key}", keyAdmin.Get)
			r.Put("/{key}", keyAdmin.Update)
			r.Delete("/{key}", keyAdmin.Delete)
		})
	})

	return r
}
