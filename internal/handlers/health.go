package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"learner-feature/internal/contextutil"
	"learner-feature/internal/vectorstore"
)

// Pinger checks a database connection. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// EmbeddingProbe embeds a probe text to check the embedding provider.
type EmbeddingProbe interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const healthProbeText = "health check probe"

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	keyStore           Pinger
	index              IndexInspector
	embedder           EmbeddingProbe
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. keyStore may be nil for the
// in-memory key store, which is always available.
func NewHealthHandler(keyStore Pinger, index IndexInspector, embedder EmbeddingProbe) *HealthHandler {
	return &HealthHandler{
		keyStore:           keyStore,
		index:              index,
		embedder:           embedder,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK when healthy or degraded and 503 Service Unavailable when the
// key store cannot be reached. An index in fallback mode or an unreachable
// embedding provider degrades the service without taking it down.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy or degraded
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checks := make(map[string]string)
	var issues []string
	unhealthy := false

	if h.checkKeyStore(ctx, logger) {
		checks["key_store"] = "ok"
	} else {
		checks["key_store"] = "error"
		issues = append(issues, "key_store_unavailable")
		unhealthy = true
	}

	state := h.index.State()
	checks["vector_index"] = state.String()
	if state != vectorstore.Durable {
		issues = append(issues, "vector_index_"+state.String())
	}

	if h.checkEmbedder(ctx, logger) {
		checks["embedding_provider"] = "ok"
	} else {
		checks["embedding_provider"] = "error"
		issues = append(issues, "embedding_provider_unavailable")
	}

	// Determine overall status
	status := "healthy"
	httpStatus := http.StatusOK
	switch {
	case unhealthy:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case len(issues) > 0:
		status = "degraded"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

func (h *HealthHandler) checkKeyStore(ctx context.Context, logger *slog.Logger) bool {
	if h.keyStore == nil {
		return true
	}
	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()
	if err := h.keyStore.PingContext(checkCtx); err != nil {
		logger.WarnContext(ctx, "key store health check failed", "error", err)
		return false
	}
	return true
}

func (h *HealthHandler) checkEmbedder(ctx context.Context, logger *slog.Logger) bool {
	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()
	if _, err := h.embedder.Embed(checkCtx, healthProbeText); err != nil {
		logger.WarnContext(ctx, "embedding provider health check failed", "error", err)
		return false
	}
	return true
}
