package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"learner-feature/internal/apperr"
	"learner-feature/internal/contextutil"
	"learner-feature/internal/keys"
	"learner-feature/internal/metrics"
)

const unknownProject = "unknown"

// Instrument records the status and latency of a key-authenticated endpoint,
// labelled with the project of the presented key once it has been validated.
func Instrument(m *metrics.Metrics, endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, scope := contextutil.WithScope(r.Context())
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(ctx))

		project := scope.Project()
		if project == "" {
			project = unknownProject
		}
		m.ObserveRequest(project, endpoint, rec.status, time.Since(start))
	})
}

// KeyValidator validates a presented key without billing it.
type KeyValidator interface {
	Validate(ctx context.Context, token, origin string) (*keys.APIKey, error)
}

// ProjectMetricsHandler exposes the metrics of the presented key's project.
type ProjectMetricsHandler struct {
	validator KeyValidator
	gatherer  prometheus.Gatherer
}

func NewProjectMetricsHandler(validator KeyValidator, gatherer prometheus.Gatherer) *ProjectMetricsHandler {
	return &ProjectMetricsHandler{validator: validator, gatherer: gatherer}
}

func (h *ProjectMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	key, err := h.validator.Validate(ctx, tokenFrom(r), originFrom(r))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to validate API key")
		return
	}
	if key.ProjectID == "" {
		handleServiceError(ctx, w, apperr.NewValidationError("key", "not bound to a project"), "")
		return
	}

	families, err := h.gatherer.Gather()
	if err != nil {
		logger.ErrorContext(ctx, "failed to gather metrics", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to gather metrics", "")
		return
	}

	w.Header().Set("Content-Type", string(metrics.TextFormat))
	if err := metrics.WriteText(w, metrics.FilterByProject(families, key.ProjectID)); err != nil {
		logger.ErrorContext(ctx, "failed to write metrics", "error", err)
	}
}
