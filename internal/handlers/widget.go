package handlers

import (
	"net/http"
	"time"

	"learner-feature/internal/apperr"
	"learner-feature/internal/contextutil"
	"learner-feature/internal/keys"
)

// EndpointWidgetStatus labels widget status requests in metrics.
const EndpointWidgetStatus = "/api/v1/widget/status"

const widgetLanguage = "en"

// WidgetStatusRequest carries the page the widget is embedded in.
type WidgetStatusRequest struct {
	URL string `json:"url"`
}

type WidgetUsage struct {
	TotalRequests       int64 `json:"totalRequests"`
	ExplanationRequests int64 `json:"explanationRequests"`
	ChatRequests        int64 `json:"chatRequests"`
	RateLimit           int   `json:"rateLimit"`
	RequestsThisHour    int64 `json:"requestsThisHour"`
}

// WidgetConfig is what an embedded widget needs to render itself.
type WidgetConfig struct {
	ProjectID      string      `json:"projectId"`
	ProjectName    string      `json:"projectName"`
	ProjectURL     string      `json:"projectUrl"`
	Features       []string    `json:"features"`
	Language       string      `json:"language"`
	Status         string      `json:"status"`
	Usage          WidgetUsage `json:"usage"`
	AllowedDomains []string    `json:"allowedDomains"`
}

type RateLimitStatus struct {
	Remaining int64     `json:"remaining"`
	ResetTime time.Time `json:"resetTime"`
}

type WidgetStatusResponse struct {
	Config          WidgetConfig    `json:"config"`
	DomainAllowed   bool            `json:"domainAllowed"`
	RateLimitStatus RateLimitStatus `json:"rateLimitStatus"`
}

// WidgetHandler reports a key's widget configuration and quota.
type WidgetHandler struct {
	validator KeyValidator
}

func NewWidgetHandler(validator KeyValidator) *WidgetHandler {
	return &WidgetHandler{validator: validator}
}

// ServeHTTP requires a key with the explain feature. Polling the status does not
// consume the key's hourly quota.
func (h *WidgetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req WidgetStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	key, err := h.validator.Validate(ctx, tokenFrom(r), originFrom(r))
	if err == nil && !key.HasFeature(keys.FeatureExplain) {
		err = apperr.FeatureNotGrantedError(keys.FeatureExplain)
	}
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get widget status")
		return
	}
	contextutil.ScopeFromContext(ctx).SetProject(key.ProjectID)

	domains := key.Metadata.AllowedDomains
	if domains == nil {
		domains = []string{}
	}
	writeJSON(ctx, w, http.StatusOK, WidgetStatusResponse{
		Config: WidgetConfig{
			ProjectID:   key.ProjectID,
			ProjectName: key.ProjectName,
			ProjectURL:  key.ProjectURL,
			Features:    key.Features,
			Language:    widgetLanguage,
			Status:      "active",
			Usage: WidgetUsage{
				TotalRequests:       key.Usage.TotalRequests,
				ExplanationRequests: key.Usage.ExplanationRequests,
				ChatRequests:        key.Usage.ChatRequests,
				RateLimit:           key.RateLimit,
				RequestsThisHour:    key.Usage.RequestsThisHour,
			},
			AllowedDomains: domains,
		},
		DomainAllowed: key.AllowsOrigin(req.URL),
		RateLimitStatus: RateLimitStatus{
			Remaining: key.Remaining(),
			ResetTime: key.WindowResetsAt(),
		},
	})
}
