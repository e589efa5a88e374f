package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"learner-feature/internal/contextutil"
	"learner-feature/internal/keys"
)

const detailsUsageLimit = 50

// KeyManager is the owner-facing key surface. *keys.Registry implements it.
type KeyManager interface {
	KeyIssuer
	Update(ctx context.Context, token, ownerID string, patch keys.Patch) (*keys.APIKey, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*keys.APIKey, error)
	Details(ctx context.Context, token, ownerID string, limit int) (*keys.Details, error)
	StatsGlobal(ctx context.Context) (keys.GlobalStats, error)
}

// CreateKeyRequest represents the HTTP request payload for issuing a key.
type CreateKeyRequest struct {
	ProjectID      string   `json:"projectId,omitempty"`
	ProjectName    string   `json:"projectName,omitempty"`
	ProjectURL     string   `json:"projectUrl,omitempty"`
	Name           string   `json:"name,omitempty"`
	Description    string   `json:"description,omitempty"`
	Features       []string `json:"features,omitempty"`
	RateLimit      int      `json:"rateLimit,omitempty"`
	AllowedDomains []string `json:"allowedDomains,omitempty"`
}

// KeysHandler serves key management for the calling owner.
type KeysHandler struct {
	keys KeyManager
}

// NewKeysHandler creates a new KeysHandler.
func NewKeysHandler(manager KeyManager) *KeysHandler {
	return &KeysHandler{keys: manager}
}

// List returns the owner's keys, newest first, with tokens masked.
func (h *KeysHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owned, err := h.keys.ListByOwner(ctx, ownerFrom(r))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list API keys")
		return
	}
	masked := make([]*keys.APIKey, 0, len(owned))
	for _, k := range owned {
		masked = append(masked, k.Masked())
	}
	writeJSON(ctx, w, http.StatusOK, masked)
}

// Create issues a key. The full token is only ever returned here.
func (h *KeysHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	key, err := h.keys.Issue(ctx, keys.IssueParams{
		OwnerID:        ownerFrom(r),
		ProjectID:      req.ProjectID,
		ProjectName:    req.ProjectName,
		ProjectURL:     req.ProjectURL,
		Name:           req.Name,
		Description:    req.Description,
		Features:       req.Features,
		RateLimit:      req.RateLimit,
		AllowedDomains: req.AllowedDomains,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to create API key")
		return
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "api key issued", "key", keys.MaskToken(key.Key), "project_id", key.ProjectID)
	writeJSON(ctx, w, http.StatusCreated, key)
}

// Get returns a key with its recent usage.
func (h *KeysHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	details, err := h.keys.Details(ctx, chi.URLParam(r, "key"), ownerFrom(r), detailsUsageLimit)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load API key")
		return
	}
	writeJSON(ctx, w, http.StatusOK, details)
}

// Update applies a partial update to a key.
func (h *KeysHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var patch keys.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	key, err := h.keys.Update(ctx, chi.URLParam(r, "key"), ownerFrom(r), patch)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to update API key")
		return
	}
	writeJSON(ctx, w, http.StatusOK, key)
}

// Delete revokes a key.
func (h *KeysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "key")
	if err := h.keys.Revoke(ctx, token, ownerFrom(r)); err != nil {
		handleServiceError(ctx, w, err, "Failed to revoke API key")
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]string{"revoked": keys.MaskToken(token)})
}

// Stats returns counters aggregated across every key.
func (h *KeysHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.keys.StatsGlobal(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute key statistics")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
