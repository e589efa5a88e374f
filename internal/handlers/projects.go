package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learner-feature/internal/apperr"
	"learner-feature/internal/contextutil"
	"learner-feature/internal/fetcher"
	"learner-feature/internal/ingest"
	"learner-feature/internal/keys"
	"learner-feature/internal/storage"
	"learner-feature/internal/vectorstore"
)

// Ingester fetches a project's source and indexes it.
type Ingester interface {
	IngestURL(ctx context.Context, url string, project ingest.Project, opts fetcher.Options) (*ingest.Result, error)
}

// KeyIssuer mints and retires project keys. *keys.Registry implements it.
type KeyIssuer interface {
	Issue(ctx context.Context, p keys.IssueParams) (*keys.APIKey, error)
	Revoke(ctx context.Context, token, ownerID string) error
}

// VectorPurger removes vectors by metadata. *vectorstore.Store implements it.
type VectorPurger interface {
	DeleteByFilter(ctx context.Context, namespace string, filter vectorstore.Filter) error
}

// FetchOptions is the HTTP form of fetcher.Options. Links and images are
// extracted unless explicitly disabled.
type FetchOptions struct {
	MaxPages      int    `json:"maxPages,omitempty"`
	IncludeLinks  *bool  `json:"includeLinks,omitempty"`
	IncludeImages *bool  `json:"includeImages,omitempty"`
	WaitSelector  string `json:"waitFor,omitempty"`
}

func (o FetchOptions) toFetcher() fetcher.Options {
	return fetcher.Options{
		MaxPages:      o.MaxPages,
		ExcludeLinks:  o.IncludeLinks != nil && !*o.IncludeLinks,
		ExcludeImages: o.IncludeImages != nil && !*o.IncludeImages,
		WaitSelector:  o.WaitSelector,
	}
}

// CreateProjectRequest represents the HTTP request payload for project creation.
type CreateProjectRequest struct {
	Name           string       `json:"name"`
	URL            string       `json:"url"`
	Description    string       `json:"description,omitempty"`
	Features       []string     `json:"features,omitempty"`
	RateLimit      int          `json:"rateLimit,omitempty"`
	AllowedDomains []string     `json:"allowedDomains,omitempty"`
	Options        FetchOptions `json:"options"`
}

// CreateProjectResponse is returned once a project is ingested and keyed.
type CreateProjectResponse struct {
	Project        *storage.ProjectRecord `json:"project"`
	APIKey         *keys.APIKey           `json:"apiKey"`
	Stats          ingest.Stats           `json:"stats"`
	ContentTypes   []string               `json:"contentTypes"`
	EmbeddingCount int                    `json:"embeddingCount"`
	Errors         []ingest.UnitError     `json:"errors,omitempty"`
}

// ProjectsHandler serves project creation and lookup.
type ProjectsHandler struct {
	ingester Ingester
	keys     KeyIssuer
	projects storage.ProjectStore
	vectors  VectorPurger
	now      func() time.Time
}

// NewProjectsHandler creates a new ProjectsHandler. vectors may be nil, in
// which case vectors of a failed project are left in place.
func NewProjectsHandler(ingester Ingester, issuer KeyIssuer, projects storage.ProjectStore, vectors VectorPurger) *ProjectsHandler {
	return &ProjectsHandler{
		ingester: ingester,
		keys:     issuer,
		projects: projects,
		vectors:  vectors,
		now:      time.Now,
	}
}

func newProjectID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("project_%d_%s", now.UnixMilli(), suffix)
}

// Create registers a project: it issues the project key, ingests the source
// and saves the project. If ingestion or saving fails the key is revoked and
// any vectors already written for the project are deleted.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		handleServiceError(ctx, w, apperr.NewValidationError("name", "cannot be empty"), "")
		return
	}
	if _, err := fetcher.ValidateURL(req.URL); err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}

	owner := ownerFrom(r)
	now := h.now()
	projectID := newProjectID(now)
	logger = logger.With("project_id", projectID)

	key, err := h.keys.Issue(ctx, keys.IssueParams{
		OwnerID:        owner,
		ProjectID:      projectID,
		ProjectName:    req.Name,
		ProjectURL:     req.URL,
		Name:           req.Name + " key",
		Description:    req.Description,
		Features:       req.Features,
		RateLimit:      req.RateLimit,
		AllowedDomains: req.AllowedDomains,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to issue API key")
		return
	}

	release := func(cause error) {
		if err := h.keys.Revoke(ctx, key.Key, owner); err != nil {
			logger.ErrorContext(ctx, "failed to revoke key of failed project", "error", err, "cause", cause)
		}
		if h.vectors == nil {
			return
		}
		if err := h.vectors.DeleteByFilter(ctx, "", vectorstore.Filter{"projectId": projectID}); err != nil {
			logger.ErrorContext(ctx, "failed to delete vectors of failed project", "error", err, "cause", cause)
		}
	}

	res, err := h.ingester.IngestURL(ctx, req.URL, ingest.Project{
		ID:    projectID,
		Name:  req.Name,
		URL:   req.URL,
		KeyID: key.ID,
	}, req.Options.toFetcher())
	if err != nil {
		release(err)
		handleServiceError(ctx, w, err, "Failed to ingest project content")
		return
	}

	project := &storage.ProjectRecord{
		ID:             projectID,
		Name:           req.Name,
		URL:            req.URL,
		OwnerID:        owner,
		Namespace:      projectID,
		Title:          res.Stats.Metadata.Title,
		Description:    res.Stats.Metadata.Description,
		EmbeddingCount: res.EmbeddingCount,
		CreatedAt:      now,
	}
	if err := h.projects.Create(ctx, project); err != nil {
		release(err)
		handleServiceError(ctx, w, err, "Failed to save project")
		return
	}

	logger.InfoContext(ctx, "project created",
		"embeddings", res.EmbeddingCount,
		"failed", res.Stats.Embeddings.Failed,
	)
	writeJSON(ctx, w, http.StatusCreated, CreateProjectResponse{
		Project:        project,
		APIKey:         key,
		Stats:          res.Stats,
		ContentTypes:   res.ContentTypes,
		EmbeddingCount: res.EmbeddingCount,
		Errors:         res.Errors,
	})
}

// List returns the caller's projects, newest first.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projects, err := h.projects.ListByOwner(ctx, ownerFrom(r))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list projects")
		return
	}
	if projects == nil {
		projects = []storage.ProjectRecord{}
	}
	writeJSON(ctx, w, http.StatusOK, projects)
}

// Get returns one project owned by the caller.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, err := h.projects.Get(ctx, chi.URLParam(r, "projectID"))
	if err == nil && project.OwnerID != ownerFrom(r) {
		err = apperr.ErrNotAuthorized
	}
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load project")
		return
	}
	writeJSON(ctx, w, http.StatusOK, project)
}
