package handlers

import (
	"context"
	"net/http"

	"learner-feature/internal/content"
	"learner-feature/internal/retrieval"
	"learner-feature/internal/vectorstore"
)

// EndpointEmbeddingsQuery is the endpoint name billed for raw retrievals.
const EndpointEmbeddingsQuery = "/api/v1/embeddings/query"

var defaultQueryNamespaces = []retrieval.NamespaceQuery{
	{Bucket: content.MainContent, TopK: 5, Threshold: 0.5},
}

// Retriever runs a full key-gated retrieval. *retrieval.Gateway implements it.
type Retriever interface {
	Retrieve(ctx context.Context, req retrieval.Request) (*retrieval.Result, error)
}

// IndexInspector reports on the vector index. *vectorstore.Store implements it.
type IndexInspector interface {
	Stats(ctx context.Context) (vectorstore.Stats, error)
	State() vectorstore.IndexState
	FallbackReason() error
}

// QueryRequest represents the HTTP request payload for a raw retrieval.
// Vector may be sent instead of Query to skip embedding.
type QueryRequest struct {
	Query      string                     `json:"query"`
	Vector     []float32                  `json:"vector,omitempty"`
	Namespaces []retrieval.NamespaceQuery `json:"namespaces,omitempty"`
	Filter     vectorstore.Filter         `json:"filter,omitempty"`
}

type QueryResponse struct {
	ProjectID string              `json:"projectId"`
	Count     int                 `json:"count"`
	Matches   []vectorstore.Match `json:"matches"`
}

// StatsResponse is the index statistics together with its lifecycle state.
type StatsResponse struct {
	vectorstore.Stats
	IndexState     string `json:"indexState"`
	FallbackReason string `json:"fallbackReason,omitempty"`
}

// EmbeddingsHandler serves raw retrieval and index statistics.
type EmbeddingsHandler struct {
	retriever Retriever
	index     IndexInspector
}

// NewEmbeddingsHandler creates a new EmbeddingsHandler.
func NewEmbeddingsHandler(retriever Retriever, index IndexInspector) *EmbeddingsHandler {
	return &EmbeddingsHandler{retriever: retriever, index: index}
}

// Query returns the project's fragments ranked by similarity to the query.
func (h *EmbeddingsHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req QueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if len(req.Namespaces) == 0 {
		req.Namespaces = defaultQueryNamespaces
	}

	res, err := h.retriever.Retrieve(ctx, retrieval.Request{
		Token:      tokenFrom(r),
		Origin:     originFrom(r),
		Endpoint:   EndpointEmbeddingsQuery,
		Query:      req.Query,
		Vector:     req.Vector,
		Namespaces: req.Namespaces,
		Filter:     req.Filter,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to query embeddings")
		return
	}

	matches := res.Matches
	if matches == nil {
		matches = []vectorstore.Match{}
	}
	writeJSON(ctx, w, http.StatusOK, QueryResponse{
		ProjectID: res.Key.ProjectID,
		Count:     len(matches),
		Matches:   matches,
	})
}

// Stats returns vector counts per namespace and the index state.
func (h *EmbeddingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.index.Stats(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to read index statistics")
		return
	}
	resp := StatsResponse{Stats: stats, IndexState: h.index.State().String()}
	if reason := h.index.FallbackReason(); reason != nil {
		resp.FallbackReason = reason.Error()
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
