package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"learner-feature/internal/ingest"
	"learner-feature/internal/keys"
)

// EndpointEmbeddingsStore is the endpoint name billed for stored text.
const EndpointEmbeddingsStore = "/api/v1/embeddings/store"

// KeyGate admits and bills key-authenticated calls. *retrieval.Gateway implements it.
type KeyGate interface {
	Authorize(ctx context.Context, token, origin, feature string) (*keys.APIKey, error)
	Record(ctx context.Context, token, endpoint string, metadata map[string]any, cause error)
}

// TextStore embeds arbitrary text into a project. *ingest.Orchestrator implements it.
type TextStore interface {
	StoreText(ctx context.Context, project ingest.Project, in ingest.TextInput) (*ingest.StoreResult, error)
}

// StoreContent is either plain text or a scraped page carrying its embedding text.
type StoreContent struct {
	Text        string
	Title       string
	URL         string
	Description string
}

func (c *StoreContent) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		return json.Unmarshal(data, &c.Text)
	}
	var page struct {
		TextForEmbedding string `json:"textForEmbedding"`
		Title            string `json:"title"`
		URL              string `json:"url"`
		Description      string `json:"description"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return errors.New("content must be a string or a scraped page")
	}
	*c = StoreContent{Text: page.TextForEmbedding, Title: page.Title, URL: page.URL, Description: page.Description}
	return nil
}

// StoreRequest represents the HTTP request payload for storing text.
type StoreRequest struct {
	Content  StoreContent   `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StoreHandler embeds caller supplied text into the key's data namespace.
type StoreHandler struct {
	gate  KeyGate
	store TextStore
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(gate KeyGate, store TextStore) *StoreHandler {
	return &StoreHandler{gate: gate, store: store}
}

// ServeHTTP chunks, embeds and stores the request content for the key's project.
// Chunks that fail to embed are listed in the response errors.
func (h *StoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	token := tokenFrom(r)
	key, err := h.gate.Authorize(ctx, token, originFrom(r), "")
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to validate API key")
		return
	}

	res, err := h.store.StoreText(ctx, ingest.Project{ID: key.ProjectID, Name: key.ProjectName, URL: key.ProjectURL, KeyID: key.ID}, ingest.TextInput{
		Text:        req.Content.Text,
		URL:         req.Content.URL,
		Title:       req.Content.Title,
		Description: req.Content.Description,
		Metadata:    req.Metadata,
	})

	meta := map[string]any{}
	if res != nil {
		meta["vectors"] = res.VectorsStored
		meta["failed"] = len(res.Errors)
	}
	h.gate.Record(ctx, token, EndpointEmbeddingsStore, meta, err)

	if err != nil {
		handleServiceError(ctx, w, err, "Failed to store embeddings")
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}
