package handlers

import (
	"context"
	"errors"
	"net/http"

	"learner-feature/internal/apperr"
	"learner-feature/internal/content"
	"learner-feature/internal/fetcher"
)

// Scraper fetches a URL as a structured document. *fetcher.HTTPFetcher implements it.
type Scraper interface {
	Fetch(ctx context.Context, url string, opts fetcher.Options) (*content.Document, error)
}

// ScrapeRequest represents the HTTP request payload for a scrape.
type ScrapeRequest struct {
	URL     string       `json:"url"`
	Options FetchOptions `json:"options"`
}

// ScrapeHandler returns the structured content of a page without indexing it.
type ScrapeHandler struct {
	scraper Scraper
}

func NewScrapeHandler(scraper Scraper) *ScrapeHandler {
	return &ScrapeHandler{scraper: scraper}
}

func (h *ScrapeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScrapeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	doc, err := h.scraper.Fetch(ctx, req.URL, req.Options.toFetcher())
	if err != nil {
		var validationErr *apperr.ValidationError
		if !errors.As(err, &validationErr) {
			err = &apperr.ProviderError{Op: "failed to fetch content", Err: err}
		}
		handleServiceError(ctx, w, err, "Failed to scrape URL")
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}
