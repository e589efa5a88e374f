package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_handlers.go -package=mocks learner-feature/internal/handlers Assistant,Ingester,Retriever,IndexInspector,Scraper,KeyGate,TextStore,VectorPurger

import (
	"context"
	"net/http"

	"learner-feature/internal/llm"
	"learner-feature/internal/service"
)

// Assistant answers questions about a project's content. *service.Assistant implements it.
type Assistant interface {
	Explain(ctx context.Context, caller service.Caller, req service.ExplainRequest) (*service.Explanation, error)
	Chat(ctx context.Context, caller service.Caller, req service.ChatRequest) (*service.ChatReply, error)
	Analyze(ctx context.Context, caller service.Caller, req service.AnalyzeRequest) (*service.Analysis, error)
}

func callerFrom(r *http.Request) service.Caller {
	return service.Caller{Token: tokenFrom(r), Origin: originFrom(r)}
}

// ExplainRequest represents the HTTP request payload for element explanations.
//
// swagger:model ExplainRequest
type ExplainRequest struct {
	Element  *service.Element `json:"element"`
	URL      string           `json:"url"`
	Language string           `json:"language,omitempty"`
}

// ExplainHandler handles HTTP requests for element explanations.
type ExplainHandler struct {
	assistant Assistant
}

// NewExplainHandler creates a new ExplainHandler.
func NewExplainHandler(assistant Assistant) *ExplainHandler {
	return &ExplainHandler{assistant: assistant}
}

// ServeHTTP explains one page element using the project's indexed content.
//
// swagger:route POST /api/v1/explain explainElement
//
// # Explain a page element
//
// Requires an API key with the explain feature in x-api-key or Authorization.
//
// ---
// responses:
//
//	'200': Explanation
//	'400': description: Invalid element
//	'401': description: Missing or unknown key
//	'403': description: Key disabled, domain not allowed, rate limited or feature not granted
func (h *ExplainHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ExplainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	res, err := h.assistant.Explain(ctx, callerFrom(r), service.ExplainRequest{
		Element:  req.Element,
		URL:      req.URL,
		Language: req.Language,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to generate explanation")
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message string              `json:"message"`
	History []llm.Message       `json:"history,omitempty"`
	URL     string              `json:"url,omitempty"`
	Context service.PageContext `json:"context"`
}

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	assistant Assistant
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(assistant Assistant) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

// ServeHTTP handles HTTP requests for chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	res, err := h.assistant.Chat(ctx, callerFrom(r), service.ChatRequest{
		Message: req.Message,
		History: req.History,
		URL:     req.URL,
		Page:    req.Context,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process chat request")
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}

// AnalyzeRequest represents the HTTP request payload for content analysis.
type AnalyzeRequest struct {
	URL     string                 `json:"url,omitempty"`
	Content string                 `json:"content,omitempty"`
	Query   string                 `json:"query,omitempty"`
	Options service.AnalyzeOptions `json:"options"`
}

// AnalyzeHandler handles HTTP requests for content analysis.
type AnalyzeHandler struct {
	assistant Assistant
}

func NewAnalyzeHandler(assistant Assistant) *AnalyzeHandler {
	return &AnalyzeHandler{assistant: assistant}
}

func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	res, err := h.assistant.Analyze(ctx, callerFrom(r), service.AnalyzeRequest{
		URL:     req.URL,
		Content: req.Content,
		Query:   req.Query,
		Options: req.Options,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to analyze content")
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}
