package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks learner-feature/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks learner-feature/internal/service Retriever

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"learner-feature/internal/apperr"
	"learner-feature/internal/content"
	"learner-feature/internal/contextutil"
	"learner-feature/internal/keys"
	"learner-feature/internal/llm"
	"learner-feature/internal/retrieval"
	"learner-feature/internal/vectorstore"
)

// Endpoint names billed for each assistant operation.
const (
	EndpointExplain = "/api/v1/explain"
	EndpointChat    = "/api/v1/chat"
	EndpointAnalyze = "/api/v1/analyze"
)

const (
	// minRelevance drops fragments that passed a namespace threshold but are still weak.
	minRelevance = 0.5
	// explainFallbackBelow widens an explanation to interactive elements when main content is thin.
	explainFallbackBelow = 2
	historyTurns         = 5
	analysisContextItems = 5
	analysisSources      = 3
	temperature          = 0.7
)

var (
	explainMain        = retrieval.NamespaceQuery{Bucket: content.MainContent, TopK: 5, Threshold: 0.6}
	explainInteractive = retrieval.NamespaceQuery{Bucket: content.Interactive, TopK: 3, Threshold: 0.5}
	chatQueries        = []retrieval.NamespaceQuery{
		{Bucket: content.MainContent, TopK: 3, Threshold: 0.6},
		{Bucket: content.Interactive, TopK: 2, Threshold: 0.5},
	}
	analyzeMain = retrieval.NamespaceQuery{Bucket: content.MainContent, TopK: 10, Threshold: 0.4}
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// ChatWithMessages sends a conversation and returns the reply.
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Retriever authorizes callers and finds project fragments. *retrieval.Gateway implements it.
type Retriever interface {
	Authorize(ctx context.Context, token, origin, feature string) (*keys.APIKey, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Search(ctx context.Context, projectID string, vector []float32, filter vectorstore.Filter, queries ...retrieval.NamespaceQuery) ([]vectorstore.Match, error)
	Record(ctx context.Context, token, endpoint string, metadata map[string]any, cause error)
	ObserveFragments(projectID string, n int)
}

// Caller is the credential presented with a request.
type Caller struct {
	Token  string
	Origin string
}

// Fragment is a retrieved piece of project content handed to the model.
type Fragment struct {
	Text        string  `json:"text"`
	ContentType string  `json:"contentType"`
	Score       float32 `json:"score"`
	URL         string  `json:"url,omitempty"`
}

// Assistant answers explain, chat and analyze requests over a project's indexed content.
type Assistant struct {
	retriever Retriever
	llmClient LLMClient
	now       func() time.Time
	logger    *slog.Logger
}

// NewAssistant creates an Assistant.
func NewAssistant(retriever Retriever, llmClient LLMClient) *Assistant {
	return &Assistant{
		retriever: retriever,
		llmClient: llmClient,
		now:       time.Now,
	}
}

func (a *Assistant) getLogger(ctx context.Context) *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return contextutil.LoggerFromContext(ctx)
}

// call authorizes caller for feature and returns a finish func that bills the call.
func (a *Assistant) call(ctx context.Context, caller Caller, endpoint, feature string) (*keys.APIKey, func(meta map[string]any, err error), error) {
	key, err := a.retriever.Authorize(ctx, caller.Token, caller.Origin, feature)
	if err != nil {
		return nil, nil, err
	}
	finish := func(meta map[string]any, err error) {
		a.retriever.Record(ctx, caller.Token, endpoint, meta, err)
	}
	return key, finish, nil
}

// retrieve embeds query and runs plan against the key's project. Retrieval problems are
// logged and yield no fragments so an answer can still be generated without context.
func (a *Assistant) retrieve(ctx context.Context, key *keys.APIKey, query string, plan func(vector []float32) ([]vectorstore.Match, error)) []Fragment {
	logger := a.getLogger(ctx)

	vector, err := a.retriever.EmbedQuery(ctx, query)
	if err != nil {
		logger.WarnContext(ctx, "could not embed query for retrieval", "error", err)
		return nil
	}
	matches, err := plan(vector)
	if err != nil {
		logger.WarnContext(ctx, "could not retrieve relevant content", "project_id", key.ProjectID, "error", err)
		return nil
	}
	retrieval.Rank(matches, query)
	a.retriever.ObserveFragments(key.ProjectID, len(matches))

	fragments := make([]Fragment, 0, len(matches))
	for _, m := range matches {
		contentType, _ := m.Metadata["contentType"].(string)
		if contentType == "" {
			contentType = "content"
		}
		fragments = append(fragments, Fragment{Text: m.Text, ContentType: contentType, Score: m.Score, URL: m.URL})
	}
	logger.DebugContext(ctx, "fragments retrieved", "project_id", key.ProjectID, "count", len(fragments))
	return fragments
}

func relevant(fragments []Fragment) []Fragment {
	out := fragments[:0:0]
	for _, f := range fragments {
		if f.Score > minRelevance {
			out = append(out, f)
		}
	}
	return out
}

func (a *Assistant) complete(ctx context.Context, op string, messages []llm.Message) (string, error) {
	reply, err := a.llmClient.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: temperature})
	if err != nil {
		a.getLogger(ctx).ErrorContext(ctx, "failed to get LLM response", "op", op, "error", err)
		return "", &apperr.ProviderError{Op: op, Err: err}
	}
	return reply, nil
}

// Element describes the page element a visitor asked about.
type Element struct {
	TagName     string `json:"tagName"`
	TextContent string `json:"textContent"`
	ClassName   string `json:"className"`
	ID          string `json:"id"`
	Type        string `json:"type"`
	Role        string `json:"role"`
	AriaLabel   string `json:"ariaLabel"`
	Href        string `json:"href"`
	Title       string `json:"title"`
	Placeholder string `json:"placeholder"`
}

// ExplainRequest asks for an explanation of one element.
type ExplainRequest struct {
	Element  *Element
	URL      string
	Language string
}

// Explanation is the structured answer to an ExplainRequest.
type Explanation struct {
	Explanation     string `json:"explanation"`
	Tips            string `json:"tips"`
	RelatedElements string `json:"relatedElements"`
	ElementType     string `json:"elementType"`
	ContentSources  int    `json:"contentSources"`
}

// Explain describes an element using the project's main content, widening to
// interactive elements when fewer than two main fragments match.
func (a *Assistant) Explain(ctx context.Context, caller Caller, req ExplainRequest) (res *Explanation, err error) {
	key, finish, err := a.call(ctx, caller, EndpointExplain, keys.FeatureExplain)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	defer func() { finish(meta, err) }()

	if req.Element == nil {
		return nil, apperr.NewValidationError("element", "is required")
	}
	el := *req.Element
	if el.TagName == "" {
		el.TagName = "unknown"
	}

	query := joinNonEmpty(" ", el.TagName, truncate(el.TextContent, 100), el.AriaLabel, el.Title, el.Type)
	fragments := relevant(a.retrieve(ctx, key, query, func(vector []float32) ([]vectorstore.Match, error) {
		matches, err := a.retriever.Search(ctx, key.ProjectID, vector, nil, explainMain)
		if err != nil || len(matches) >= explainFallbackBelow {
			return matches, err
		}
		more, err := a.retriever.Search(ctx, key.ProjectID, vector, nil, explainInteractive)
		if err != nil {
			return nil, err
		}
		return append(matches, more...), nil
	}))
	meta["contentSources"] = len(fragments)

	reply, err := a.complete(ctx, "explain", []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: explainPrompt(el, fragments, key, req.URL, req.Language)},
	})
	if err != nil {
		return nil, err
	}

	sections := parseSections(reply)
	res = &Explanation{
		Explanation:     sections.explanation,
		Tips:            sections.tips,
		RelatedElements: sections.related,
		ElementType:     el.TagName,
		ContentSources:  len(fragments),
	}
	if res.Explanation == "" {
		res.Explanation = strings.TrimSpace(reply)
	}
	a.getLogger(ctx).InfoContext(ctx, "explanation generated", "project_id", key.ProjectID, "element", el.TagName, "sources", len(fragments))
	return res, nil
}

// ChatRequest is one visitor message with optional prior turns.
type ChatRequest struct {
	Message string
	History []llm.Message
	URL     string
	Page    PageContext
}

// PageContext describes where the visitor currently is.
type PageContext struct {
	CurrentPage    string `json:"currentPage"`
	CurrentSection string `json:"currentSection"`
	UserFocus      string `json:"userFocus"`
}

// ChatReply is the assistant's answer to a ChatRequest.
type ChatReply struct {
	Message             string    `json:"message"`
	Timestamp           time.Time `json:"timestamp"`
	ProjectName         string    `json:"projectName"`
	HasProjectContext   bool      `json:"hasProjectContext"`
	RelevantContentUsed int       `json:"relevantContentUsed"`
}

// Chat answers a visitor message using main content and interactive elements of the project.
func (a *Assistant) Chat(ctx context.Context, caller Caller, req ChatRequest) (res *ChatReply, err error) {
	key, finish, err := a.call(ctx, caller, EndpointChat, keys.FeatureChat)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	defer func() { finish(meta, err) }()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		a.getLogger(ctx).WarnContext(ctx, "empty message in chat request")
		return nil, apperr.NewValidationError("message", "cannot be empty")
	}

	fragments := relevant(a.retrieve(ctx, key, message, func(vector []float32) ([]vectorstore.Match, error) {
		return a.retriever.Search(ctx, key.ProjectID, vector, nil, chatQueries...)
	}))
	meta["relevantContent"] = len(fragments)

	messages := []llm.Message{{Role: "system", Content: chatSystemPrompt(key, req.URL, req.Page, fragments)}}
	history := req.History
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	for _, m := range history {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, llm.Message{Role: "user", Content: message})

	reply, err := a.complete(ctx, "chat", messages)
	if err != nil {
		return nil, err
	}

	a.getLogger(ctx).InfoContext(ctx, "chat request processed successfully", "message_length", len(message), "reply_length", len(reply))
	return &ChatReply{
		Message:             reply,
		Timestamp:           a.now().UTC(),
		ProjectName:         key.ProjectName,
		HasProjectContext:   len(fragments) > 0,
		RelevantContentUsed: len(fragments),
	}, nil
}

// AnalyzeOptions tunes an analysis.
type AnalyzeOptions struct {
	Language            string `json:"language"`
	IncludeCodeExamples bool   `json:"includeCodeExamples"`
	AnalysisDepth       string `json:"analysisDepth"`
}

// AnalyzeRequest asks for an analysis of supplied content, or of the project's
// indexed content when only a URL is given.
type AnalyzeRequest struct {
	URL     string
	Content string
	Query   string
	Options AnalyzeOptions
}

// Source summarizes a fragment an analysis drew on.
type Source struct {
	Type           string  `json:"type"`
	RelevanceScore float32 `json:"relevanceScore"`
}

// Analysis is the answer to an AnalyzeRequest.
type Analysis struct {
	Analysis             string   `json:"analysis"`
	ProjectName          string   `json:"projectName"`
	RelevantContentFound int      `json:"relevantContentFound"`
	AnalysisType         string   `json:"analysisType"`
	Sources              []Source `json:"sources"`
}

// Analyze produces a structured analysis. Without explicit content the top
// project fragments for the query become the analysed text.
func (a *Assistant) Analyze(ctx context.Context, caller Caller, req AnalyzeRequest) (res *Analysis, err error) {
	key, finish, err := a.call(ctx, caller, EndpointAnalyze, keys.FeatureAnalyze)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	defer func() { finish(meta, err) }()

	if req.Content == "" && req.URL == "" && req.Query == "" {
		return nil, apperr.NewValidationError("content", "content, url or query is required")
	}

	analysisType := "content-based"
	text := req.Content
	var fragments []Fragment
	if text == "" {
		analysisType = "url-based"
		query := req.Query
		if query == "" {
			query = "page analysis overview"
		}
		fragments = a.retrieve(ctx, key, query, func(vector []float32) ([]vectorstore.Match, error) {
			return a.retriever.Search(ctx, key.ProjectID, vector, nil, analyzeMain)
		})
		texts := make([]string, 0, analysisContextItems)
		for _, f := range fragments[:min(len(fragments), analysisContextItems)] {
			texts = append(texts, f.Text)
		}
		text = strings.Join(texts, "\n\n")
		if text == "" {
			text = fmt.Sprintf("Page analysis for %s", cmp.Or(req.URL, key.ProjectURL))
		}
	}
	meta["analysisType"] = analysisType
	meta["relevantContent"] = len(fragments)

	query := cmp.Or(req.Query, "Provide a comprehensive analysis of this page")
	reply, err := a.complete(ctx, "analyze", []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: analysisPrompt(text, query, req.Options)},
	})
	if err != nil {
		return nil, err
	}

	sources := make([]Source, 0, analysisSources)
	for _, f := range fragments[:min(len(fragments), analysisSources)] {
		sources = append(sources, Source{Type: f.ContentType, RelevanceScore: f.Score})
	}
	return &Analysis{
		Analysis:             reply,
		ProjectName:          key.ProjectName,
		RelevantContentFound: len(fragments),
		AnalysisType:         analysisType,
		Sources:              sources,
	}, nil
}
