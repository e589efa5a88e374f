// Package retrieval gates vector queries behind API key validation and billing.
package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_gateway.go -package=mocks learner-feature/internal/retrieval KeyValidator,Embedder,VectorQuerier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"learner-feature/internal/apperr"
	"learner-feature/internal/content"
	"learner-feature/internal/contextutil"
	"learner-feature/internal/keys"
	"learner-feature/internal/metrics"
	"learner-feature/internal/vectorstore"
)

// KeyValidator admits requests against API keys and bills them.
type KeyValidator interface {
	Acquire(ctx context.Context, token, origin, feature string) (*keys.APIKey, error)
	RecordUsage(ctx context.Context, token, endpoint string, metadata map[string]any) error
}

// Embedder turns query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorQuerier runs similarity queries against one namespace at a time.
type VectorQuerier interface {
	Query(ctx context.Context, vector []float32, opts vectorstore.QueryOptions) ([]vectorstore.Match, error)
}

// NamespaceQuery tunes one bucket of a fan-out query.
type NamespaceQuery struct {
	Bucket    content.Bucket `json:"bucket"`
	TopK      int            `json:"topK"`
	Threshold float32        `json:"threshold"`
}

// Request is a complete retrieval: authorize, embed, query, bill.
// Vector takes precedence over Query when both are set.
type Request struct {
	Token      string
	Origin     string
	Endpoint   string
	Feature    string
	Query      string
	Vector     []float32
	Namespaces []NamespaceQuery
	Filter     vectorstore.Filter
}

// Result holds the merged matches of a retrieval.
type Result struct {
	Key     *keys.APIKey
	Matches []vectorstore.Match
}

// Gateway is the single path from a presented key to ranked fragments.
type Gateway struct {
	validator KeyValidator
	embedder  Embedder
	index     VectorQuerier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// NewGateway creates a Gateway.
func NewGateway(validator KeyValidator, embedder Embedder, index VectorQuerier, opts ...Option) *Gateway {
	g := &Gateway{validator: validator, embedder: embedder, index: index}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) getLogger(ctx context.Context) *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return contextutil.LoggerFromContext(ctx)
}

// Authorize admits one request for token from origin, requiring feature when it
// is non-empty. An admitted request holds a slot of the key's hourly quota.
func (g *Gateway) Authorize(ctx context.Context, token, origin, feature string) (*keys.APIKey, error) {
	key, err := g.validator.Acquire(ctx, token, origin, feature)
	if err != nil {
		var authErr *apperr.AuthError
		if errors.As(err, &authErr) {
			g.metrics.IncAuthFailure(string(authErr.Kind))
			g.getLogger(ctx).InfoContext(ctx, "key rejected", "reason", authErr.Kind, "origin", origin)
		}
		return nil, err
	}
	contextutil.ScopeFromContext(ctx).SetProject(key.ProjectID)
	return key, nil
}

// EmbedQuery embeds query text for retrieval.
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, apperr.NewValidationError("query", "cannot be empty")
	}
	vec, err := g.embedder.Embed(ctx, text)
	if errors.Is(err, apperr.ErrTextTooShort) {
		return nil, apperr.NewValidationError("query", "too short to search")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vec, nil
}

// Search issues one query per namespace of projectID and merges the results by descending score.
func (g *Gateway) Search(ctx context.Context, projectID string, vector []float32, filter vectorstore.Filter, queries ...NamespaceQuery) ([]vectorstore.Match, error) {
	if projectID == "" {
		return nil, apperr.NewValidationError("projectId", "key is not bound to a project")
	}
	if len(vector) == 0 {
		return nil, apperr.NewValidationError("vector", "cannot be empty")
	}

	var merged []vectorstore.Match
	for _, q := range queries {
		if q.Threshold < 0 || q.Threshold > 1 {
			return nil, apperr.NewValidationError("threshold", "must be between 0 and 1")
		}
		matches, err := g.index.Query(ctx, vector, vectorstore.QueryOptions{
			TopK:           q.TopK,
			Namespace:      vectorstore.Namespace(projectID, string(q.Bucket)),
			Filter:         filter,
			ScoreThreshold: vectorstore.Threshold(q.Threshold),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", q.Bucket, err)
		}
		g.getLogger(ctx).DebugContext(ctx, "namespace queried", "bucket", q.Bucket, "matches", len(matches))
		merged = append(merged, matches...)
	}
	return merged, nil
}

// Rank sorts matches by descending score. Equal scores are ordered by
// lexical overlap with query, then by id.
func Rank(matches []vectorstore.Match, query string) {
	lexical := make(map[string]float32, len(matches))
	if query != "" {
		for _, m := range matches {
			lexical[m.ID] = lexicalScore(query, m.Text, m.Title)
		}
	}
	slices.SortStableFunc(matches, func(a, b vectorstore.Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		switch la, lb := lexical[a.ID], lexical[b.ID]; {
		case la > lb:
			return -1
		case la < lb:
			return 1
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// Record bills one call to token unless cause is an authentication failure.
// Billing errors are logged and swallowed so they never mask the call's own result.
func (g *Gateway) Record(ctx context.Context, token, endpoint string, metadata map[string]any, cause error) {
	var authErr *apperr.AuthError
	if errors.As(cause, &authErr) {
		return
	}
	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta["success"] = cause == nil
	if err := g.validator.RecordUsage(ctx, token, endpoint, meta); err != nil {
		g.getLogger(ctx).WarnContext(ctx, "failed to record usage", "endpoint", endpoint, "error", err)
	}
}

// ObserveFragments records how many fragments a retrieval produced for projectID.
func (g *Gateway) ObserveFragments(projectID string, n int) {
	g.metrics.ObserveFragments(projectID, n)
}

// Retrieve runs a full retrieval for req. Usage is recorded on every outcome
// except authentication failures.
func (g *Gateway) Retrieve(ctx context.Context, req Request) (res *Result, err error) {
	key, err := g.Authorize(ctx, req.Token, req.Origin, req.Feature)
	if err != nil {
		return nil, err
	}
	defer func() {
		meta := map[string]any{"namespaces": len(req.Namespaces)}
		if res != nil {
			meta["matches"] = len(res.Matches)
		}
		g.Record(ctx, req.Token, req.Endpoint, meta, err)
	}()

	if len(req.Namespaces) == 0 {
		return nil, apperr.NewValidationError("namespaces", "at least one namespace is required")
	}
	vector := req.Vector
	if len(vector) == 0 {
		if vector, err = g.EmbedQuery(ctx, req.Query); err != nil {
			return nil, err
		}
	}

	matches, err := g.Search(ctx, key.ProjectID, vector, req.Filter, req.Namespaces...)
	if err != nil {
		return nil, err
	}
	Rank(matches, req.Query)
	g.ObserveFragments(key.ProjectID, len(matches))

	g.getLogger(ctx).InfoContext(ctx, "retrieval completed",
		"project_id", key.ProjectID,
		"endpoint", req.Endpoint,
		"namespaces", len(req.Namespaces),
		"matches", len(matches),
	)
	return &Result{Key: key, Matches: matches}, nil
}
