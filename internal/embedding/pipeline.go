// Package embedding turns text into vectors through a rate-limited provider.
package embedding

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_provider.go -package=mocks learner-feature/internal/embedding Provider

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"learner-feature/internal/apperr"
	"learner-feature/internal/contextutil"
	"learner-feature/internal/metrics"
)

const (
	// MinTextLength is the shortest normalized text that is sent to the provider.
	MinTextLength = 10
	// MaxTextLength caps normalized text, in runes.
	MaxTextLength = 8000

	// DefaultThrottle spaces consecutive provider calls.
	DefaultThrottle = 100 * time.Millisecond

	errorTextLimit = 100
)

// Provider produces one embedding vector per text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pipeline normalizes text and calls the provider no faster than its limiter allows.
type Pipeline struct {
	provider Provider
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Pipeline)

// WithThrottle sets the minimum spacing between provider calls. Zero disables throttling.
func WithThrottle(interval time.Duration) Option {
	return func(p *Pipeline) {
		if interval <= 0 {
			p.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline creates a Pipeline throttled to DefaultThrottle unless overridden.
func NewPipeline(provider Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Every(DefaultThrottle), 1),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?-]`)
)

// Normalize collapses whitespace, strips everything except letters, digits and
// basic punctuation, trims, and caps the result at MaxTextLength runes.
func Normalize(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = disallowedRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	return truncateRunes(text, MaxTextLength)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Embed normalizes text and returns its vector.
// Text shorter than MinTextLength after normalization fails with apperr.ErrTextTooShort
// without reaching the provider. Provider failures are wrapped in *apperr.ProviderError.
func (p *Pipeline) Embed(ctx context.Context, text string) ([]float32, error) {
	normalized := Normalize(text)
	if utf8.RuneCountInString(normalized) < MinTextLength {
		p.metrics.ObserveEmbedding("skipped", 0)
		return nil, apperr.ErrTextTooShort
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	vec, err := p.provider.Embed(ctx, normalized)
	if err == nil && len(vec) == 0 {
		err = errors.New("provider returned an empty vector")
	}
	if err != nil {
		p.metrics.ObserveEmbedding("failure", time.Since(start))
		return nil, &apperr.ProviderError{Op: "embed", Err: err}
	}
	p.metrics.ObserveEmbedding("success", time.Since(start))
	return vec, nil
}

// BatchItem is one successfully embedded input.
type BatchItem struct {
	Index  int
	Text   string
	Vector []float32
}

// BatchError describes an input that failed to embed. Text is truncated.
type BatchError struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// BatchResult holds the outcome of EmbedBatch. Skipped lists inputs that were too short.
type BatchResult struct {
	Embeddings []BatchItem
	Errors     []BatchError
	Skipped    []int
}

// EmbedBatch embeds texts one at a time in order. A failing item is recorded and the
// batch continues. Only cancellation of ctx stops the batch; the partial result is
// returned together with the context error.
func (p *Pipeline) EmbedBatch(ctx context.Context, texts []string) (*BatchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	res := &BatchResult{}

	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		vec, err := p.Embed(ctx, text)
		switch {
		case err == nil:
			res.Embeddings = append(res.Embeddings, BatchItem{Index: i, Text: text, Vector: vec})
		case errors.Is(err, apperr.ErrTextTooShort):
			res.Skipped = append(res.Skipped, i)
		case ctx.Err() != nil:
			return res, ctx.Err()
		default:
			logger.WarnContext(ctx, "embedding failed", "index", i, "error", err)
			res.Errors = append(res.Errors, BatchError{
				Index: i,
				Text:  Truncate(text, errorTextLimit),
				Error: err.Error(),
			})
		}
	}
	return res, nil
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	return truncateRunes(s, n)
}
