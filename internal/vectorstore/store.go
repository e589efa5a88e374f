// Package vectorstore provides a namespaced vector index that starts on a durable
// backend and falls back, once and for the life of the process, to memory.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"learner-feature/internal/apperr"
	"learner-feature/internal/contextutil"
	"learner-feature/internal/metrics"
)

// IndexState is the lifecycle state of a Store.
type IndexState int

const (
	Uninitialized IndexState = iota
	Durable
	Fallback
)

func (s IndexState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Durable:
		return "durable"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("IndexState(%d)", int(s))
	}
}

const (
	defaultTopK = 10
	// MaxTextLength caps the source text kept with a vector.
	MaxTextLength = 1000
)

// Store routes index operations to the durable backend while it works and to an
// in-memory backend after initialization or a write has failed.
type Store struct {
	// initMu serializes first use; mu guards the fields below and is never
	// held while the durable backend initializes.
	initMu sync.Mutex

	mu       sync.Mutex
	state    IndexState
	durable  Backend
	fallback Backend
	reason   error

	dimension  int
	maxVectors int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type Option func(*Store)

func WithDimension(d int) Option {
	return func(s *Store) { s.dimension = d }
}

// WithMaxVectors sets the capacity used for the fallback's fullness statistic.
func WithMaxVectors(n int) Option {
	return func(s *Store) { s.maxVectors = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithFallbackBackend replaces the in-memory backend used after a failure.
func WithFallbackBackend(b Backend) Option {
	return func(s *Store) { s.fallback = b }
}

// New creates a Store over durable. A nil durable backend means the store starts in fallback.
func New(durable Backend, opts ...Option) *Store {
	s := &Store{
		durable:    durable,
		maxVectors: 10000,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fallback == nil {
		s.fallback = NewMemoryBackend(s.dimension, s.maxVectors)
	}
	return s
}

// State reports the current IndexState without initializing the store.
func (s *Store) State() IndexState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FallbackReason returns the error that caused the fallback transition, if any.
func (s *Store) FallbackReason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Init initializes the durable backend on first use. Concurrent callers wait for
// the first one. Initialization failure is absorbed by switching to fallback.
func (s *Store) Init(ctx context.Context) IndexState {
	_, state := s.active(ctx)
	return state
}

func (s *Store) active(ctx context.Context) (Backend, IndexState) {
	if s.State() == Uninitialized {
		s.initialize(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Durable {
		return s.durable, Durable
	}
	return s.fallback, Fallback
}

func (s *Store) initialize(ctx context.Context) {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.State() != Uninitialized {
		return
	}

	err := fmt.Errorf("no durable index configured")
	if s.durable != nil {
		err = s.durable.Init(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.toFallbackLocked(ctx, err)
		return
	}
	s.state = Durable
	s.metrics.SetIndexState(int(Durable))
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "vector index ready", "state", Durable)
}

// degrade moves a durable store to fallback after a failed call. It is a no-op
// when another caller already made the transition.
func (s *Store) degrade(ctx context.Context, cause error) Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Fallback {
		s.toFallbackLocked(ctx, cause)
	}
	return s.fallback
}

func (s *Store) toFallbackLocked(ctx context.Context, cause error) {
	s.state = Fallback
	s.reason = cause
	s.metrics.SetIndexState(int(Fallback))
	s.metrics.IncFallback()
	contextutil.LoggerFromContext(ctx).WarnContext(ctx, "vector index switched to in-memory fallback", "error", cause)
}

// Upsert writes vectors into namespace. A failed durable write switches the store
// to fallback and is retried there, so the caller only sees an error when no
// working store remains.
func (s *Store) Upsert(ctx context.Context, namespace string, vectors []Vector) (UpsertResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if namespace == "" {
		return UpsertResult{}, apperr.NewValidationError("namespace", "cannot be empty")
	}
	if len(vectors) == 0 {
		return UpsertResult{}, nil
	}
	prepared := make([]Vector, len(vectors))
	for i, v := range vectors {
		if v.ID == "" {
			return UpsertResult{}, apperr.NewValidationError("id", fmt.Sprintf("vector %d has no id", i))
		}
		if len(v.Values) == 0 {
			return UpsertResult{}, apperr.NewValidationError("values", fmt.Sprintf("vector %s has no values", v.ID))
		}
		v.Text = truncate(v.Text, MaxTextLength)
		prepared[i] = v
	}

	backend, state := s.active(ctx)
	err := backend.Upsert(ctx, namespace, prepared)
	if err != nil && state == Durable {
		logger.ErrorContext(ctx, "durable upsert failed, retrying in memory", "namespace", namespace, "count", len(prepared), "error", err)
		backend, state = s.degrade(ctx, err), Fallback
		err = backend.Upsert(ctx, namespace, prepared)
	}
	if err != nil {
		return UpsertResult{}, fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
	}

	s.metrics.ObserveUpsert(state.String(), len(prepared))
	logger.DebugContext(ctx, "upserted vectors", "namespace", namespace, "count", len(prepared), "state", state)
	return UpsertResult{UpsertedCount: len(prepared)}, nil
}

// Query returns matches ordered by descending score. When a threshold is set,
// no match below it is returned in either state.
func (s *Store) Query(ctx context.Context, vector []float32, opts QueryOptions) ([]Match, error) {
	if len(vector) == 0 {
		return nil, apperr.NewValidationError("vector", "cannot be empty")
	}
	if opts.TopK < 0 {
		return nil, apperr.NewValidationError("topK", "must not be negative")
	}
	if opts.TopK == 0 {
		opts.TopK = defaultTopK
	}

	backend, state := s.active(ctx)
	matches, err := backend.Query(ctx, vector, opts)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "vector query failed", "namespace", opts.Namespace, "state", state, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
	}

	if opts.ScoreThreshold != nil {
		kept := matches[:0]
		for _, m := range matches {
			if m.Score >= *opts.ScoreThreshold {
				kept = append(kept, m)
			}
		}
		matches = kept
	}
	sortMatches(matches)
	if len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches, nil
}

func (s *Store) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	backend, _ := s.active(ctx)
	if err := backend.DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
	}
	return nil
}

// DeleteByFilter removes vectors in namespace whose metadata matches filter.
// An empty filter clears the namespace.
func (s *Store) DeleteByFilter(ctx context.Context, namespace string, filter Filter) error {
	if namespace == "" && len(filter) == 0 {
		return apperr.NewValidationError("filter", "namespace or filter required")
	}
	backend, _ := s.active(ctx)
	if err := backend.DeleteByFilter(ctx, namespace, filter); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	backend, _ := s.active(ctx)
	st, err := backend.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
	}
	if st.Namespaces == nil {
		st.Namespaces = map[string]int{}
	}
	return st, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
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
