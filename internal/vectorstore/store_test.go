package vectorstore_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"learner-feature/internal/apperr"
	"learner-feature/internal/metrics"
	"learner-feature/internal/vectorstore"
	"learner-feature/internal/vectorstore/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func vec(id string, values ...float32) vectorstore.Vector {
	return vectorstore.Vector{ID: id, Values: values, Text: "text " + id}
}

func TestStore_NoDurableStartsInFallback(t *testing.T) {
	s := vectorstore.New(nil, vectorstore.WithDimension(2))
	assert.Equal(t, vectorstore.Uninitialized, s.State())

	assert.Equal(t, vectorstore.Fallback, s.Init(context.Background()))
	assert.Error(t, s.FallbackReason())
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("fallback", func(t *testing.T) {
		s := vectorstore.New(nil, vectorstore.WithDimension(3))
		_, err := s.Upsert(ctx, "p1_paragraph", []vectorstore.Vector{
			vec("p1_paragraph_0", 1, 0, 0),
			vec("p1_paragraph_1", 0, 1, 0),
		})
		require.NoError(t, err)

		matches, err := s.Query(ctx, []float32{0, 1, 0}, vectorstore.QueryOptions{TopK: 1, Namespace: "p1_paragraph"})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "p1_paragraph_1", matches[0].ID)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
		assert.Equal(t, "p1_paragraph", matches[0].Namespace)
	})

	t.Run("durable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		durable := mocks.NewMockBackend(ctrl)
		durable.EXPECT().Init(gomock.Any()).Return(nil)
		durable.EXPECT().Upsert(gomock.Any(), "p1_heading", gomock.Len(1)).Return(nil)
		durable.EXPECT().Query(gomock.Any(), []float32{1, 0}, gomock.Any()).Return([]vectorstore.Match{
			{ID: "p1_heading_0", Score: 0.99, Namespace: "p1_heading"},
		}, nil)

		s := vectorstore.New(durable)
		_, err := s.Upsert(ctx, "p1_heading", []vectorstore.Vector{vec("p1_heading_0", 1, 0)})
		require.NoError(t, err)
		assert.Equal(t, vectorstore.Durable, s.State())

		matches, err := s.Query(ctx, []float32{1, 0}, vectorstore.QueryOptions{TopK: 1, Namespace: "p1_heading"})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "p1_heading_0", matches[0].ID)
	})
}

func TestStore_ThresholdLaw(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 2))
	s := vectorstore.New(nil, vectorstore.WithDimension(8))

	randomVector := func() []float32 {
		v := make([]float32, 8)
		for i := range v {
			v[i] = rng.Float32()*2 - 1
		}
		return v
	}

	var vectors []vectorstore.Vector
	for i := range 200 {
		vectors = append(vectors, vectorstore.Vector{ID: vectorstore.GenerateID("p", "paragraph", i), Values: randomVector()})
	}
	_, err := s.Upsert(ctx, "p_paragraph", vectors)
	require.NoError(t, err)

	for _, threshold := range []float32{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		matches, err := s.Query(ctx, randomVector(), vectorstore.QueryOptions{
			TopK:           200,
			Namespace:      "p_paragraph",
			ScoreThreshold: vectorstore.Threshold(threshold),
		})
		require.NoError(t, err)
		for i, m := range matches {
			assert.GreaterOrEqual(t, m.Score, threshold)
			if i > 0 {
				assert.GreaterOrEqual(t, matches[i-1].Score, m.Score, "matches must be sorted by descending score")
			}
		}
	}
}

func TestStore_ThresholdAppliedToDurableResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	durable := mocks.NewMockBackend(ctrl)
	durable.EXPECT().Init(gomock.Any()).Return(nil)
	durable.EXPECT().Query(gomock.Any(), gomock.Any(), gomock.Any()).Return([]vectorstore.Match{
		{ID: "low", Score: 0.2},
		{ID: "high", Score: 0.8},
	}, nil)

	s := vectorstore.New(durable)
	matches, err := s.Query(context.Background(), []float32{1}, vectorstore.QueryOptions{ScoreThreshold: vectorstore.Threshold(0.5)})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "high", matches[0].ID)
}

func TestStore_FallbackActivatesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	durable := mocks.NewMockBackend(ctrl)
	durable.EXPECT().Init(gomock.Any()).Return(errors.New("missing API key")).Times(1)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := vectorstore.New(durable, vectorstore.WithDimension(2), vectorstore.WithMetrics(m))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Upsert(ctx, "p_link", []vectorstore.Vector{vec(vectorstore.GenerateID("p", "link", i), 1, 1)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, vectorstore.Fallback, s.State())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbackTransitions))
	assert.Equal(t, float64(vectorstore.Fallback), testutil.ToFloat64(m.IndexState))

	matches, err := s.Query(ctx, []float32{1, 1}, vectorstore.QueryOptions{TopK: 100, Namespace: "p_link"})
	require.NoError(t, err)
	assert.Len(t, matches, 16)
}

func TestStore_StateDoesNotWaitForInit(t *testing.T) {
	ctrl := gomock.NewController(t)
	durable := mocks.NewMockBackend(ctrl)
	entered := make(chan struct{})
	release := make(chan struct{})
	durable.EXPECT().Init(gomock.Any()).DoAndReturn(func(context.Context) error {
		close(entered)
		<-release
		return nil
	}).Times(1)

	s := vectorstore.New(durable, vectorstore.WithDimension(2))
	initDone := make(chan vectorstore.IndexState, 1)
	go func() { initDone <- s.Init(context.Background()) }()
	<-entered

	observed := make(chan struct{})
	go func() {
		assert.Equal(t, vectorstore.Uninitialized, s.State())
		assert.NoError(t, s.FallbackReason())
		close(observed)
	}()
	select {
	case <-observed:
	case <-time.After(time.Second):
		t.Fatal("State() blocked while the durable index was initializing")
	}

	close(release)
	select {
	case state := <-initDone:
		assert.Equal(t, vectorstore.Durable, state)
	case <-time.After(time.Second):
		t.Fatal("Init() did not return")
	}
	assert.Equal(t, vectorstore.Durable, s.State())
}

func TestStore_UpsertFailureRetriesInMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	durable := mocks.NewMockBackend(ctrl)
	durable.EXPECT().Init(gomock.Any()).Return(nil)
	durable.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("deadline exceeded")).Times(1)

	s := vectorstore.New(durable, vectorstore.WithDimension(2))
	ctx := context.Background()

	res, err := s.Upsert(ctx, "p_heading", []vectorstore.Vector{vec("p_heading_0", 1, 0)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpsertedCount)
	assert.Equal(t, vectorstore.Fallback, s.State())

	// Later calls go to memory without touching the durable mock again.
	matches, err := s.Query(ctx, []float32{1, 0}, vectorstore.QueryOptions{TopK: 1, Namespace: "p_heading"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "p_heading_0", matches[0].ID)
}

func TestStore_QueryFailureSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	durable := mocks.NewMockBackend(ctrl)
	durable.EXPECT().Init(gomock.Any()).Return(nil)
	durable.EXPECT().Query(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("unavailable"))

	s := vectorstore.New(durable)
	_, err := s.Query(context.Background(), []float32{1}, vectorstore.QueryOptions{})
	assert.ErrorIs(t, err, apperr.ErrIndexUnavailable)
	assert.Equal(t, vectorstore.Durable, s.State())
}

func TestStore_StatsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := vectorstore.New(nil, vectorstore.WithDimension(2), vectorstore.WithMaxVectors(10))
	_, err := s.Upsert(ctx, "p_paragraph", []vectorstore.Vector{vec("a", 1, 0), vec("b", 0, 1)})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "p_metadata", []vectorstore.Vector{vec("p_metadata", 0, 0)})
	require.NoError(t, err)

	first, err := s.Stats(ctx)
	require.NoError(t, err)
	second, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 3, first.VectorCount)
	assert.Equal(t, 2, first.Dimension)
	assert.InDelta(t, 0.3, first.IndexFullness, 1e-9)
	assert.Equal(t, map[string]int{"p_paragraph": 2, "p_metadata": 1}, first.Namespaces)
}

func TestStore_ReupsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := vectorstore.New(nil, vectorstore.WithDimension(2))

	for range 3 {
		_, err := s.Upsert(ctx, "p_paragraph", []vectorstore.Vector{
			vec(vectorstore.GenerateID("p", "paragraph", 0), 1, 0),
			vec(vectorstore.GenerateID("p", "paragraph", 1), 0, 1),
		})
		require.NoError(t, err)
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.VectorCount)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := vectorstore.New(nil, vectorstore.WithDimension(2))
	_, err := s.Upsert(ctx, "p_link", []vectorstore.Vector{
		{ID: "l0", Values: []float32{1, 0}, Metadata: map[string]any{"internal": true}},
		{ID: "l1", Values: []float32{0, 1}, Metadata: map[string]any{"internal": false}},
		{ID: "l2", Values: []float32{1, 1}, Metadata: map[string]any{"internal": false}},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteByIDs(ctx, []string{"l0"}))
	require.NoError(t, s.DeleteByFilter(ctx, "p_link", vectorstore.Filter{"internal": false}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.VectorCount)

	assert.Error(t, s.DeleteByFilter(ctx, "", nil))
}

func TestStore_Validation(t *testing.T) {
	ctx := context.Background()
	s := vectorstore.New(nil, vectorstore.WithDimension(2))

	tests := []struct {
		name string
		run  func() error
	}{
		{"empty namespace", func() error {
			_, err := s.Upsert(ctx, "", []vectorstore.Vector{vec("a", 1, 0)})
			return err
		}},
		{"missing id", func() error {
			_, err := s.Upsert(ctx, "ns", []vectorstore.Vector{{Values: []float32{1, 0}}})
			return err
		}},
		{"missing values", func() error {
			_, err := s.Upsert(ctx, "ns", []vectorstore.Vector{{ID: "a"}})
			return err
		}},
		{"empty query vector", func() error {
			_, err := s.Query(ctx, nil, vectorstore.QueryOptions{})
			return err
		}},
		{"negative topK", func() error {
			_, err := s.Query(ctx, []float32{1, 0}, vectorstore.QueryOptions{TopK: -1})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *apperr.ValidationError
			assert.ErrorAs(t, tt.run(), &verr)
		})
	}
}

func TestStore_TruncatesText(t *testing.T) {
	ctx := context.Background()
	s := vectorstore.New(nil, vectorstore.WithDimension(1))
	_, err := s.Upsert(ctx, "ns", []vectorstore.Vector{{ID: "a", Values: []float32{1}, Text: strings.Repeat("x", 5000)}})
	require.NoError(t, err)

	matches, err := s.Query(ctx, []float32{1}, vectorstore.QueryOptions{Namespace: "ns"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Len(t, matches[0].Text, vectorstore.MaxTextLength)
}

func TestIndexState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", vectorstore.Uninitialized.String())
	assert.Equal(t, "durable", vectorstore.Durable.String())
	assert.Equal(t, "fallback", vectorstore.Fallback.String())
}

func TestGenerateID(t *testing.T) {
	assert.Equal(t, "project_1_paragraph_4", vectorstore.GenerateID("project_1", "paragraph", 4))
	assert.Equal(t, "project_1_metadata", vectorstore.Namespace("project_1", vectorstore.MetadataContentType))
}
