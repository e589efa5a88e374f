package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"learner-feature/internal/apperr"
	"learner-feature/internal/content"
	"learner-feature/internal/embedding"
	"learner-feature/internal/embedding/mocks"
	"learner-feature/internal/fetcher"
	"learner-feature/internal/ingest"
	"learner-feature/internal/vectorstore"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const dim = 4

var project = ingest.Project{ID: "project_1", Name: "Acme", URL: "https://acme.test", KeyID: "key_1"}

func pricingDoc() *content.Document {
	return &content.Document{
		URL:         "https://acme.test/pricing",
		Title:       "Acme Pricing",
		Description: "Plans and prices",
		Headings: []content.Heading{
			{Level: 1, Text: "Pricing plans overview"},
			{Level: 3, Text: "FAQ"},
		},
		Paragraphs: []string{"Our plans start at five dollars per month for individuals."},
		Lists:      []content.List{{Type: "ul", Items: []string{"Free trial", "Cancel anytime"}}},
		Links:      []content.Link{{URL: "https://acme.test/docs", Text: "Read the docs", Internal: true}},
		Images:     []content.Image{{Src: "https://acme.test/logo.png"}},
		Metadata:   content.Metadata{Author: "Jo"},
	}
}

type harness struct {
	orch     *ingest.Orchestrator
	provider *mocks.MockProvider
	store    *vectorstore.Store
}

func newHarness(t *testing.T, opts ...ingest.Option) harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	pipeline := embedding.NewPipeline(provider, embedding.WithThrottle(0))
	store := vectorstore.New(nil, vectorstore.WithDimension(dim))
	opts = append([]ingest.Option{
		ingest.WithDimension(dim),
		ingest.WithClock(func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }),
	}, opts...)
	return harness{
		orch:     ingest.NewOrchestrator(pipeline, store, opts...),
		provider: provider,
		store:    store,
	}
}

func unitVector(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func TestOrchestrator_Ingest(t *testing.T) {
	h := newHarness(t)
	h.provider.EXPECT().Embed(gomock.Any(), gomock.Any()).DoAndReturn(unitVector).AnyTimes()
	ctx := context.Background()

	res, err := h.orch.Ingest(ctx, pricingDoc(), project)
	require.NoError(t, err)

	// mainContent: heading h1 + paragraph (FAQ is too short once labelled)
	// navigation: heading h1
	// interactive: link
	// informational: paragraph + list
	assert.Equal(t, 6, res.EmbeddingCount)
	assert.Equal(t, []string{"mainContent", "navigation", "interactive", "informational"}, res.ContentTypes)
	assert.Equal(t, ingest.ContentStats{Headings: 2, Paragraphs: 1, Lists: 1, Links: 1, Images: 1}, res.Stats.Content)
	assert.Equal(t, ingest.EmbeddingStats{Total: 7, Successful: 6, Failed: 0, Skipped: 1}, res.Stats.Embeddings)
	assert.Equal(t, ingest.MetadataStats{Title: "Acme Pricing", Description: "Plans and prices", Author: "Jo", HasStructuredData: true}, res.Stats.Metadata)
	assert.Empty(t, res.Errors)

	st, err := h.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"project_1_mainContent":   2,
		"project_1_navigation":    1,
		"project_1_interactive":   1,
		"project_1_informational": 2,
		"project_1_metadata":      1,
	}, st.Namespaces)

	matches, err := h.store.Query(ctx, []float32{1, 0, 0, 0}, vectorstore.QueryOptions{TopK: 5, Namespace: "project_1_interactive"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "project_1_interactive_0", matches[0].ID)
	assert.Equal(t, "Link: Read the docs (https://acme.test/docs)", matches[0].Text)
	assert.Equal(t, "Acme Pricing", matches[0].Title)
	assert.Equal(t, "interactive", matches[0].Metadata["contentType"])
	assert.Equal(t, "project_1", matches[0].Metadata["projectId"])
}

func TestOrchestrator_ReingestIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.provider.EXPECT().Embed(gomock.Any(), gomock.Any()).DoAndReturn(unitVector).AnyTimes()
	ctx := context.Background()

	_, err := h.orch.Ingest(ctx, pricingDoc(), project)
	require.NoError(t, err)
	first, err := h.store.Stats(ctx)
	require.NoError(t, err)

	_, err = h.orch.Ingest(ctx, pricingDoc(), project)
	require.NoError(t, err)
	second, err := h.store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.VectorCount, second.VectorCount)
}

func TestOrchestrator_EmptyContent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.orch.Ingest(ctx, &content.Document{URL: "https://empty.test"}, project)
	require.NoError(t, err)
	assert.Equal(t, 0, res.EmbeddingCount)
	assert.Empty(t, res.ContentTypes)

	st, err := h.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"project_1_metadata": 1}, st.Namespaces)
}

func TestOrchestrator_PartialFailure(t *testing.T) {
	h := newHarness(t)
	h.provider.EXPECT().Embed(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "five dollars") {
			return nil, errors.New("provider overloaded")
		}
		return unitVector(ctx, text)
	}).AnyTimes()

	doc := pricingDoc()
	doc.Paragraphs[0] = "Our plans start at five dollars per month. " + strings.Repeat("More detail follows here. ", 10)

	res, err := h.orch.Ingest(context.Background(), doc, project)
	require.NoError(t, err)

	// The paragraph fails in both mainContent and informational.
	assert.Equal(t, 2, res.Stats.Embeddings.Failed)
	assert.Equal(t, 4, res.EmbeddingCount)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "mainContent", res.Errors[0].ContentType)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Len(t, []rune(res.Errors[0].Content), 100)
	assert.Contains(t, res.Errors[0].Error, "provider overloaded")
	assert.Equal(t, "informational", res.Errors[1].ContentType)
}

func TestOrchestrator_NoEmbeddings(t *testing.T) {
	h := newHarness(t)
	h.provider.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(nil, errors.New("down")).AnyTimes()

	_, err := h.orch.Ingest(context.Background(), pricingDoc(), project)
	assert.ErrorIs(t, err, apperr.ErrNoEmbeddings)
}

func TestOrchestrator_ChunksLongUnits(t *testing.T) {
	h := newHarness(t)
	var calls int
	h.provider.EXPECT().Embed(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, text string) ([]float32, error) {
		calls++
		return unitVector(ctx, text)
	}).AnyTimes()

	doc := &content.Document{Paragraphs: []string{strings.Repeat("word ", 2500)}}
	res, err := h.orch.Ingest(context.Background(), doc, project)
	require.NoError(t, err)

	// 2501 words with a 1000 word window and 100 word overlap gives 3 windows,
	// once for mainContent and once for informational.
	assert.Equal(t, 6, res.EmbeddingCount)
	assert.Equal(t, 6, calls)
}

type failingIndex struct{}

func (failingIndex) Upsert(context.Context, string, []vectorstore.Vector) (vectorstore.UpsertResult, error) {
	return vectorstore.UpsertResult{}, apperr.ErrIndexUnavailable
}

func TestOrchestrator_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Embed(gomock.Any(), gomock.Any()).DoAndReturn(unitVector).AnyTimes()
	orch := ingest.NewOrchestrator(embedding.NewPipeline(provider, embedding.WithThrottle(0)), failingIndex{})

	_, err := orch.Ingest(context.Background(), pricingDoc(), project)
	assert.ErrorIs(t, err, apperr.ErrIndexUnavailable)
}

func TestOrchestrator_Validation(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.Ingest(context.Background(), pricingDoc(), ingest.Project{})
	var verr *apperr.ValidationError
	assert.ErrorAs(t, err, &verr)
}

type stubFetcher struct {
	doc *content.Document
	err error
	got string
}

func (s *stubFetcher) Fetch(_ context.Context, url string, _ fetcher.Options) (*content.Document, error) {
	s.got = url
	return s.doc, s.err
}

func TestOrchestrator_IngestURL(t *testing.T) {
	f := &stubFetcher{doc: pricingDoc()}
	h := newHarness(t, ingest.WithFetcher(f))
	h.provider.EXPECT().Embed(gomock.Any(), gomock.Any()).DoAndReturn(unitVector).AnyTimes()

	res, err := h.orch.IngestURL(context.Background(), "https://acme.test/pricing", project, fetcher.Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://acme.test/pricing", f.got)
	assert.Equal(t, 6, res.EmbeddingCount)

	f.err = errors.New("dns failure")
	_, err = h.orch.IngestURL(context.Background(), "https://acme.test/pricing", project, fetcher.Options{})
	assert.ErrorContains(t, err, "failed to fetch content")
	var provErr *apperr.ProviderError
	assert.ErrorAs(t, err, &provErr)
}
