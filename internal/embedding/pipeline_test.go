package embedding_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"learner-feature/internal/apperr"
	"learner-feature/internal/content"
	"learner-feature/internal/embedding"
	"learner-feature/internal/embedding/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newPipeline(t *testing.T) (*embedding.Pipeline, *mocks.MockProvider) {
	t.Helper()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	return embedding.NewPipeline(provider, embedding.WithThrottle(0)), provider
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapses whitespace", in: "  hello \n\t world  ", want: "hello world"},
		{name: "strips symbols", in: "price: $10 (sale) #deal", want: "price 10 sale deal"},
		{name: "keeps basic punctuation", in: "Yes, really! Why? self-hosted.", want: "Yes, really! Why? self-hosted."},
		{name: "keeps non-ascii letters", in: "Café über naïve", want: "Café über naïve"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, embedding.Normalize(tt.in))
		})
	}
}

func TestNormalize_CapsLength(t *testing.T) {
	got := embedding.Normalize(strings.Repeat("é", embedding.MaxTextLength+500))
	assert.Equal(t, embedding.MaxTextLength, utf8.RuneCountInString(got))
}

func TestPipeline_Embed(t *testing.T) {
	ctx := context.Background()

	t.Run("success sends normalized text", func(t *testing.T) {
		p, provider := newPipeline(t)
		provider.EXPECT().Embed(gomock.Any(), "hello world, again").Return([]float32{0.1, 0.2}, nil)

		vec, err := p.Embed(ctx, "  hello   world, again ")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2}, vec)
	})

	t.Run("short text never reaches provider", func(t *testing.T) {
		p, _ := newPipeline(t)
		_, err := p.Embed(ctx, "tiny $$$ ###")
		assert.ErrorIs(t, err, apperr.ErrTextTooShort)
	})

	t.Run("provider failure is wrapped", func(t *testing.T) {
		p, provider := newPipeline(t)
		cause := errors.New("connection refused")
		provider.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(nil, cause)

		_, err := p.Embed(ctx, "a perfectly reasonable sentence")
		var perr *apperr.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("empty vector is a provider failure", func(t *testing.T) {
		p, provider := newPipeline(t)
		provider.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float32{}, nil)

		_, err := p.Embed(ctx, "a perfectly reasonable sentence")
		var perr *apperr.ProviderError
		assert.ErrorAs(t, err, &perr)
	})
}

func TestPipeline_EmbedBatch(t *testing.T) {
	p, provider := newPipeline(t)
	long := strings.Repeat("failing text ", 20)

	gomock.InOrder(
		provider.EXPECT().Embed(gomock.Any(), "first usable sentence").Return([]float32{1}, nil),
		provider.EXPECT().Embed(gomock.Any(), strings.TrimSpace(long)).Return(nil, errors.New("boom")),
		provider.EXPECT().Embed(gomock.Any(), "third usable sentence").Return([]float32{3}, nil),
	)

	res, err := p.EmbedBatch(context.Background(), []string{
		"first usable sentence",
		"short",
		long,
		"third usable sentence",
	})
	require.NoError(t, err)

	require.Len(t, res.Embeddings, 2)
	assert.Equal(t, 0, res.Embeddings[0].Index)
	assert.Equal(t, 3, res.Embeddings[1].Index)
	assert.Equal(t, []int{1}, res.Skipped)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Index)
	assert.Equal(t, 100, utf8.RuneCountInString(res.Errors[0].Text))
	assert.Contains(t, res.Errors[0].Error, "boom")
}

func TestPipeline_EmbedBatch_Cancelled(t *testing.T) {
	p, provider := newPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())

	provider.EXPECT().Embed(gomock.Any(), "first usable sentence").DoAndReturn(
		func(context.Context, string) ([]float32, error) {
			cancel()
			return []float32{1}, nil
		})

	res, err := p.EmbedBatch(ctx, []string{"first usable sentence", "second usable sentence"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Len(t, res.Embeddings, 1)
}

func TestPrepareText(t *testing.T) {
	tests := []struct {
		unit content.Unit
		want string
	}{
		{content.Unit{Type: content.UnitHeading, Text: "Pricing"}, "Section Header Pricing"},
		{content.Unit{Type: content.UnitParagraph, Text: "Plans start at $5."}, "Content Plans start at 5."},
		{content.Unit{Type: content.UnitList, Text: "UL LIST: a; b"}, "List Information UL LIST a b"},
		{content.Unit{Type: content.UnitLink, Text: "Link: Docs (https://x.io)"}, "Navigation Link Link Docs httpsx.io"},
		{content.Unit{Type: "image", Text: "logo"}, "Website Element logo"},
	}
	for _, tt := range tests {
		t.Run(string(tt.unit.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, embedding.PrepareText(tt.unit))
		})
	}
}
