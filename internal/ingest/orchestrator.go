// Package ingest turns a fetched page into namespaced vectors for one project.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"learner-feature/internal/apperr"
	"learner-feature/internal/content"
	"learner-feature/internal/contextutil"
	"learner-feature/internal/embedding"
	"learner-feature/internal/fetcher"
	"learner-feature/internal/vectorstore"
)

const errorContentLimit = 100

// Embedder produces vectors one text at a time or for a batch of texts.
// *embedding.Pipeline implements it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) (*embedding.BatchResult, error)
}

// VectorIndex stores vectors by namespace.
type VectorIndex interface {
	Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) (vectorstore.UpsertResult, error)
}

// Fetcher downloads a page as a structured document.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts fetcher.Options) (*content.Document, error)
}

// Project identifies the owner of ingested vectors.
type Project struct {
	ID    string
	Name  string
	URL   string
	KeyID string
}

// Orchestrator runs structure, embed and store for one document at a time.
type Orchestrator struct {
	embedder  Embedder
	index     VectorIndex
	fetcher   Fetcher
	dimension int
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Orchestrator)

// WithFetcher enables IngestURL.
func WithFetcher(f Fetcher) Option {
	return func(o *Orchestrator) { o.fetcher = f }
}

// WithDimension sets the length of the zero vector used for the metadata record
// when no embedding was produced to take it from.
func WithDimension(d int) Option {
	return func(o *Orchestrator) { o.dimension = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(embedder Embedder, index VectorIndex, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		embedder: embedder,
		index:    index,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IngestURL fetches url and ingests the result.
func (o *Orchestrator) IngestURL(ctx context.Context, url string, project Project, opts fetcher.Options) (*Result, error) {
	if o.fetcher == nil {
		return nil, errors.New("no fetcher configured")
	}
	doc, err := o.fetcher.Fetch(ctx, url, opts)
	if err != nil {
		var vErr *apperr.ValidationError
		if errors.As(err, &vErr) {
			return nil, err
		}
		return nil, &apperr.ProviderError{Op: "failed to fetch content", Err: err}
	}
	return o.Ingest(ctx, doc, project)
}

type pending struct {
	contentType content.Bucket
	index       int
	unit        content.Unit
	text        string
}

// Ingest structures doc, embeds every bucketed unit and upserts each bucket into
// its {projectID}_{bucket} namespace, followed by a summary record in
// {projectID}_metadata. Per-unit failures are reported in the result. The call
// fails only when units were submitted and none embedded, or when no store accepts
// the vectors.
func (o *Orchestrator) Ingest(ctx context.Context, doc *content.Document, project Project) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if project.ID == "" {
		return nil, apperr.NewValidationError("projectId", "cannot be empty")
	}
	if doc == nil {
		doc = &content.Document{}
	}

	start := o.now()
	structured := content.Structure(doc)
	res := newResult(doc)

	dimension := o.dimension
	grouped := make(map[content.Bucket][]vectorstore.Vector)
	for _, p := range o.plan(structured, &res.Stats) {
		res.Stats.Embeddings.Total++

		vec, err := o.embedder.Embed(ctx, p.text)
		switch {
		case err == nil:
		case errors.Is(err, apperr.ErrTextTooShort):
			res.Stats.Embeddings.Skipped++
			continue
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			res.Stats.Embeddings.Failed++
			res.Errors = append(res.Errors, UnitError{
				ContentType: string(p.contentType),
				Index:       p.index,
				Content:     embedding.Truncate(p.unit.Text, errorContentLimit),
				Error:       err.Error(),
			})
			logger.WarnContext(ctx, "failed to embed unit", "content_type", p.contentType, "index", p.index, "error", err)
			continue
		}

		res.Stats.Embeddings.Successful++
		if dimension == 0 {
			dimension = len(vec)
		}
		meta := p.unit.Metadata()
		meta["contentType"] = string(p.contentType)
		meta["projectId"] = project.ID
		meta["createdAt"] = start.UTC().Format(time.RFC3339)
		grouped[p.contentType] = append(grouped[p.contentType], vectorstore.Vector{
			ID:       vectorstore.GenerateID(project.ID, string(p.contentType), p.index),
			Values:   vec,
			Text:     p.unit.Text,
			URL:      doc.URL,
			Title:    doc.Title,
			KeyID:    project.KeyID,
			Metadata: meta,
		})
	}

	submitted := res.Stats.Embeddings.Successful + res.Stats.Embeddings.Failed
	if submitted > 0 && res.Stats.Embeddings.Successful == 0 {
		logger.ErrorContext(ctx, "ingestion produced no embeddings", "project_id", project.ID, "failed", res.Stats.Embeddings.Failed)
		return nil, fmt.Errorf("%w: %d units failed", apperr.ErrNoEmbeddings, res.Stats.Embeddings.Failed)
	}

	for _, bucket := range content.BucketOrder {
		vectors := grouped[bucket]
		if len(vectors) == 0 {
			continue
		}
		ns := vectorstore.Namespace(project.ID, string(bucket))
		out, err := o.index.Upsert(ctx, ns, vectors)
		if err != nil {
			return nil, fmt.Errorf("failed to store %s vectors: %w", bucket, err)
		}
		res.ContentTypes = append(res.ContentTypes, string(bucket))
		res.EmbeddingCount += out.UpsertedCount
	}

	if err := o.storeSummary(ctx, doc, project, res, dimension, start); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "ingestion complete",
		"project_id", project.ID,
		"embeddings", res.EmbeddingCount,
		"failed", res.Stats.Embeddings.Failed,
		"skipped", res.Stats.Embeddings.Skipped,
		"content_types", strings.Join(res.ContentTypes, ","),
		"duration_ms", o.now().Sub(start).Milliseconds(),
	)
	return res, nil
}

// plan lists the texts to embed in bucket order. Units longer than one chunk
// window are split first. Texts that are too short once labelled are counted as
// skipped.
func (o *Orchestrator) plan(s *content.Structured, stats *Stats) []pending {
	var out []pending
	for _, bucket := range content.BucketOrder {
		next := 0
		for _, u := range s.Units(bucket) {
			parts := []string{u.Text}
			if len(strings.Fields(u.Text)) > embedding.DefaultChunkWords {
				parts = parts[:0]
				for chunk := range embedding.Chunks(u.Text, embedding.DefaultChunkWords, embedding.DefaultOverlapWords) {
					parts = append(parts, chunk)
				}
			}

			for _, part := range parts {
				piece := u
				piece.Text = part
				text := embedding.PrepareText(piece)
				if utf8.RuneCountInString(text) < embedding.MinPreparedLength {
					stats.Embeddings.Total++
					stats.Embeddings.Skipped++
					continue
				}
				out = append(out, pending{contentType: bucket, index: next, unit: piece, text: text})
				next++
			}
		}
	}
	return out
}

func (o *Orchestrator) storeSummary(ctx context.Context, doc *content.Document, project Project, res *Result, dimension int, at time.Time) error {
	if dimension == 0 {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "skipping metadata record, vector dimension unknown", "project_id", project.ID)
		return nil
	}

	st := res.Stats
	record := vectorstore.Vector{
		ID:     vectorstore.Namespace(project.ID, vectorstore.MetadataContentType),
		Values: make([]float32, dimension),
		Text:   doc.Title,
		URL:    doc.URL,
		Title:  doc.Title,
		KeyID:  project.KeyID,
		Metadata: map[string]any{
			"type":              "project_metadata",
			"projectId":         project.ID,
			"projectName":       project.Name,
			"description":       doc.Description,
			"headings":          st.Content.Headings,
			"paragraphs":        st.Content.Paragraphs,
			"lists":             st.Content.Lists,
			"links":             st.Content.Links,
			"images":            st.Content.Images,
			"embeddingCount":    res.EmbeddingCount,
			"failedEmbeddings":  st.Embeddings.Failed,
			"skippedEmbeddings": st.Embeddings.Skipped,
			"hasStructuredData": st.Metadata.HasStructuredData,
			"contentTypes":      strings.Join(res.ContentTypes, ","),
			"createdAt":         at.UTC().Format(time.RFC3339),
		},
	}
	ns := vectorstore.Namespace(project.ID, vectorstore.MetadataContentType)
	if _, err := o.index.Upsert(ctx, ns, []vectorstore.Vector{record}); err != nil {
		return fmt.Errorf("failed to store project metadata: %w", err)
	}
	return nil
}
