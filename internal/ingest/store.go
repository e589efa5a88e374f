package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"learner-feature/internal/apperr"
	"learner-feature/internal/contextutil"
	"learner-feature/internal/embedding"
	"learner-feature/internal/vectorstore"
)

// Stored text is split into smaller windows than page units so that one
// document yields several focused fragments.
const (
	storeChunkWords   = 800
	storeOverlapWords = 100
)

// TextInput is arbitrary content stored under a project's data namespace.
// URL, when set, identifies the source so that storing it again overwrites.
type TextInput struct {
	Text        string
	URL         string
	Title       string
	Description string
	Metadata    map[string]any
}

// StoreResult summarizes a StoreText call.
type StoreResult struct {
	Namespace       string                 `json:"namespace"`
	VectorsStored   int                    `json:"vectorsStored"`
	ChunksProcessed int                    `json:"chunksProcessed"`
	Skipped         int                    `json:"skipped"`
	Errors          []embedding.BatchError `json:"errors"`
	VectorIDs       []string               `json:"vectorIds"`
}

// StoreText chunks in.Text, embeds the chunks as one batch and upserts them into
// {projectID}_data. Chunks that fail to embed are reported in the result; the
// call fails only when no chunk could be embedded.
func (o *Orchestrator) StoreText(ctx context.Context, project Project, in TextInput) (*StoreResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if project.ID == "" {
		return nil, apperr.NewValidationError("projectId", "key is not bound to a project")
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, apperr.NewValidationError("content", "cannot be empty")
	}

	var chunks []string
	for chunk := range embedding.Chunks(in.Text, storeChunkWords, storeOverlapWords) {
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		return nil, apperr.NewValidationError("content", "no valid text chunks found")
	}

	batch, err := o.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(batch.Embeddings) == 0 {
		logger.ErrorContext(ctx, "stored text produced no embeddings", "project_id", project.ID, "chunks", len(chunks))
		return nil, fmt.Errorf("%w: %d chunks failed", apperr.ErrNoEmbeddings, len(batch.Errors))
	}

	ns := vectorstore.Namespace(project.ID, vectorstore.DataContentType)
	source := vectorstore.DataContentType + "_" + sourceDigest(in)
	createdAt := o.now().UTC().Format(time.RFC3339)

	vectors := make([]vectorstore.Vector, 0, len(batch.Embeddings))
	ids := make([]string, 0, len(batch.Embeddings))
	for i, item := range batch.Embeddings {
		meta := make(map[string]any, len(in.Metadata)+6)
		for k, v := range in.Metadata {
			meta[k] = v
		}
		if in.Description != "" {
			meta["description"] = in.Description
		}
		meta["contentType"] = vectorstore.DataContentType
		meta["projectId"] = project.ID
		meta["chunkIndex"] = i
		meta["totalChunks"] = len(batch.Embeddings)
		meta["createdAt"] = createdAt

		id := vectorstore.GenerateID(project.ID, source, item.Index)
		ids = append(ids, id)
		vectors = append(vectors, vectorstore.Vector{
			ID:       id,
			Values:   item.Vector,
			Text:     item.Text,
			URL:      in.URL,
			Title:    in.Title,
			KeyID:    project.KeyID,
			Metadata: meta,
		})
	}

	out, err := o.index.Upsert(ctx, ns, vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to store text vectors: %w", err)
	}

	errs := batch.Errors
	if errs == nil {
		errs = []embedding.BatchError{}
	}
	logger.InfoContext(ctx, "text stored",
		"project_id", project.ID,
		"chunks", len(chunks),
		"vectors", out.UpsertedCount,
		"failed", len(batch.Errors),
	)
	return &StoreResult{
		Namespace:       ns,
		VectorsStored:   out.UpsertedCount,
		ChunksProcessed: len(chunks),
		Skipped:         len(batch.Skipped),
		Errors:          errs,
		VectorIDs:       ids,
	}, nil
}

// sourceDigest names the source of in: its URL when known, its text otherwise.
func sourceDigest(in TextInput) string {
	src := in.URL
	if src == "" {
		src = in.Text
	}
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:6])
}
