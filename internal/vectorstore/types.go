package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_backend.go -package=mocks learner-feature/internal/vectorstore Backend

import (
	"context"
)

// Vector is a record written to the index.
type Vector struct {
	ID       string
	Values   []float32
	Text     string
	URL      string
	Title    string
	KeyID    string
	Metadata map[string]any
}

// Match is a scored query result.
type Match struct {
	ID        string         `json:"id"`
	Score     float32        `json:"score"`
	Namespace string         `json:"namespace"`
	Text      string         `json:"text"`
	URL       string         `json:"url,omitempty"`
	Title     string         `json:"title,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Filter restricts matches to vectors whose metadata fields equal the given values.
// Values must be strings, booleans or integers.
type Filter map[string]any

// QueryOptions controls a similarity query.
type QueryOptions struct {
	TopK      int
	Namespace string
	Filter    Filter
	// ScoreThreshold drops matches scoring below it when set.
	ScoreThreshold *float32
}

// Threshold returns a pointer for QueryOptions.ScoreThreshold.
func Threshold(t float32) *float32 {
	return &t
}

// UpsertResult reports how many vectors were written.
type UpsertResult struct {
	UpsertedCount int `json:"upsertedCount"`
}

// Stats summarizes the index.
type Stats struct {
	VectorCount   int            `json:"vectorCount"`
	Dimension     int            `json:"dimension"`
	IndexFullness float64        `json:"indexFullness"`
	Namespaces    map[string]int `json:"namespaces"`
}

// Backend is a namespaced vector index.
type Backend interface {
	// Init prepares the backend for use. It may block until a remote index is ready.
	Init(ctx context.Context) error
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	// Query returns up to opts.TopK matches ordered by descending cosine similarity.
	Query(ctx context.Context, vector []float32, opts QueryOptions) ([]Match, error)
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteByFilter(ctx context.Context, namespace string, filter Filter) error
	Stats(ctx context.Context) (Stats, error)
}
