package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"learner-feature/internal/contextutil"
)

// Payload keys written with every point.
const (
	payloadNamespace = "namespace"
	payloadRecordID  = "record_id"
	payloadText      = "text"
	payloadURL       = "url"
	payloadTitle     = "title"
	payloadKeyID     = "key_id"
	payloadMetadata  = "metadata"
)

// QdrantConfig configures a QdrantBackend.
type QdrantConfig struct {
	URL          string
	APIKey       string
	Collection   string
	VectorSize   int
	MaxVectors   int
	ReadyTimeout time.Duration
	PollInterval time.Duration
}

// QdrantBackend stores every namespace in one Qdrant collection and scopes
// operations with a keyword-indexed namespace payload field.
type QdrantBackend struct {
	client *qdrant.Client
	cfg    QdrantConfig
}

var _ Backend = (*QdrantBackend)(nil)

// grpcTarget derives the gRPC host and port from an HTTP URL such as
// "http://localhost:6333". The gRPC port is the HTTP port plus one.
func grpcTarget(urlStr string) (host string, port int, useTLS bool, err error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host = parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port = 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}
	return host, port, parsedURL.Scheme == "https", nil
}

// NewQdrantBackend creates a client. No network call is made until Init.
func NewQdrantBackend(cfg QdrantConfig) (*QdrantBackend, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant URL is required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant collection is required")
	}
	if cfg.VectorSize <= 0 {
		return nil, errors.New("vector size must be greater than 0")
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	host, port, useTLS, err := grpcTarget(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantBackend{client: client, cfg: cfg}, nil
}

// Close releases the underlying connection.
func (q *QdrantBackend) Close() error {
	return q.client.Close()
}

// Init ensures the collection exists with the configured vector size, creates the
// namespace payload index, and waits until the collection reports green.
func (q *QdrantBackend) Init(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)
	collection := q.cfg.Collection

	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", q.cfg.VectorSize)
		err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(q.cfg.VectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		_, err = q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collection,
			FieldName:      payloadNamespace,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create namespace index: %w", err)
		}
	} else {
		size, err := q.vectorSize(ctx)
		if err != nil {
			return err
		}
		if size != q.cfg.VectorSize {
			return fmt.Errorf("collection vector size mismatch: expected %d, got %d", q.cfg.VectorSize, size)
		}
	}

	if err := q.waitReady(ctx); err != nil {
		return err
	}
	logger.InfoContext(ctx, "collection ready", "collection", collection, "vector_size", q.cfg.VectorSize)
	return nil
}

func (q *QdrantBackend) waitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, q.cfg.ReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(q.cfg.PollInterval)
	defer ticker.Stop()

	for {
		info, err := q.client.GetCollectionInfo(ctx, q.cfg.Collection)
		if err == nil && info.GetStatus() == qdrant.CollectionStatus_Green {
			return nil
		}

		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("collection %s not ready: %w", q.cfg.Collection, err)
			}
			return fmt.Errorf("collection %s not ready after %s", q.cfg.Collection, q.cfg.ReadyTimeout)
		case <-ticker.C:
		}
	}
}

func (q *QdrantBackend) vectorSize(ctx context.Context) (int, error) {
	info, err := q.client.GetCollectionInfo(ctx, q.cfg.Collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection info: %w", err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil || params.GetSize() == 0 {
		return 0, fmt.Errorf("could not determine collection vector size")
	}
	return int(params.GetSize()), nil
}

// Upsert writes vectors under namespace. Point ids are derived from record ids.
func (q *QdrantBackend) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	points := make([]*qdrant.PointStruct, 0, len(vectors))
	for _, v := range vectors {
		payload, err := qdrant.TryValueMap(map[string]any{
			payloadNamespace: namespace,
			payloadRecordID:  v.ID,
			payloadText:      v.Text,
			payloadURL:       v.URL,
			payloadTitle:     v.Title,
			payloadKeyID:     v.KeyID,
			payloadMetadata:  normalizePayload(v.Metadata),
		})
		if err != nil {
			return fmt.Errorf("invalid payload for %s: %w", v.ID, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(v.ID)),
			Vectors: qdrant.NewVectors(v.Values...),
			Payload: payload,
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Query runs a nearest-neighbor search restricted to the namespace and filter.
func (q *QdrantBackend) Query(ctx context.Context, vector []float32, opts QueryOptions) ([]Match, error) {
	limit := uint64(opts.TopK)
	req := &qdrant.QueryPoints{
		CollectionName: q.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		Filter:         buildFilter(opts.Namespace, opts.Filter),
		ScoreThreshold: opts.ScoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
	}

	scored, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	matches := make([]Match, 0, len(scored))
	for _, p := range scored {
		payload := convertPayloadToMap(p.GetPayload())
		m := Match{
			ID:        stringField(payload, payloadRecordID),
			Score:     p.GetScore(),
			Namespace: stringField(payload, payloadNamespace),
			Text:      stringField(payload, payloadText),
			URL:       stringField(payload, payloadURL),
			Title:     stringField(payload, payloadTitle),
		}
		if meta, ok := payload[payloadMetadata].(map[string]any); ok {
			m.Metadata = meta
		}
		if m.ID == "" && p.GetId() != nil {
			m.ID = p.GetId().GetUuid()
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (q *QdrantBackend) DeleteByIDs(ctx context.Context, ids []string) error {
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(pointID(id)))
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

func (q *QdrantBackend) DeleteByFilter(ctx context.Context, namespace string, filter Filter) error {
	f := buildFilter(namespace, filter)
	if f == nil {
		return errors.New("refusing to delete without a filter")
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(f),
	})
	if err != nil {
		return fmt.Errorf("failed to delete points by filter: %w", err)
	}
	return nil
}

// Stats reads the collection size and facets the namespace field for per-namespace counts.
func (q *QdrantBackend) Stats(ctx context.Context) (Stats, error) {
	total, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.cfg.Collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count points: %w", err)
	}

	hits, err := q.client.Facet(ctx, &qdrant.FacetCounts{
		CollectionName: q.cfg.Collection,
		Key:            payloadNamespace,
		Limit:          qdrant.PtrOf(uint64(10000)),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to facet namespaces: %w", err)
	}

	st := Stats{
		VectorCount: int(total),
		Dimension:   q.cfg.VectorSize,
		Namespaces:  make(map[string]int, len(hits)),
	}
	for _, h := range hits {
		st.Namespaces[h.GetValue().GetStringValue()] = int(h.GetCount())
	}
	if q.cfg.MaxVectors > 0 {
		st.IndexFullness = float64(st.VectorCount) / float64(q.cfg.MaxVectors)
	}
	return st, nil
}

func buildFilter(namespace string, filter Filter) *qdrant.Filter {
	var must []*qdrant.Condition
	if namespace != "" {
		must = append(must, qdrant.NewMatch(payloadNamespace, namespace))
	}
	for k, v := range filter {
		key := payloadMetadata + "." + k
		switch val := v.(type) {
		case string:
			must = append(must, qdrant.NewMatch(key, val))
		case bool:
			must = append(must, qdrant.NewMatchBool(key, val))
		default:
			if n, ok := asInt64(val); ok {
				must = append(must, qdrant.NewMatchInt(key, n))
			} else {
				must = append(must, qdrant.NewMatch(key, fmt.Sprint(val)))
			}
		}
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// normalizePayload widens int kinds so qdrant.TryValueMap accepts them.
func normalizePayload(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if n, ok := asInt64(v); ok {
			out[k] = n
			continue
		}
		out[k] = v
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
