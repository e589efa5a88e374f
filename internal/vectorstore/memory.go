package vectorstore

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
)

// MemoryBackend keeps vectors in process memory and scores them by cosine similarity.
type MemoryBackend struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]Vector
	// owner maps a record id to its namespace so deletes by id stay cheap.
	owner      map[string]string
	dimension  int
	maxVectors int
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty MemoryBackend. maxVectors only feeds the fullness statistic.
func NewMemoryBackend(dimension, maxVectors int) *MemoryBackend {
	return &MemoryBackend{
		namespaces: make(map[string]map[string]Vector),
		owner:      make(map[string]string),
		dimension:  dimension,
		maxVectors: maxVectors,
	}
}

func (m *MemoryBackend) Init(context.Context) error {
	return nil
}

// Upsert stores vectors under namespace, replacing records with the same id.
func (m *MemoryBackend) Upsert(_ context.Context, namespace string, vectors []Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range vectors {
		if m.dimension > 0 && len(v.Values) != m.dimension {
			return fmt.Errorf("vector %s has dimension %d, expected %d", v.ID, len(v.Values), m.dimension)
		}
	}

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]Vector)
		m.namespaces[namespace] = ns
	}
	for _, v := range vectors {
		if prev, ok := m.owner[v.ID]; ok && prev != namespace {
			delete(m.namespaces[prev], v.ID)
		}
		ns[v.ID] = cloneVector(v)
		m.owner[v.ID] = namespace
	}
	return nil
}

// Query scans the namespace, or every namespace when none is given.
func (m *MemoryBackend) Query(_ context.Context, vector []float32, opts QueryOptions) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	scan := func(namespace string, ns map[string]Vector) {
		for _, v := range ns {
			if !opts.Filter.matches(v.Metadata) {
				continue
			}
			score := cosine(vector, v.Values)
			if opts.ScoreThreshold != nil && score < *opts.ScoreThreshold {
				continue
			}
			matches = append(matches, toMatch(namespace, v, score))
		}
	}

	if opts.Namespace != "" {
		scan(opts.Namespace, m.namespaces[opts.Namespace])
	} else {
		for name, ns := range m.namespaces {
			scan(name, ns)
		}
	}

	sortMatches(matches)
	if opts.TopK > 0 && len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches, nil
}

func (m *MemoryBackend) DeleteByIDs(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if ns, ok := m.owner[id]; ok {
			delete(m.namespaces[ns], id)
			delete(m.owner, id)
		}
	}
	return nil
}

// DeleteByFilter removes matching vectors from namespace, or from every namespace when it is empty.
func (m *MemoryBackend) DeleteByFilter(_ context.Context, namespace string, filter Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, ns := range m.namespaces {
		if namespace != "" && name != namespace {
			continue
		}
		for id, v := range ns {
			if filter.matches(v.Metadata) {
				delete(ns, id)
				delete(m.owner, id)
			}
		}
	}
	return nil
}

func (m *MemoryBackend) Stats(context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{
		Dimension:  m.dimension,
		Namespaces: make(map[string]int),
	}
	for name, ns := range m.namespaces {
		if len(ns) == 0 {
			continue
		}
		st.Namespaces[name] = len(ns)
		st.VectorCount += len(ns)
	}
	if m.maxVectors > 0 {
		st.IndexFullness = float64(st.VectorCount) / float64(m.maxVectors)
	}
	return st, nil
}

func (f Filter) matches(meta map[string]any) bool {
	for k, want := range f {
		got, ok := meta[k]
		if !ok || !equalValue(got, want) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	if ai, ok := asInt64(a); ok {
		bi, ok := asInt64(b)
		return ok && ai == bi
	}
	return a == b
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// cosine returns the cosine similarity of a and b, or 0 when either is a zero vector
// or their dimensions differ.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func sortMatches(matches []Match) {
	slices.SortStableFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func toMatch(namespace string, v Vector, score float32) Match {
	return Match{
		ID:        v.ID,
		Score:     score,
		Namespace: namespace,
		Text:      v.Text,
		URL:       v.URL,
		Title:     v.Title,
		Metadata:  cloneMap(v.Metadata),
	}
}

func cloneVector(v Vector) Vector {
	v.Values = slices.Clone(v.Values)
	v.Metadata = cloneMap(v.Metadata)
	return v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
