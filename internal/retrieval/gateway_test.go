package retrieval_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"learner-feature/internal/apperr"
	"learner-feature/internal/content"
	"learner-feature/internal/keys"
	"learner-feature/internal/metrics"
	"learner-feature/internal/retrieval"
	"learner-feature/internal/retrieval/mocks"
	"learner-feature/internal/vectorstore"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fixture struct {
	validator *mocks.MockKeyValidator
	embedder  *mocks.MockEmbedder
	index     *mocks.MockVectorQuerier
	metrics   *metrics.Metrics
	gateway   *retrieval.Gateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		validator: mocks.NewMockKeyValidator(ctrl),
		embedder:  mocks.NewMockEmbedder(ctrl),
		index:     mocks.NewMockVectorQuerier(ctrl),
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	f.gateway = retrieval.NewGateway(f.validator, f.embedder, f.index, retrieval.WithMetrics(f.metrics))
	return f
}

func projectKey(features ...string) *keys.APIKey {
	if len(features) == 0 {
		features = keys.DefaultFeatures
	}
	return &keys.APIKey{ID: "k1", Key: "learn_abc", ProjectID: "p1", Features: features, Active: true}
}

var twoBuckets = []retrieval.NamespaceQuery{
	{Bucket: content.MainContent, TopK: 3, Threshold: 0.6},
	{Bucket: content.Interactive, TopK: 2, Threshold: 0.5},
}

func TestGateway_Retrieve_AuthFailuresAreNotBilled(t *testing.T) {
	tests := []struct {
		name       string
		validate   error
		feature    string
		wantErr    error
		wantReason string
	}{
		{name: "missing key", validate: apperr.ErrKeyMissing, wantErr: apperr.ErrKeyMissing, wantReason: "key_missing"},
		{name: "unknown key", validate: apperr.ErrKeyNotFound, wantErr: apperr.ErrKeyNotFound, wantReason: "key_not_found"},
		{name: "rate limited", validate: apperr.ErrRateLimitExceeded, wantErr: apperr.ErrRateLimitExceeded, wantReason: "rate_limit_exceeded"},
		{name: "domain", validate: apperr.ErrDomainNotAllowed, wantErr: apperr.ErrDomainNotAllowed, wantReason: "domain_not_allowed"},
		{
			name:       "feature not granted",
			validate:   apperr.FeatureNotGrantedError(keys.FeatureAnalyze),
			feature:    keys.FeatureAnalyze,
			wantErr:    apperr.ErrFeatureNotGranted,
			wantReason: "feature_not_granted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.validator.EXPECT().Acquire(gomock.Any(), "learn_abc", "https://site.test", tt.feature).Return(nil, tt.validate)
			// No RecordUsage, Embed or Query expectations: any call fails the test.

			_, err := f.gateway.Retrieve(context.Background(), retrieval.Request{
				Token:      "learn_abc",
				Origin:     "https://site.test",
				Endpoint:   "analyze",
				Feature:    tt.feature,
				Query:      "what does this page cost",
				Namespaces: twoBuckets,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Retrieve() error = %v, want %v", err, tt.wantErr)
			}
			if got := testutil.ToFloat64(f.metrics.AuthFailures.WithLabelValues(tt.wantReason)); got != 1 {
				t.Errorf("auth failures[%s] = %v, want 1", tt.wantReason, got)
			}
		})
	}
}

func TestGateway_Retrieve_MergesNamespacesByScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vector := []float32{0.1, 0.2}

	f.validator.EXPECT().Acquire(gomock.Any(), "learn_abc", "", keys.FeatureChat).Return(projectKey(), nil)
	f.embedder.EXPECT().Embed(gomock.Any(), "pricing").Return(vector, nil)
	f.index.EXPECT().Query(gomock.Any(), vector, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ []float32, opts vectorstore.QueryOptions) ([]vectorstore.Match, error) {
			switch opts.Namespace {
			case "p1_mainContent":
				if opts.TopK != 3 || opts.ScoreThreshold == nil || *opts.ScoreThreshold != 0.6 {
					t.Errorf("main query options = %+v", opts)
				}
				return []vectorstore.Match{{ID: "m1", Score: 0.9}, {ID: "m2", Score: 0.65}}, nil
			case "p1_interactive":
				if opts.TopK != 2 || *opts.ScoreThreshold != 0.5 {
					t.Errorf("interactive query options = %+v", opts)
				}
				return []vectorstore.Match{{ID: "i1", Score: 0.7}}, nil
			}
			t.Errorf("unexpected namespace %q", opts.Namespace)
			return nil, nil
		}).Times(2)
	f.validator.EXPECT().RecordUsage(gomock.Any(), "learn_abc", "chat", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, meta map[string]any) error {
			if meta["success"] != true || meta["matches"] != 3 {
				t.Errorf("usage metadata = %v", meta)
			}
			return nil
		})

	res, err := f.gateway.Retrieve(ctx, retrieval.Request{
		Token:      "learn_abc",
		Endpoint:   "chat",
		Feature:    keys.FeatureChat,
		Query:      "pricing",
		Namespaces: twoBuckets,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	wantOrder := []string{"m1", "i1", "m2"}
	if len(res.Matches) != len(wantOrder) {
		t.Fatalf("got %d matches, want %d", len(res.Matches), len(wantOrder))
	}
	for i, id := range wantOrder {
		if res.Matches[i].ID != id {
			t.Errorf("Matches[%d] = %q, want %q", i, res.Matches[i].ID, id)
		}
	}
	if res.Key.ProjectID != "p1" {
		t.Errorf("Key.ProjectID = %q", res.Key.ProjectID)
	}
}

func TestGateway_Retrieve_FailuresAfterAuthAreBilled(t *testing.T) {
	tests := []struct {
		name    string
		req     retrieval.Request
		setup   func(f *fixture)
		wantErr func(error) bool
	}{
		{
			name: "index unavailable",
			req:  retrieval.Request{Vector: []float32{1, 0}, Namespaces: twoBuckets[:1]},
			setup: func(f *fixture) {
				f.index.EXPECT().Query(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, apperr.ErrIndexUnavailable)
			},
			wantErr: func(err error) bool { return errors.Is(err, apperr.ErrIndexUnavailable) },
		},
		{
			name: "provider failure",
			req:  retrieval.Request{Query: "hello there", Namespaces: twoBuckets[:1]},
			setup: func(f *fixture) {
				f.embedder.EXPECT().Embed(gomock.Any(), "hello there").
					Return(nil, &apperr.ProviderError{Op: "embed", Err: errors.New("boom")})
			},
			wantErr: func(err error) bool {
				var pe *apperr.ProviderError
				return errors.As(err, &pe)
			},
		},
		{
			name: "no namespaces",
			req:  retrieval.Request{Query: "hello there"},
			wantErr: func(err error) bool {
				var ve *apperr.ValidationError
				return errors.As(err, &ve) && ve.Field == "namespaces"
			},
		},
		{
			name: "empty query",
			req:  retrieval.Request{Namespaces: twoBuckets},
			wantErr: func(err error) bool {
				var ve *apperr.ValidationError
				return errors.As(err, &ve) && ve.Field == "query"
			},
		},
		{
			name: "threshold out of range",
			req: retrieval.Request{
				Vector:     []float32{1, 0},
				Namespaces: []retrieval.NamespaceQuery{{Bucket: content.MainContent, Threshold: 1.5}},
			},
			wantErr: func(err error) bool {
				var ve *apperr.ValidationError
				return errors.As(err, &ve) && ve.Field == "threshold"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.validator.EXPECT().Acquire(gomock.Any(), "learn_abc", "", "").Return(projectKey(), nil)
			if tt.setup != nil {
				tt.setup(f)
			}
			f.validator.EXPECT().RecordUsage(gomock.Any(), "learn_abc", "embeddings/query", gomock.Any()).
				DoAndReturn(func(_ context.Context, _, _ string, meta map[string]any) error {
					if meta["success"] != false {
						t.Errorf("success = %v, want false", meta["success"])
					}
					return nil
				})

			tt.req.Token = "learn_abc"
			tt.req.Endpoint = "embeddings/query"
			_, err := f.gateway.Retrieve(context.Background(), tt.req)
			if !tt.wantErr(err) {
				t.Errorf("Retrieve() error = %v", err)
			}
		})
	}
}

func TestGateway_Retrieve_UsageErrorDoesNotFailCall(t *testing.T) {
	f := newFixture(t)
	f.validator.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(projectKey(), nil)
	f.index.EXPECT().Query(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	f.validator.EXPECT().RecordUsage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	res, err := f.gateway.Retrieve(context.Background(), retrieval.Request{
		Token:      "learn_abc",
		Vector:     []float32{1, 0},
		Namespaces: twoBuckets[:1],
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(res.Matches) != 0 {
		t.Errorf("Matches = %v, want none", res.Matches)
	}
}

func TestGateway_Search_RequiresProject(t *testing.T) {
	f := newFixture(t)
	_, err := f.gateway.Search(context.Background(), "", []float32{1}, nil, twoBuckets...)
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) || ve.Field != "projectId" {
		t.Errorf("Search() error = %v, want projectId validation error", err)
	}
}

func TestRank(t *testing.T) {
	matches := []vectorstore.Match{
		{ID: "b", Score: 0.5, Text: "nothing relevant here"},
		{ID: "c", Score: 0.9},
		{ID: "a", Score: 0.5, Text: "nothing relevant here"},
		{ID: "d", Score: 0.5, Text: "pricing and plans for teams"},
	}
	retrieval.Rank(matches, "pricing plans")

	want := []string{"c", "d", "a", "b"}
	for i, id := range want {
		if matches[i].ID != id {
			t.Errorf("Rank()[%d] = %q, want %q", i, matches[i].ID, id)
		}
	}
}

// TestGateway_RealRegistryAndStore exercises the gateway against the in-process
// registry and the fallback vector index.
func TestGateway_RealRegistryAndStore(t *testing.T) {
	ctx := context.Background()
	reg := keys.NewRegistry(keys.NewMemoryStore())
	store := vectorstore.New(nil, vectorstore.WithDimension(2))

	key, err := reg.Issue(ctx, keys.IssueParams{OwnerID: "u1", ProjectID: "p1", ProjectURL: "https://site.test", RateLimit: 2})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	for ns, id := range map[string]string{"p1_mainContent": "p1_mainContent_0", "p1_interactive": "p1_interactive_0"} {
		if _, err := store.Upsert(ctx, ns, []vectorstore.Vector{{ID: id, Values: []float32{1, 0}, Text: id}}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	ctrl := gomock.NewController(t)
	gw := retrieval.NewGateway(reg, mocks.NewMockEmbedder(ctrl), store)
	req := retrieval.Request{
		Token:      key.Key,
		Origin:     "https://site.test",
		Endpoint:   "explain",
		Feature:    keys.FeatureExplain,
		Vector:     []float32{1, 0.1},
		Namespaces: twoBuckets,
	}

	for i := 0; i < 2; i++ {
		res, err := gw.Retrieve(ctx, req)
		if err != nil {
			t.Fatalf("Retrieve() call %d error = %v", i+1, err)
		}
		if len(res.Matches) != 2 {
			t.Errorf("call %d returned %d matches, want 2", i+1, len(res.Matches))
		}
	}
	if _, err := gw.Retrieve(ctx, req); !errors.Is(err, apperr.ErrRateLimitExceeded) {
		t.Fatalf("third Retrieve() error = %v, want ErrRateLimitExceeded", err)
	}

	details, err := reg.Details(ctx, key.Key, "u1", 10)
	if err != nil {
		t.Fatalf("Details() error = %v", err)
	}
	if details.Key.Usage.ExplanationRequests != 2 || len(details.RecentUsage) != 2 {
		t.Errorf("usage = %+v, records = %d, want 2 billed explanations", details.Key.Usage, len(details.RecentUsage))
	}

	req.Origin = "https://elsewhere.test"
	if _, err := gw.Retrieve(ctx, req); !errors.Is(err, apperr.ErrDomainNotAllowed) {
		t.Errorf("foreign origin error = %v, want ErrDomainNotAllowed", err)
	}
}

// slowEmbedder holds every query for a fixed delay so concurrent requests overlap.
type slowEmbedder struct {
	delay time.Duration
}

func (e slowEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	select {
	case <-time.After(e.delay):
		return []float32{1, 0}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestGateway_Retrieve_ConcurrentRequestsHonorRateLimit(t *testing.T) {
	ctx := context.Background()
	reg := keys.NewRegistry(keys.NewMemoryStore())
	store := vectorstore.New(nil, vectorstore.WithDimension(2))

	key, err := reg.Issue(ctx, keys.IssueParams{OwnerID: "u1", ProjectID: "p1", RateLimit: 2})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := store.Upsert(ctx, "p1_mainContent", []vectorstore.Vector{{ID: "p1_mainContent_0", Values: []float32{1, 0}, Text: "plans"}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	gw := retrieval.NewGateway(reg, slowEmbedder{delay: 50 * time.Millisecond}, store)

	const callers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		limited   int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := gw.Retrieve(ctx, retrieval.Request{
				Token:      key.Key,
				Endpoint:   "chat",
				Feature:    keys.FeatureChat,
				Query:      "pricing plans",
				Namespaces: twoBuckets[:1],
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperr.ErrRateLimitExceeded):
				limited++
			default:
				t.Errorf("Retrieve() error = %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if succeeded != 2 || limited != callers-2 {
		t.Errorf("succeeded/limited = %d/%d, want 2/%d", succeeded, limited, callers-2)
	}
	details, err := reg.Details(ctx, key.Key, "u1", 0)
	if err != nil {
		t.Fatalf("Details() error = %v", err)
	}
	if u := details.Key.Usage; u.RequestsThisHour != 2 || u.TotalRequests != 2 || u.ChatRequests != 2 {
		t.Errorf("usage = %+v, want 2 requests this hour and 2 billed chats", u)
	}
}
