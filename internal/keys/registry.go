// Package keys issues, validates and meters API keys.
package keys

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"learner-feature/internal/apperr"
	"learner-feature/internal/contextutil"
)

const (
	defaultRateLimit  = 1000
	defaultUsageLimit = 1000
	rateWindow        = time.Hour
	tokenBytes        = 32
)

// Registry is the single entry point for key lifecycle and metering.
// Reads and writes of one key's counters are serialized by a per-key lock.
type Registry struct {
	store            Store
	now              func() time.Time
	defaultRateLimit int
	usageLimit       int
	logger           *slog.Logger

	issueMu sync.Mutex
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithDefaultRateLimit sets the hourly limit used when an issue request gives none.
func WithDefaultRateLimit(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.defaultRateLimit = n
		}
	}
}

// WithUsageLimit bounds the per-key usage log.
func WithUsageLimit(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.usageLimit = n
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates a Registry over store.
func NewRegistry(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:            store,
		now:              time.Now,
		defaultRateLimit: defaultRateLimit,
		usageLimit:       defaultUsageLimit,
		locks:            make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) getLogger(ctx context.Context) *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return contextutil.LoggerFromContext(ctx)
}

func (r *Registry) lockKey(token string) func() {
	r.locksMu.Lock()
	mu, ok := r.locks[token]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[token] = mu
	}
	r.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

func (r *Registry) forgetLock(token string) {
	r.locksMu.Lock()
	delete(r.locks, token)
	r.locksMu.Unlock()
}

// Issue mints a new active key with zeroed usage.
// A project may hold one live key; issuing another deactivates the previous one.
func (r *Registry) Issue(ctx context.Context, p IssueParams) (*APIKey, error) {
	logger := r.getLogger(ctx)

	if p.OwnerID == "" {
		return nil, apperr.NewValidationError("userId", "cannot be empty")
	}
	if p.RateLimit < 0 {
		return nil, apperr.NewValidationError("rateLimit", "must not be negative")
	}
	features, err := normalizeFeatures(p.Features)
	if err != nil {
		return nil, err
	}
	rateLimit := p.RateLimit
	if rateLimit == 0 {
		rateLimit = r.defaultRateLimit
	}

	domains := normalizeDomains(p.AllowedDomains)
	if len(domains) == 0 && p.ProjectURL != "" {
		if u, err := url.Parse(p.ProjectURL); err == nil && u.Hostname() != "" {
			domains = []string{u.Hostname()}
		}
	}

	r.issueMu.Lock()
	defer r.issueMu.Unlock()

	token, err := r.newToken(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	key := &APIKey{
		ID:          uuid.NewString(),
		Key:         token,
		ProjectID:   p.ProjectID,
		ProjectName: p.ProjectName,
		ProjectURL:  p.ProjectURL,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		Features:    features,
		RateLimit:   rateLimit,
		Active:      true,
		Usage:       Usage{LastHourReset: now},
		Metadata:    KeyMetadata{AllowedDomains: domains},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.ProjectID != "" {
		key.Metadata.DataNamespace = p.ProjectID + "_data"
		if err := r.retireProjectKey(ctx, p.ProjectID, ""); err != nil {
			return nil, err
		}
	}

	if err := r.store.Create(ctx, key); err != nil {
		logger.ErrorContext(ctx, "failed to store api key", "owner", p.OwnerID, "error", err)
		return nil, fmt.Errorf("failed to store api key: %w", err)
	}

	logger.InfoContext(ctx, "issued api key", "key_id", key.ID, "owner", key.OwnerID, "project_id", key.ProjectID)
	return key.Clone(), nil
}

// retireProjectKey deactivates the live key of projectID unless it is keep.
// Callers hold issueMu.
func (r *Registry) retireProjectKey(ctx context.Context, projectID, keep string) error {
	prev, err := r.store.FindActiveByProject(ctx, projectID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up project key: %w", err)
	}
	if prev.Key == keep {
		return nil
	}
	unlock := r.lockKey(prev.Key)
	defer unlock()
	prev.Active = false
	prev.UpdatedAt = r.now().UTC()
	if err := r.store.Update(ctx, prev); err != nil {
		return fmt.Errorf("failed to deactivate previous project key: %w", err)
	}
	r.getLogger(ctx).InfoContext(ctx, "deactivated previous project key", "key_id", prev.ID, "project_id", projectID)
	return nil
}

func (r *Registry) newToken(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		b := make([]byte, tokenBytes)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		token := TokenPrefix + hex.EncodeToString(b)
		_, err := r.store.Get(ctx, token)
		if errors.Is(err, apperr.ErrNotFound) {
			return token, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check token uniqueness: %w", err)
		}
	}
	return "", fmt.Errorf("failed to generate a unique token")
}

// Validate checks a presented token against its key's state, origin and hourly
// quota without consuming a request. An expired hour window is reset first.
func (r *Registry) Validate(ctx context.Context, token, origin string) (*APIKey, error) {
	unlock, key, err := r.admit(ctx, token, origin, "")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return key, nil
}

// Acquire admits one request: it runs the Validate checks, requires feature when
// non-empty and reserves a slot of the hourly quota in the same critical section,
// so concurrent callers cannot overrun the limit. The request is billed later with
// RecordUsage.
func (r *Registry) Acquire(ctx context.Context, token, origin, feature string) (*APIKey, error) {
	unlock, key, err := r.admit(ctx, token, origin, feature)
	if err != nil {
		return nil, err
	}
	defer unlock()

	key.Usage.RequestsThisHour++
	key.UpdatedAt = r.now().UTC()
	if err := r.store.Update(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to reserve request: %w", err)
	}
	return key.Clone(), nil
}

// admit loads token under its lock and applies every admission check. On success
// the lock is still held and the caller must release it.
func (r *Registry) admit(ctx context.Context, token, origin, feature string) (func(), *APIKey, error) {
	if token == "" {
		return nil, nil, apperr.ErrKeyMissing
	}

	unlock := r.lockKey(token)
	key, err := r.checkKey(ctx, token, origin, feature)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return unlock, key, nil
}

func (r *Registry) checkKey(ctx context.Context, token, origin, feature string) (*APIKey, error) {
	key, err := r.store.Get(ctx, token)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load api key: %w", err)
	}
	if !key.Active {
		return nil, apperr.ErrKeyDisabled
	}
	if !domainAllowed(key.Metadata.AllowedDomains, origin) {
		return nil, apperr.ErrDomainNotAllowed
	}
	if feature != "" && !key.HasFeature(feature) {
		return nil, apperr.FeatureNotGrantedError(feature)
	}

	if r.resetWindow(key) {
		if err := r.store.Update(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to reset rate window: %w", err)
		}
	}
	if key.Usage.RequestsThisHour >= int64(key.RateLimit) {
		r.getLogger(ctx).WarnContext(ctx, "rate limit exceeded", "key_id", key.ID, "limit", key.RateLimit)
		return nil, apperr.ErrRateLimitExceeded
	}
	return key, nil
}

func (r *Registry) resetWindow(key *APIKey) bool {
	now := r.now().UTC()
	if now.Sub(key.Usage.LastHourReset) < rateWindow {
		return false
	}
	key.Usage.RequestsThisHour = 0
	key.Usage.LastHourReset = now
	return true
}

// RecordUsage bills one admitted request to token: total and per-feature counters
// and a usage record. The hourly counter is charged by Acquire. Unknown tokens are
// ignored.
func (r *Registry) RecordUsage(ctx context.Context, token, endpoint string, metadata map[string]any) error {
	if token == "" {
		return nil
	}

	unlock := r.lockKey(token)
	defer unlock()

	key, err := r.store.Get(ctx, token)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load api key: %w", err)
	}

	now := r.now().UTC()
	feature := FeatureForEndpoint(endpoint)
	key.Usage.count(feature)
	key.LastUsed = &now
	if err := r.store.Update(ctx, key); err != nil {
		return fmt.Errorf("failed to update usage counters: %w", err)
	}

	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	if key.ProjectID != "" {
		meta["projectId"] = key.ProjectID
	}
	rec := UsageRecord{Timestamp: now, Endpoint: endpoint, Feature: feature, Metadata: meta}
	if err := r.store.AppendUsage(ctx, token, rec, r.usageLimit); err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}
	return nil
}

// ownedKey loads token and checks that ownerID owns it.
func (r *Registry) ownedKey(ctx context.Context, token, ownerID string) (*APIKey, error) {
	key, err := r.store.Get(ctx, token)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load api key: %w", err)
	}
	if key.OwnerID != ownerID {
		return nil, apperr.ErrNotAuthorized
	}
	return key, nil
}

// Revoke deletes a key and its usage log.
func (r *Registry) Revoke(ctx context.Context, token, ownerID string) error {
	unlock := r.lockKey(token)
	defer unlock()

	key, err := r.ownedKey(ctx, token, ownerID)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	r.forgetLock(token)
	r.getLogger(ctx).InfoContext(ctx, "revoked api key", "key_id", key.ID, "owner", ownerID)
	return nil
}

// Update applies patch to a key owned by ownerID. Re-activating a project key
// deactivates whichever key of the same project is live.
func (r *Registry) Update(ctx context.Context, token, ownerID string, patch Patch) (*APIKey, error) {
	activating := patch.Active != nil && *patch.Active
	if activating {
		r.issueMu.Lock()
		defer r.issueMu.Unlock()
	}
	unlock := r.lockKey(token)
	defer unlock()

	key, err := r.ownedKey(ctx, token, ownerID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		key.Name = *patch.Name
	}
	if patch.Description != nil {
		key.Description = *patch.Description
	}
	if patch.Features != nil {
		features, err := normalizeFeatures(*patch.Features)
		if err != nil {
			return nil, err
		}
		key.Features = features
	}
	if patch.RateLimit != nil {
		if *patch.RateLimit <= 0 {
			return nil, apperr.NewValidationError("rateLimit", "must be greater than 0")
		}
		key.RateLimit = *patch.RateLimit
	}
	if patch.AllowedDomains != nil {
		key.Metadata.AllowedDomains = normalizeDomains(*patch.AllowedDomains)
	}
	if activating && !key.Active && key.ProjectID != "" {
		if err := r.retireProjectKey(ctx, key.ProjectID, token); err != nil {
			return nil, err
		}
	}
	if patch.Active != nil {
		key.Active = *patch.Active
	}
	key.UpdatedAt = r.now().UTC()

	if err := r.store.Update(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to update api key: %w", err)
	}
	return key, nil
}

// ListByOwner returns the owner's keys, newest first.
func (r *Registry) ListByOwner(ctx context.Context, ownerID string) ([]*APIKey, error) {
	keys, err := r.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	sortNewestFirst(keys)
	return keys, nil
}

// Details returns a key owned by ownerID with up to limit recent usage records.
func (r *Registry) Details(ctx context.Context, token, ownerID string, limit int) (*Details, error) {
	key, err := r.ownedKey(ctx, token, ownerID)
	if err != nil {
		return nil, err
	}
	usage, err := r.store.RecentUsage(ctx, token, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}
	return &Details{Key: key, RecentUsage: usage}, nil
}

// StatsGlobal aggregates counters across all keys.
func (r *Registry) StatsGlobal(ctx context.Context) (GlobalStats, error) {
	keys, err := r.store.List(ctx)
	if err != nil {
		return GlobalStats{}, fmt.Errorf("failed to list api keys: %w", err)
	}

	var stats GlobalStats
	projects := make(map[string]struct{})
	for _, k := range keys {
		stats.TotalKeys++
		if k.Active {
			stats.ActiveKeys++
		}
		if k.ProjectID != "" {
			projects[k.ProjectID] = struct{}{}
		}
		stats.TotalRequests += k.Usage.TotalRequests
		stats.TotalExplanations += k.Usage.ExplanationRequests
	}
	stats.TotalProjects = len(projects)
	if stats.TotalKeys > 0 {
		stats.AverageRequestsPerKey = roundDiv(stats.TotalRequests, int64(stats.TotalKeys))
	}
	if stats.TotalProjects > 0 {
		stats.AverageExplanationsPerProject = roundDiv(stats.TotalExplanations, int64(stats.TotalProjects))
	}
	return stats, nil
}

func roundDiv(a, b int64) int64 {
	return (2*a + b) / (2 * b)
}

func sortNewestFirst(keys []*APIKey) {
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].CreatedAt.Equal(keys[j].CreatedAt) {
			return keys[i].ID > keys[j].ID
		}
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
}

func normalizeFeatures(features []string) ([]string, error) {
	if len(features) == 0 {
		return slices.Clone(DefaultFeatures), nil
	}
	out := make([]string, 0, len(features))
	for _, f := range features {
		if !slices.Contains(DefaultFeatures, f) {
			return nil, apperr.NewValidationError("features", fmt.Sprintf("unknown feature %q", f))
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}
