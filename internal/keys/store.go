package keys

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks learner-feature/internal/keys Store

import "context"

// Store persists keys and their usage logs.
// Lookups of unknown tokens return apperr.ErrNotFound.
type Store interface {
	Create(ctx context.Context, key *APIKey) error
	Get(ctx context.Context, token string) (*APIKey, error)
	// Update overwrites every mutable field of an existing key.
	Update(ctx context.Context, key *APIKey) error
	Delete(ctx context.Context, token string) error
	List(ctx context.Context) ([]*APIKey, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*APIKey, error)
	// FindActiveByProject returns the live key bound to projectID.
	FindActiveByProject(ctx context.Context, projectID string) (*APIKey, error)
	// AppendUsage adds rec to the token's log and evicts the oldest entries beyond keep.
	AppendUsage(ctx context.Context, token string, rec UsageRecord, keep int) error
	// RecentUsage returns up to limit records, newest first.
	RecentUsage(ctx context.Context, token string, limit int) ([]UsageRecord, error)
}
