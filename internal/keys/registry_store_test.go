package keys_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"learner-feature/internal/apperr"
	"learner-feature/internal/keys"
	"learner-feature/internal/keys/mocks"
)

func TestRegistry_StoreFailures(t *testing.T) {
	errDB := errors.New("database is locked")
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	live := func() *keys.APIKey {
		return &keys.APIKey{Key: "learn_x", OwnerID: "u1", Active: true, RateLimit: 10, Usage: keys.Usage{LastHourReset: now}}
	}

	tests := []struct {
		name      string
		mockSetup func(m *mocks.MockStore)
		run       func(r *keys.Registry) error
		wantErr   func(error) bool
	}{
		{
			name: "validate lookup failure is not an auth error",
			mockSetup: func(m *mocks.MockStore) {
				m.EXPECT().Get(gomock.Any(), "learn_x").Return(nil, errDB)
			},
			run: func(r *keys.Registry) error {
				_, err := r.Validate(context.Background(), "learn_x", "")
				return err
			},
			wantErr: func(err error) bool {
				var authErr *apperr.AuthError
				return errors.Is(err, errDB) && !errors.As(err, &authErr)
			},
		},
		{
			name: "unknown token maps to key not found",
			mockSetup: func(m *mocks.MockStore) {
				m.EXPECT().Get(gomock.Any(), "learn_x").Return(nil, apperr.ErrNotFound)
			},
			run: func(r *keys.Registry) error {
				_, err := r.Validate(context.Background(), "learn_x", "")
				return err
			},
			wantErr: func(err error) bool { return errors.Is(err, apperr.ErrKeyNotFound) },
		},
		{
			name: "usage append failure surfaces",
			mockSetup: func(m *mocks.MockStore) {
				m.EXPECT().Get(gomock.Any(), "learn_x").Return(live(), nil)
				m.EXPECT().Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, k *keys.APIKey) error {
						if k.Usage.ChatRequests != 1 || k.Usage.TotalRequests != 1 || k.Usage.RequestsThisHour != 0 {
							t.Errorf("counters not incremented before update: %+v", k.Usage)
						}
						return nil
					})
				m.EXPECT().AppendUsage(gomock.Any(), "learn_x", gomock.Any(), 1000).Return(errDB)
			},
			run: func(r *keys.Registry) error {
				return r.RecordUsage(context.Background(), "learn_x", "/api/v1/chat", nil)
			},
			wantErr: func(err error) bool { return errors.Is(err, errDB) },
		},
		{
			name: "reservation write failure rejects the request",
			mockSetup: func(m *mocks.MockStore) {
				m.EXPECT().Get(gomock.Any(), "learn_x").Return(live(), nil)
				m.EXPECT().Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, k *keys.APIKey) error {
						if k.Usage.RequestsThisHour != 1 {
							t.Errorf("slot not reserved before update: %+v", k.Usage)
						}
						return errDB
					})
			},
			run: func(r *keys.Registry) error {
				_, err := r.Acquire(context.Background(), "learn_x", "", keys.FeatureChat)
				return err
			},
			wantErr: func(err error) bool { return errors.Is(err, errDB) },
		},
		{
			name: "revoke by another owner is not authorized",
			mockSetup: func(m *mocks.MockStore) {
				m.EXPECT().Get(gomock.Any(), "learn_x").Return(live(), nil)
			},
			run: func(r *keys.Registry) error {
				return r.Revoke(context.Background(), "learn_x", "intruder")
			},
			wantErr: func(err error) bool { return errors.Is(err, apperr.ErrNotAuthorized) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			tt.mockSetup(store)

			reg := keys.NewRegistry(store, keys.WithClock(func() time.Time { return now.Add(time.Minute) }))
			if err := tt.run(reg); !tt.wantErr(err) {
				t.Errorf("error = %v", err)
			}
		})
	}
}
