package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"learner-feature/internal/apperr"
	"learner-feature/internal/keys"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = apperr.ErrNotFound

const keyColumns = `key, id, project_id, project_name, project_url, user_id, name, description,
	features, rate_limit, is_active, allowed_domains, data_namespace,
	total_requests, requests_this_hour, last_hour_reset,
	explanation_requests, chat_requests, analyze_requests, unknown_requests,
	created_at, updated_at, last_used`

// KeyRepo persists API keys and usage logs in SQLite.
// It implements keys.Store.
type KeyRepo struct {
	db *sql.DB
}

var _ keys.Store = (*KeyRepo)(nil)

// NewKeyRepo creates a new KeyRepo.
func NewKeyRepo(db *sql.DB) *KeyRepo {
	return &KeyRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKey(row rowScanner) (*keys.APIKey, error) {
	var (
		k                                   keys.APIKey
		features, domains                   string
		lastHourReset, createdAt, updatedAt string
		lastUsed                            sql.NullString
		active                              int
	)
	err := row.Scan(
		&k.Key, &k.ID, &k.ProjectID, &k.ProjectName, &k.ProjectURL, &k.OwnerID, &k.Name, &k.Description,
		&features, &k.RateLimit, &active, &domains, &k.Metadata.DataNamespace,
		&k.Usage.TotalRequests, &k.Usage.RequestsThisHour, &lastHourReset,
		&k.Usage.ExplanationRequests, &k.Usage.ChatRequests, &k.Usage.AnalyzeRequests, &k.Usage.UnknownRequests,
		&createdAt, &updatedAt, &lastUsed,
	)
	if err != nil {
		return nil, err
	}
	k.Active = active != 0

	if err := json.Unmarshal([]byte(features), &k.Features); err != nil {
		return nil, fmt.Errorf("failed to decode features: %w", err)
	}
	if err := json.Unmarshal([]byte(domains), &k.Metadata.AllowedDomains); err != nil {
		return nil, fmt.Errorf("failed to decode allowed domains: %w", err)
	}
	if k.Usage.LastHourReset, err = parseTime(lastHourReset); err != nil {
		return nil, fmt.Errorf("failed to parse last_hour_reset: %w", err)
	}
	if k.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if k.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if lastUsed.Valid {
		t, err := parseTime(lastUsed.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_used: %w", err)
		}
		k.LastUsed = &t
	}
	return &k, nil
}

func keyArgs(k *keys.APIKey) ([]any, error) {
	features, err := json.Marshal(nonNil(k.Features))
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}
	domains, err := json.Marshal(nonNil(k.Metadata.AllowedDomains))
	if err != nil {
		return nil, fmt.Errorf("failed to encode allowed domains: %w", err)
	}
	var lastUsed sql.NullString
	if k.LastUsed != nil {
		lastUsed = sql.NullString{String: formatTime(*k.LastUsed), Valid: true}
	}
	active := 0
	if k.Active {
		active = 1
	}
	return []any{
		k.Key, k.ID, k.ProjectID, k.ProjectName, k.ProjectURL, k.OwnerID, k.Name, k.Description,
		string(features), k.RateLimit, active, string(domains), k.Metadata.DataNamespace,
		k.Usage.TotalRequests, k.Usage.RequestsThisHour, formatTime(k.Usage.LastHourReset),
		k.Usage.ExplanationRequests, k.Usage.ChatRequests, k.Usage.AnalyzeRequests, k.Usage.UnknownRequests,
		formatTime(k.CreatedAt), formatTime(k.UpdatedAt), lastUsed,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Create inserts a new key.
func (r *KeyRepo) Create(ctx context.Context, k *keys.APIKey) error {
	args, err := keyArgs(k)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO api_keys (`+keyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}
	return nil
}

// Get returns the key with the given token, or ErrNotFound.
func (r *KeyRepo) Get(ctx context.Context, token string) (*keys.APIKey, error) {
	k, err := scanKey(r.db.QueryRowContext(ctx, `SELECT `+keyColumns+` FROM api_keys WHERE key = ?`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query api key: %w", err)
	}
	return k, nil
}

// Update overwrites every mutable column of an existing key.
func (r *KeyRepo) Update(ctx context.Context, k *keys.APIKey) error {
	args, err := keyArgs(k)
	if err != nil {
		return err
	}
	// Move the token from the front of the argument list to the WHERE clause.
	args = append(args[1:], k.Key)
	res, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET
			id = ?, project_id = ?, project_name = ?, project_url = ?, user_id = ?, name = ?, description = ?,
			features = ?, rate_limit = ?, is_active = ?, allowed_domains = ?, data_namespace = ?,
			total_requests = ?, requests_this_hour = ?, last_hour_reset = ?,
			explanation_requests = ?, chat_requests = ?, analyze_requests = ?, unknown_requests = ?,
			created_at = ?, updated_at = ?, last_used = ?
		 WHERE key = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update api key: %w", err)
	}
	return requireOneRow(res)
}

// Delete removes a key together with its usage log.
func (r *KeyRepo) Delete(ctx context.Context, token string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM usage_records WHERE key = ?`, token); err != nil {
		return fmt.Errorf("failed to delete usage records: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM api_keys WHERE key = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	if err := requireOneRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns every key.
func (r *KeyRepo) List(ctx context.Context) ([]*keys.APIKey, error) {
	return r.query(ctx, `SELECT `+keyColumns+` FROM api_keys`)
}

// ListByOwner returns the owner's keys, newest first.
func (r *KeyRepo) ListByOwner(ctx context.Context, ownerID string) ([]*keys.APIKey, error) {
	return r.query(ctx, `SELECT `+keyColumns+` FROM api_keys WHERE user_id = ? ORDER BY created_at DESC`, ownerID)
}

// FindActiveByProject returns the live key bound to projectID, or ErrNotFound.
func (r *KeyRepo) FindActiveByProject(ctx context.Context, projectID string) (*keys.APIKey, error) {
	k, err := scanKey(r.db.QueryRowContext(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE project_id = ? AND is_active = 1 ORDER BY created_at DESC LIMIT 1`,
		projectID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project key: %w", err)
	}
	return k, nil
}

func (r *KeyRepo) query(ctx context.Context, q string, args ...any) ([]*keys.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	defer rows.Close()

	var out []*keys.APIKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api keys: %w", err)
	}
	return out, nil
}

// AppendUsage inserts rec and trims the token's log to the newest keep records.
func (r *KeyRepo) AppendUsage(ctx context.Context, token string, rec keys.UsageRecord, keep int) error {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode usage metadata: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO usage_records (key, timestamp, endpoint, feature, metadata) VALUES (?, ?, ?, ?, ?)`,
		token, formatTime(rec.Timestamp), rec.Endpoint, rec.Feature, string(meta),
	); err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	if keep > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM usage_records WHERE key = ? AND id NOT IN (
				SELECT id FROM usage_records WHERE key = ? ORDER BY id DESC LIMIT ?
			)`,
			token, token, keep,
		); err != nil {
			return fmt.Errorf("failed to trim usage records: %w", err)
		}
	}
	return tx.Commit()
}

// RecentUsage returns up to limit records for token, newest first. limit <= 0 returns all.
func (r *KeyRepo) RecentUsage(ctx context.Context, token string, limit int) ([]keys.UsageRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT timestamp, endpoint, feature, metadata FROM usage_records WHERE key = ? ORDER BY id DESC LIMIT ?`,
		token, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	out := []keys.UsageRecord{}
	for rows.Next() {
		var (
			rec  keys.UsageRecord
			ts   string
			meta sql.NullString
		)
		if err := rows.Scan(&ts, &rec.Endpoint, &rec.Feature, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		if rec.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("failed to parse usage timestamp: %w", err)
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode usage metadata: %w", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage records: %w", err)
	}
	return out, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
