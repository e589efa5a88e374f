package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"learner-feature/internal/keys"
)

// KeyModel is the PostgreSQL row for an API key.
type KeyModel struct {
	Token               string                      `gorm:"column:key;primaryKey;size:80"`
	KeyID               string                      `gorm:"column:id;uniqueIndex;size:36;not null"`
	ProjectID           string                      `gorm:"index:idx_api_keys_project;size:80"`
	ProjectName         string
	ProjectURL          string
	UserID              string                      `gorm:"index;not null"`
	Name                string
	Description         string
	Features            datatypes.JSONSlice[string] `gorm:"not null"`
	RateLimit           int                         `gorm:"not null"`
	IsActive            bool                        `gorm:"index:idx_api_keys_project;not null"`
	AllowedDomains      datatypes.JSONSlice[string] `gorm:"not null"`
	DataNamespace       string
	TotalRequests       int64
	RequestsThisHour    int64
	LastHourReset       time.Time
	ExplanationRequests int64
	ChatRequests        int64
	AnalyzeRequests     int64
	UnknownRequests     int64
	CreatedAt           time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime:false"`
	LastUsed            *time.Time
}

func (KeyModel) TableName() string { return "api_keys" }

// UsageModel is one row of a key's usage log.
type UsageModel struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"index;size:80;not null"`
	Timestamp time.Time
	Endpoint  string
	Feature   string
	Metadata  datatypes.JSONMap
}

func (UsageModel) TableName() string { return "usage_records" }

// ProjectModel is the PostgreSQL row for a project.
type ProjectModel struct {
	ID             string `gorm:"primaryKey;size:80"`
	Name           string `gorm:"not null"`
	URL            string `gorm:"not null"`
	UserID         string `gorm:"index;not null"`
	Namespace      string `gorm:"not null"`
	Title          string
	Description    string
	EmbeddingCount int
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
}

func (ProjectModel) TableName() string { return "projects" }

// OpenPostgres opens a GORM connection and migrates the key and project tables.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&KeyModel{}, &UsageModel{}, &ProjectModel{}); err != nil {
		return nil, err
	}
	return db, nil
}

func toKeyModel(k *keys.APIKey) *KeyModel {
	return &KeyModel{
		Token:               k.Key,
		KeyID:               k.ID,
		ProjectID:           k.ProjectID,
		ProjectName:         k.ProjectName,
		ProjectURL:          k.ProjectURL,
		UserID:              k.OwnerID,
		Name:                k.Name,
		Description:         k.Description,
		Features:            datatypes.JSONSlice[string](nonNil(k.Features)),
		RateLimit:           k.RateLimit,
		IsActive:            k.Active,
		AllowedDomains:      datatypes.JSONSlice[string](nonNil(k.Metadata.AllowedDomains)),
		DataNamespace:       k.Metadata.DataNamespace,
		TotalRequests:       k.Usage.TotalRequests,
		RequestsThisHour:    k.Usage.RequestsThisHour,
		LastHourReset:       k.Usage.LastHourReset,
		ExplanationRequests: k.Usage.ExplanationRequests,
		ChatRequests:        k.Usage.ChatRequests,
		AnalyzeRequests:     k.Usage.AnalyzeRequests,
		UnknownRequests:     k.Usage.UnknownRequests,
		CreatedAt:           k.CreatedAt,
		UpdatedAt:           k.UpdatedAt,
		LastUsed:            k.LastUsed,
	}
}

func (m *KeyModel) toAPIKey() *keys.APIKey {
	return &keys.APIKey{
		ID:          m.KeyID,
		Key:         m.Token,
		ProjectID:   m.ProjectID,
		ProjectName: m.ProjectName,
		ProjectURL:  m.ProjectURL,
		OwnerID:     m.UserID,
		Name:        m.Name,
		Description: m.Description,
		Features:    []string(m.Features),
		RateLimit:   m.RateLimit,
		Active:      m.IsActive,
		Usage: keys.Usage{
			TotalRequests:       m.TotalRequests,
			RequestsThisHour:    m.RequestsThisHour,
			LastHourReset:       m.LastHourReset.UTC(),
			ExplanationRequests: m.ExplanationRequests,
			ChatRequests:        m.ChatRequests,
			AnalyzeRequests:     m.AnalyzeRequests,
			UnknownRequests:     m.UnknownRequests,
		},
		Metadata: keys.KeyMetadata{
			AllowedDomains: []string(m.AllowedDomains),
			DataNamespace:  m.DataNamespace,
		},
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
		LastUsed:  m.LastUsed,
	}
}

// GormKeyRepo implements keys.Store on PostgreSQL through GORM.
type GormKeyRepo struct {
	db *gorm.DB
}

var _ keys.Store = (*GormKeyRepo)(nil)

// NewGormKeyRepo creates a new GormKeyRepo.
func NewGormKeyRepo(db *gorm.DB) *GormKeyRepo {
	return &GormKeyRepo{db: db}
}

func (r *GormKeyRepo) Create(ctx context.Context, k *keys.APIKey) error {
	if err := r.db.WithContext(ctx).Create(toKeyModel(k)).Error; err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}
	return nil
}

func (r *GormKeyRepo) Get(ctx context.Context, token string) (*keys.APIKey, error) {
	var m KeyModel
	err := r.db.WithContext(ctx).Where("key = ?", token).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query api key: %w", err)
	}
	return m.toAPIKey(), nil
}

func (r *GormKeyRepo) Update(ctx context.Context, k *keys.APIKey) error {
	res := r.db.WithContext(ctx).Model(&KeyModel{}).Where("key = ?", k.Key).Select("*").Updates(toKeyModel(k))
	if res.Error != nil {
		return fmt.Errorf("failed to update api key: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormKeyRepo) Delete(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key = ?", token).Delete(&UsageModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete usage records: %w", err)
		}
		res := tx.Where("key = ?", token).Delete(&KeyModel{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete api key: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormKeyRepo) List(ctx context.Context) ([]*keys.APIKey, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *GormKeyRepo) ListByOwner(ctx context.Context, ownerID string) ([]*keys.APIKey, error) {
	return r.find(r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("created_at DESC"))
}

func (r *GormKeyRepo) find(q *gorm.DB) ([]*keys.APIKey, error) {
	var models []KeyModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	out := make([]*keys.APIKey, 0, len(models))
	for i := range models {
		out = append(out, models[i].toAPIKey())
	}
	return out, nil
}

func (r *GormKeyRepo) FindActiveByProject(ctx context.Context, projectID string) (*keys.APIKey, error) {
	var m KeyModel
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Order("created_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project key: %w", err)
	}
	return m.toAPIKey(), nil
}

func (r *GormKeyRepo) AppendUsage(ctx context.Context, token string, rec keys.UsageRecord, keep int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &UsageModel{
			Key:       token,
			Timestamp: rec.Timestamp,
			Endpoint:  rec.Endpoint,
			Feature:   rec.Feature,
			Metadata:  datatypes.JSONMap(rec.Metadata),
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to insert usage record: %w", err)
		}
		if keep <= 0 {
			return nil
		}
		newest := tx.Model(&UsageModel{}).Select("id").Where("key = ?", token).Order("id DESC").Limit(keep)
		if err := tx.Where("key = ? AND id NOT IN (?)", token, newest).Delete(&UsageModel{}).Error; err != nil {
			return fmt.Errorf("failed to trim usage records: %w", err)
		}
		return nil
	})
}

func (r *GormKeyRepo) RecentUsage(ctx context.Context, token string, limit int) ([]keys.UsageRecord, error) {
	q := r.db.WithContext(ctx).Where("key = ?", token).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []UsageModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	out := make([]keys.UsageRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, keys.UsageRecord{
			Timestamp: row.Timestamp.UTC(),
			Endpoint:  row.Endpoint,
			Feature:   row.Feature,
			Metadata:  map[string]any(row.Metadata),
		})
	}
	return out, nil
}

// GormProjectRepo implements ProjectStore on PostgreSQL through GORM.
type GormProjectRepo struct {
	db *gorm.DB
}

var _ ProjectStore = (*GormProjectRepo)(nil)

// NewGormProjectRepo creates a new GormProjectRepo.
func NewGormProjectRepo(db *gorm.DB) *GormProjectRepo {
	return &GormProjectRepo{db: db}
}

func (r *GormProjectRepo) Create(ctx context.Context, p *ProjectRecord) error {
	m := &ProjectModel{
		ID:             p.ID,
		Name:           p.Name,
		URL:            p.URL,
		UserID:         p.OwnerID,
		Namespace:      p.Namespace,
		Title:          p.Title,
		Description:    p.Description,
		EmbeddingCount: p.EmbeddingCount,
		CreatedAt:      p.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (r *GormProjectRepo) Get(ctx context.Context, id string) (*ProjectRecord, error) {
	var m ProjectModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	p := m.toRecord()
	return &p, nil
}

func (r *GormProjectRepo) ListByOwner(ctx context.Context, ownerID string) ([]ProjectRecord, error) {
	var models []ProjectModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	out := make([]ProjectRecord, 0, len(models))
	for _, m := range models {
		out = append(out, m.toRecord())
	}
	return out, nil
}

func (r *GormProjectRepo) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&ProjectModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return int(n), nil
}

func (m ProjectModel) toRecord() ProjectRecord {
	return ProjectRecord{
		ID:             m.ID,
		Name:           m.Name,
		URL:            m.URL,
		OwnerID:        m.UserID,
		Namespace:      m.Namespace,
		Title:          m.Title,
		Description:    m.Description,
		EmbeddingCount: m.EmbeddingCount,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}
