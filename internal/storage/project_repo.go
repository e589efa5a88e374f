package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_project_store.go -package=mocks learner-feature/internal/storage ProjectStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ProjectStore defines the interface for project storage operations.
type ProjectStore interface {
	// Create inserts a new project.
	Create(ctx context.Context, p *ProjectRecord) error
	// Get returns a project by ID or ErrNotFound.
	Get(ctx context.Context, id string) (*ProjectRecord, error)
	// ListByOwner returns an owner's projects, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]ProjectRecord, error)
	// Count returns the number of registered projects.
	Count(ctx context.Context) (int, error)
}

// ProjectRepo provides methods for project operations.
// It implements the ProjectStore interface.
type ProjectRepo struct {
	db *sql.DB
}

// NewProjectRepo creates a new ProjectRepo.
func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, p *ProjectRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, url, user_id, namespace, title, description, embedding_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.URL, p.OwnerID, p.Namespace, p.Title, p.Description, p.EmbeddingCount, formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*ProjectRecord, error) {
	var (
		p         ProjectRecord
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, url, user_id, namespace, title, description, embedding_count, created_at FROM projects WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.URL, &p.OwnerID, &p.Namespace, &p.Title, &p.Description, &p.EmbeddingCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID string) ([]ProjectRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, url, user_id, namespace, title, description, embedding_count, created_at
		 FROM projects WHERE user_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []ProjectRecord
	for rows.Next() {
		var (
			p         ProjectRecord
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.URL, &p.OwnerID, &p.Namespace, &p.Title, &p.Description, &p.EmbeddingCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}
