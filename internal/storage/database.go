package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// Foreign keys are enabled on every pooled connection through the DSN.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS api_keys (
			key TEXT PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			project_id TEXT NOT NULL DEFAULT '',
			project_name TEXT NOT NULL DEFAULT '',
			project_url TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			features TEXT NOT NULL,
			rate_limit INTEGER NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			allowed_domains TEXT NOT NULL,
			data_namespace TEXT NOT NULL DEFAULT '',
			total_requests INTEGER NOT NULL DEFAULT 0,
			requests_this_hour INTEGER NOT NULL DEFAULT 0,
			last_hour_reset TEXT NOT NULL,
			explanation_requests INTEGER NOT NULL DEFAULT 0,
			chat_requests INTEGER NOT NULL DEFAULT 0,
			analyze_requests INTEGER NOT NULL DEFAULT 0,
			unknown_requests INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			last_used TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_user ON api_keys(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_project ON api_keys(project_id, is_active);`,
		`CREATE TABLE IF NOT EXISTS usage_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			feature TEXT NOT NULL,
			metadata TEXT,
			FOREIGN KEY (key) REFERENCES api_keys(key) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_usage_records_key ON usage_records(key, id);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			user_id TEXT NOT NULL,
			namespace TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			embedding_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// timeLayout is fixed width so that TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
