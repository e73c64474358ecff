package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/solvebot/internal/domain"
	"github.com/ashureev/solvebot/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS user_settings (
		user_id INTEGER PRIMARY KEY,
		method TEXT NOT NULL,
		rounding TEXT NOT NULL,
		language TEXT NOT NULL,
		hints TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		parameters TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_applications_user ON applications(user_id, id DESC);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		application_id INTEGER NOT NULL,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (application_id) REFERENCES applications(id)
	);
	CREATE INDEX IF NOT EXISTS idx_results_application ON results(application_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSettings retrieves settings for a user, returning defaults when
// no record exists.
func (s *SQLiteStore) GetSettings(ctx context.Context, userID int64, defaults domain.Settings) (domain.Settings, error) {
	query := `SELECT method, rounding, language, hints FROM user_settings WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var settings domain.Settings
	err := row.Scan(&settings.Method, &settings.Rounding, &settings.Language, &settings.Hints)
	if err == sql.ErrNoRows {
		return defaults.Normalize(), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("scan settings row: %w", err)
	}

	return settings.Normalize(), nil
}

// PutSettings creates or replaces the settings record for a user.
// Retries on SQLite concurrency errors since the background
// completion task and foreground settings changes can write
// concurrently.
func (s *SQLiteStore) PutSettings(ctx context.Context, userID int64, settings domain.Settings) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = s.putSettingsOnce(ctx, userID, settings)
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) {
			return err
		}
		if i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("PutSettings hit SQLite conflict, retrying",
				"user_id", userID,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
		}
	}
	return fmt.Errorf("put settings for %d after %d attempts: %w", userID, maxRetries, err)
}

func (s *SQLiteStore) putSettingsOnce(ctx context.Context, userID int64, settings domain.Settings) error {
	query := `
	INSERT INTO user_settings (user_id, method, rounding, language, hints, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		method = excluded.method,
		rounding = excluded.rounding,
		language = excluded.language,
		hints = excluded.hints,
		updated_at = excluded.updated_at`

	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, query,
		userID, settings.Method, settings.Rounding, settings.Language, settings.Hints,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// SaveApplication appends a submitted solve request.
func (s *SQLiteStore) SaveApplication(ctx context.Context, userID int64, parameters string, status string) (int64, error) {
	query := `
	INSERT INTO applications (user_id, parameters, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)`

	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx, query, userID, parameters, status, now, now)
	if err != nil {
		return 0, fmt.Errorf("insert application: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("application insert id: %w", err)
	}
	return id, nil
}

// UpdateApplicationStatus records the terminal outcome of an application.
func (s *SQLiteStore) UpdateApplicationStatus(ctx context.Context, applicationID int64, status string) error {
	query := `UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, status, time.Now().Unix(), applicationID)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateApplicationStatus affected 0 rows", "application_id", applicationID, "status", status)
	}
	return nil
}

// RecentApplications returns up to RecentLimit applications for a
// user, most recent first.
func (s *SQLiteStore) RecentApplications(ctx context.Context, userID int64) ([]domain.Application, error) {
	query := `
	SELECT id, user_id, parameters, status, created_at
	FROM applications WHERE user_id = ?
	ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("query recent applications: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close recent applications rows", "error", closeErr)
		}
	}()

	var apps []domain.Application
	for rows.Next() {
		var app domain.Application
		var createdAt int64

		if err := rows.Scan(&app.ID, &app.UserID, &app.Parameters, &app.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan application row: %w", err)
		}
		app.CreatedAt = time.Unix(createdAt, 0)
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}

	return apps, nil
}

// SaveResult stores the result payload for a completed application.
func (s *SQLiteStore) SaveResult(ctx context.Context, applicationID int64, data string) error {
	query := `INSERT INTO results (application_id, data, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, applicationID, data, time.Now().Unix()); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// Results returns the stored result rows for an application.
func (s *SQLiteStore) Results(ctx context.Context, applicationID int64) ([]domain.ResultRow, error) {
	query := `SELECT id, application_id, data, created_at FROM results WHERE application_id = ? ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close result rows", "error", closeErr)
		}
	}()

	var results []domain.ResultRow
	for rows.Next() {
		var row domain.ResultRow
		var createdAt int64

		if err := rows.Scan(&row.ID, &row.ApplicationID, &row.Data, &createdAt); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		row.CreatedAt = time.Unix(createdAt, 0)
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return results, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
