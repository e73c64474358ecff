// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ashureev/solvebot/internal/domain"
)

// RecentLimit bounds the history list returned by RecentApplications.
const RecentLimit = 10

// Application statuses tracked for submitted solve jobs.
const (
	StatusNew       = "new"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Repository defines the interface for persisting user settings and
// solve history.
type Repository interface {
	// GetSettings retrieves settings for a user, returning defaults
	// when no record exists.
	GetSettings(ctx context.Context, userID int64, defaults domain.Settings) (domain.Settings, error)

	// PutSettings creates or replaces the settings record for a user.
	// The write is idempotent; duplicate writes of the same snapshot
	// are harmless.
	PutSettings(ctx context.Context, userID int64, settings domain.Settings) error

	// SaveApplication appends a submitted solve request and returns
	// its application id.
	SaveApplication(ctx context.Context, userID int64, parameters string, status string) (int64, error)

	// UpdateApplicationStatus records the terminal outcome of an
	// application.
	UpdateApplicationStatus(ctx context.Context, applicationID int64, status string) error

	// RecentApplications returns up to RecentLimit applications for a
	// user, most recent first.
	RecentApplications(ctx context.Context, userID int64) ([]domain.Application, error)

	// SaveResult stores the result payload for a completed application.
	SaveResult(ctx context.Context, applicationID int64, data string) error

	// Results returns the stored result rows for an application.
	Results(ctx context.Context, applicationID int64) ([]domain.ResultRow, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
