package domain

import (
	"context"
	"time"
)

// Repository defines the interface for the prediction audit store.
// Writes are best-effort from the request path: a failed audit write
// never fails the prediction response.
type Repository interface {
	// Prediction audit log
	SavePrediction(ctx context.Context, p *Prediction) error
	GetPrediction(ctx context.Context, id string) (*Prediction, error)

	// Alerts raised by the async worker
	SaveAlert(ctx context.Context, a *Alert) error
	ListAlerts(ctx context.Context, since time.Time) ([]*Alert, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
