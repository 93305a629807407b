// Package repository provides the prediction audit store.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/sentinel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SavePrediction stores a served prediction in the audit log.
func (r *SQLRepository) SavePrediction(ctx context.Context, p *domain.Prediction) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: prediction id is required", ErrInvalidInput)
	}

	record, _ := json.Marshal(p.Record)

	query := `
		INSERT INTO predictions (
			id, record, probability, justification, created_at
		) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		p.ID, string(record), p.Probability, p.Justification, p.CreatedAt,
	)
	return err
}

// GetPrediction retrieves a stored prediction by ID.
func (r *SQLRepository) GetPrediction(ctx context.Context, id string) (*domain.Prediction, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: prediction id is required", ErrInvalidInput)
	}

	query := `
		SELECT id, record, probability, justification, created_at
		FROM predictions
		WHERE id = ?
	`

	var p domain.Prediction
	var record string

	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&p.ID, &record, &p.Probability, &p.Justification, &p.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if record != "" {
		json.Unmarshal([]byte(record), &p.Record)
	}

	return &p, nil
}

// SaveAlert stores an alert raised for a flagged prediction.
func (r *SQLRepository) SaveAlert(ctx context.Context, a *domain.Alert) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("%w: alert id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO alerts (
			id, prediction_id, probability, reasons, created_at
		) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		a.ID, a.PredictionID, a.Probability, a.Reasons, a.CreatedAt,
	)
	return err
}

// ListAlerts retrieves alerts raised at or after the given time.
func (r *SQLRepository) ListAlerts(ctx context.Context, since time.Time) ([]*domain.Alert, error) {
	query := `
		SELECT id, prediction_id, probability, reasons, created_at
		FROM alerts
		WHERE created_at >= ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.PredictionID, &a.Probability, &a.Reasons, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, &a)
	}

	return alerts, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
