// Package history keeps finished analysis reports so they can be fetched
// again by ID.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/ppiankov/symptia/internal/model"
)

// ErrNotFound is returned when no report exists for an ID
var ErrNotFound = errors.New("analysis not found")

// DefaultListLimit applies when List is called with a non-positive limit
const DefaultListLimit = 20

type Repository interface {
	Save(ctx context.Context, r *model.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	// List returns the most recent reports first
	List(ctx context.Context, limit int) ([]*model.Report, error)
}

// Open returns a Postgres repository when a database URL is configured and
// an in-memory one otherwise. The returned close func is never nil.
func Open(ctx context.Context, cfg model.HistoryConfig) (Repository, func() error, error) {
	if cfg.DatabaseURL == "" {
		return NewMemoryRepository(cfg.Retention), func() error { return nil }, nil
	}

	if err := Migrate(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open history database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect history database: %w", err)
	}

	return NewPostgresRepository(db), db.Close, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
