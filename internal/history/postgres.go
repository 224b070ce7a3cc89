package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/symptia/internal/model"
)

type postgresRepo struct {
	db *sql.DB
}

// NewPostgresRepository stores reports in the analyses table
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Save(ctx context.Context, report *model.Report) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	top := ""
	if m, ok := report.Result.TopMatch(); ok {
		top = m.Name
	}

	query := `
		INSERT INTO analyses (id, created_at, urgency, top_condition, report)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			urgency = $3,
			top_condition = $4,
			report = $5
	`
	_, err = r.db.ExecContext(ctx, query,
		report.ID, report.CreatedAt, string(report.Result.Urgency), top, data)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", report.ID, err)
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	row := r.db.QueryRowContext(ctx, `SELECT report FROM analyses WHERE id = $1`, id)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load analysis %s: %w", id, err)
	}

	return decodeReport(data)
}

func (r *postgresRepo) List(ctx context.Context, limit int) ([]*model.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT report FROM analyses ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		report, err := decodeReport(data)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func decodeReport(data []byte) (*model.Report, error) {
	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}
