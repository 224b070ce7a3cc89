package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/symptia/internal/model"
)

type memoryRepo struct {
	items *gocache.Cache
}

// NewMemoryRepository keeps reports in process memory for the retention
// period. Zero retention keeps them until the process exits.
func NewMemoryRepository(retention time.Duration) Repository {
	ttl := retention
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &memoryRepo{items: gocache.New(ttl, 10*time.Minute)}
}

// Reports are stored encoded so callers cannot mutate stored state
func (r *memoryRepo) Save(ctx context.Context, report *model.Report) error {
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
	r.items.Set(report.ID.String(), data, gocache.DefaultExpiration)
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	val, ok := r.items.Get(id.String())
	if !ok {
		return nil, ErrNotFound
	}
	return decodeReport(val.([]byte))
}

func (r *memoryRepo) List(ctx context.Context, limit int) ([]*model.Report, error) {
	items := r.items.Items()

	reports := make([]*model.Report, 0, len(items))
	for _, item := range items {
		report, err := decodeReport(item.Object.([]byte))
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID.String() < reports[j].ID.String()
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})

	if limit = clampLimit(limit); len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}
