package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lysyi3m/policy-radar/app/source"
)

var _ SourceRepository = (*sourceRepository)(nil)

type sourceRepository struct {
	db *DB
}

func NewSourceRepository(db *DB) SourceRepository {
	return &sourceRepository{db: db}
}

func (r *sourceRepository) Upsert(ctx context.Context, s source.Source) error {
	fallbacks := s.Fallbacks
	if fallbacks == nil {
		fallbacks = []string{}
	}
	encoded, err := json.Marshal(fallbacks)
	if err != nil {
		return fmt.Errorf("failed to encode fallbacks: %w", err)
	}

	query, args, err := sq.Insert("sources").
		Columns("name", "url", "category", "format", "fallbacks", "reliability", "enabled", "updated_at").
		Values(s.Name, s.URL, s.Category, string(s.Format), string(encoded), s.Reliability, s.IsEnabled(), time.Now().UTC().Unix()).
		Suffix(`ON CONFLICT(name) DO UPDATE SET
			url = excluded.url,
			category = excluded.category,
			format = excluded.format,
			fallbacks = excluded.fallbacks,
			reliability = excluded.reliability,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	return nil
}

func (r *sourceRepository) List(ctx context.Context) ([]SourceRecord, error) {
	query, args, err := sq.Select("name", "url", "category", "format", "fallbacks", "reliability", "enabled", "updated_at").
		From("sources").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var records []SourceRecord
	for rows.Next() {
		var (
			rec       SourceRecord
			fallbacks string
			updatedAt int64
		)
		if err := rows.Scan(&rec.Name, &rec.URL, &rec.Category, &rec.Format, &fallbacks,
			&rec.Reliability, &rec.Enabled, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		if err := json.Unmarshal([]byte(fallbacks), &rec.Fallbacks); err != nil {
			return nil, fmt.Errorf("failed to decode fallbacks: %w", err)
		}
		rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return records, nil
}

// Reliabilities returns the catalog overrides keyed by source name. Sources
// without an override are left out.
func (r *sourceRepository) Reliabilities(ctx context.Context) (map[string]float64, error) {
	query, args, err := sq.Select("name", "reliability").
		From("sources").
		Where(sq.Gt{"reliability": 0}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get reliabilities: %w", err)
	}
	defer rows.Close()

	result := make(map[string]float64)
	for rows.Next() {
		var (
			name  string
			score float64
		)
		if err := rows.Scan(&name, &score); err != nil {
			return nil, fmt.Errorf("failed to scan reliability row: %w", err)
		}
		result[name] = score
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reliability rows: %w", err)
	}

	return result, nil
}
