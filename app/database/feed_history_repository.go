package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var _ FeedHistoryRepository = (*feedHistoryRepository)(nil)

type feedHistoryRepository struct {
	db  *DB
	now func() time.Time
}

func NewFeedHistoryRepository(db *DB) FeedHistoryRepository {
	return &feedHistoryRepository{db: db, now: time.Now}
}

// RecordFeedOutcome bumps the success or error counter of an endpoint. A
// success keeps the last error message so operators can still see it.
func (r *feedHistoryRepository) RecordFeedOutcome(ctx context.Context, sourceName, endpoint string, success bool, errMsg string) error {
	now := r.now().UTC().Unix()

	var (
		lastSuccess, lastErrorAt any
		successCount, errorCount int
	)
	if success {
		lastSuccess = now
		successCount = 1
		errMsg = ""
	} else {
		lastErrorAt = now
		errorCount = 1
	}

	query, args, err := sq.Insert("feed_history").
		Columns("endpoint", "source", "last_success_at", "last_error", "last_error_at",
			"success_count", "error_count", "updated_at").
		Values(endpoint, sourceName, lastSuccess, errMsg, lastErrorAt, successCount, errorCount, now).
		Suffix(`ON CONFLICT(endpoint) DO UPDATE SET
			source = excluded.source,
			last_success_at = COALESCE(excluded.last_success_at, feed_history.last_success_at),
			last_error = CASE WHEN excluded.error_count > 0 THEN excluded.last_error ELSE feed_history.last_error END,
			last_error_at = COALESCE(excluded.last_error_at, feed_history.last_error_at),
			success_count = feed_history.success_count + excluded.success_count,
			error_count = feed_history.error_count + excluded.error_count,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record feed outcome: %w", err)
	}

	return nil
}

func (r *feedHistoryRepository) List(ctx context.Context) ([]FeedHistory, error) {
	query, args, err := sq.Select("endpoint", "source", "last_success_at", "last_error", "last_error_at",
		"success_count", "error_count", "updated_at").
		From("feed_history").
		OrderBy("source", "endpoint").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed history: %w", err)
	}
	defer rows.Close()

	var history []FeedHistory
	for rows.Next() {
		var (
			h                        FeedHistory
			lastSuccess, lastErrorAt sql.NullInt64
			updatedAt                int64
		)
		if err := rows.Scan(&h.Endpoint, &h.Source, &lastSuccess, &h.LastError, &lastErrorAt,
			&h.SuccessCount, &h.ErrorCount, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feed history row: %w", err)
		}

		h.LastSuccessAt = unixPtr(lastSuccess)
		h.LastErrorAt = unixPtr(lastErrorAt)
		h.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed history rows: %w", err)
	}

	return history, nil
}

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
