package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lysyi3m/policy-radar/app/article"
)

var _ ArticleRepository = (*articleRepository)(nil)

var articleColumns = []string{
	"title", "url", "source", "category", "published_at", "date_estimated", "summary", "content",
	"tags", "keywords", "source_type", "content_type", "strategy", "content_hash", "collected_at",
	"policy_relevance", "source_reliability", "recency", "sector_specificity", "crisis_relevance",
	"overall_score",
}

type articleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) HashExists(ctx context.Context, hash string) (bool, error) {
	query, args, err := sq.Select("1").
		From("articles").
		Where(sq.Eq{"content_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	return r.exists(ctx, query, args)
}

func (r *articleRepository) Put(ctx context.Context, a *article.Article) (bool, error) {
	tags, err := json.Marshal(a.Tags)
	if err != nil {
		return false, fmt.Errorf("failed to encode tags: %w", err)
	}
	keywords, err := json.Marshal(a.Keywords)
	if err != nil {
		return false, fmt.Errorf("failed to encode keywords: %w", err)
	}

	query, args, err := sq.Insert("articles").
		Options("OR IGNORE").
		Columns(append([]string{"version_key"}, articleColumns...)...).
		Values(
			a.VersionKey(), a.Title, a.URL, a.Source, a.Category,
			a.PublishedAt.UTC().Unix(), a.DateEstimated, a.Summary, a.Content,
			string(tags), string(keywords), a.SourceType, a.ContentType, a.Strategy,
			a.ContentHash, a.CollectedAt.UTC().Unix(),
			a.Scores.PolicyRelevance, a.Scores.SourceReliability, a.Scores.Recency,
			a.Scores.SectorSpecificity, a.Scores.CrisisRelevance, a.Scores.Overall,
		).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to store article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *articleRepository) FindByURLSince(ctx context.Context, url string, since time.Time) (bool, error) {
	query, args, err := sq.Select("1").
		From("articles").
		Where(sq.Eq{"url": url}).
		Where(sq.GtOrEq{"collected_at": since.UTC().Unix()}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	return r.exists(ctx, query, args)
}

func (r *articleRepository) TitlesSince(ctx context.Context, since time.Time) ([]string, error) {
	query, args, err := sq.Select("DISTINCT title").
		From("articles").
		Where(sq.GtOrEq{"collected_at": since.UTC().Unix()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating title rows: %w", err)
	}

	return titles, nil
}

// ListRecent returns the latest stored versions, newest collection first and
// best score first within a collection.
func (r *articleRepository) ListRecent(ctx context.Context, limit int) ([]*article.Article, error) {
	query, args, err := sq.Select(articleColumns...).
		From("articles").
		OrderBy("collected_at DESC", "overall_score DESC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []*article.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *articleRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

func (r *articleRepository) exists(ctx context.Context, query string, args []any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query articles: %w", err)
	}
	return true, nil
}

func scanArticle(rows *sql.Rows) (*article.Article, error) {
	var (
		a                      article.Article
		publishedAt, collected int64
		tags, keywords         string
	)

	err := rows.Scan(
		&a.Title, &a.URL, &a.Source, &a.Category, &publishedAt, &a.DateEstimated, &a.Summary, &a.Content,
		&tags, &keywords, &a.SourceType, &a.ContentType, &a.Strategy, &a.ContentHash, &collected,
		&a.Scores.PolicyRelevance, &a.Scores.SourceReliability, &a.Scores.Recency,
		&a.Scores.SectorSpecificity, &a.Scores.CrisisRelevance, &a.Scores.Overall,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan article row: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &a.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords: %w", err)
	}

	a.PublishedAt = time.Unix(publishedAt, 0).UTC()
	a.CollectedAt = time.Unix(collected, 0).UTC()

	return &a, nil
}
