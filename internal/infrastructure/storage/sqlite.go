// Package storage persists labeled rows of a run for audit.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/ports"
)

const labeledTable = "labeled_articles"

const schema = `CREATE TABLE IF NOT EXISTS labeled_articles (
	run_id       TEXT    NOT NULL,
	row_index    INTEGER NOT NULL,
	title        TEXT    NOT NULL,
	source       TEXT    NOT NULL,
	published_at TEXT,
	text         TEXT    NOT NULL,
	category     TEXT    NOT NULL,
	region       TEXT    NOT NULL,
	status       TEXT    NOT NULL,
	stored_at    TEXT    NOT NULL,
	PRIMARY KEY (run_id, row_index)
)`

// OpenSQLite opens (or creates) the database at dsn and ensures the schema.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// SQLRepository stores labeled rows in a SQL table.
type SQLRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleRepository = (*SQLRepository)(nil)

// NewSQLRepository wires a sql.DB implementation.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// SaveLabeled upserts all rows inside one transaction.
func (r *SQLRepository) SaveLabeled(ctx context.Context, articles []domain.StoredArticle) error {
	if r.db == nil || len(articles) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range articles {
		query := r.builder.
			Insert(labeledTable).
			Options("OR REPLACE").
			Columns("run_id", "row_index", "title", "source", "published_at",
				"text", "category", "region", "status", "stored_at").
			Values(
				a.RunID,
				a.Labeled.Article.Index,
				a.Labeled.Article.Title,
				a.Labeled.Article.Source,
				formatTime(a.Labeled.Article.PublishedAt),
				a.Labeled.Article.Text,
				a.Labeled.CategoryString(),
				a.Labeled.Region,
				string(a.Status),
				a.StoredAt.UTC().Format(time.RFC3339Nano),
			).
			RunWith(tx)
		if _, err := query.ExecContext(ctx); err != nil {
			return fmt.Errorf("insert row %d: %w", a.Labeled.Article.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadRun returns the rows stored for runID in input order.
func (r *SQLRepository) LoadRun(ctx context.Context, runID string) ([]domain.StoredArticle, error) {
	query, args, err := r.builder.
		Select("row_index", "title", "source", "published_at", "text",
			"category", "region", "status", "stored_at").
		From(labeledTable).
		Where(sq.Eq{"run_id": runID}).
		OrderBy("row_index").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredArticle
	for rows.Next() {
		var (
			stored               domain.StoredArticle
			published            sql.NullString
			category, status, at string
		)
		article := &stored.Labeled.Article
		if err := rows.Scan(&article.Index, &article.Title, &article.Source, &published,
			&article.Text, &category, &stored.Labeled.Region, &status, &at); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		stored.RunID = runID
		stored.Labeled.Categories = domain.ParseCategorySet(category)
		stored.Status = domain.LabelingStatus(status)
		if published.Valid {
			article.PublishedAt, _ = time.Parse(time.RFC3339Nano, published.String)
		}
		stored.StoredAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
