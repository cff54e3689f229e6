package ports

import (
	"context"

	"NewsLabeler/internal/domain"
)

// ScoreOracle scores an article against every label independently (multi-label zero-shot).
type ScoreOracle interface {
	Name() string
	Score(ctx context.Context, text string, labels []domain.Category) (domain.ScoreResult, error)
}

// ArticleSource reads the input dataset.
type ArticleSource interface {
	ReadArticles(ctx context.Context) ([]domain.Article, error)
}

// LabeledSink writes the enriched dataset.
type LabeledSink interface {
	WriteLabeled(ctx context.Context, articles []domain.LabeledArticle) error
}

// LabeledSource reads a previously enriched dataset for analysis.
type LabeledSource interface {
	ReadLabeled(ctx context.Context) ([]domain.LabeledArticle, error)
}

// ArticleRepository persists labeled rows of a run for audit.
type ArticleRepository interface {
	SaveLabeled(ctx context.Context, articles []domain.StoredArticle) error
}

// Notifier streams run digests to chat channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// ReportWriter publishes an analysis report.
type ReportWriter interface {
	WriteReport(ctx context.Context, report any) error
}
