package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/logging"
	"NewsLabeler/internal/ports"
)

// PipelineDeps wires all driven adapters into the labeling workflow.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Labeler    *Labeler
	Sink       ports.LabeledSink
	Repository ports.ArticleRepository
	Notifier   ports.Notifier
	Logger     *slog.Logger
	Now        func() time.Time
}

// Pipeline reads the dataset, labels it and publishes the enriched rows.
type Pipeline struct {
	source     ports.ArticleSource
	labeler    *Labeler
	sink       ports.LabeledSink
	repository ports.ArticleRepository
	notifier   ports.Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// RunSummary describes one labeling run.
type RunSummary struct {
	RunID      string
	Rows       int
	EmptyText  int
	Unknown    int
	Categories map[domain.Category]int
	Regions    map[string]int
	Duration   time.Duration
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		source:     deps.Source,
		labeler:    deps.Labeler,
		sink:       deps.Sink,
		repository: deps.Repository,
		notifier:   deps.Notifier,
		logger:     logger,
		now:        now,
	}
}

// ProcessDataset orchestrates reading, labeling, writing, persisting and notifying.
// Nothing is written unless every row was labeled.
func (p *Pipeline) ProcessDataset(ctx context.Context) (RunSummary, error) {
	if p.source == nil || p.labeler == nil || p.sink == nil {
		return RunSummary{}, errors.New("pipeline is not fully configured")
	}

	started := p.now()
	runID := uuid.NewString()
	log := p.logger.With("run_id", runID)

	articles, err := p.source.ReadArticles(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("read dataset: %w", err)
	}
	log.Info("dataset loaded", "rows", len(articles))

	labeled, err := p.labeler.Run(ctx, articles)
	if err != nil {
		p.notifyFailure(ctx, runID, err)
		return RunSummary{}, fmt.Errorf("label dataset: %w", err)
	}

	if err := p.sink.WriteLabeled(ctx, labeled); err != nil {
		return RunSummary{}, fmt.Errorf("write labeled dataset: %w", err)
	}

	if p.repository != nil {
		stored := make([]domain.StoredArticle, len(labeled))
		for i, row := range labeled {
			stored[i] = domain.StoredArticle{
				RunID:    runID,
				Labeled:  row,
				Status:   statusOf(row),
				StoredAt: started,
			}
		}
		if err := p.repository.SaveLabeled(ctx, stored); err != nil {
			return RunSummary{}, fmt.Errorf("persist labeled rows: %w", err)
		}
	}

	summary := summarize(runID, labeled)
	summary.Duration = p.now().Sub(started)
	log.Info("labeling done",
		"rows", summary.Rows,
		"empty_text", summary.EmptyText,
		"unknown", summary.Unknown,
		"duration", summary.Duration)

	if p.notifier != nil {
		if err := p.notifier.PublishDigest(ctx, buildRunDigest(summary)); err != nil {
			log.Warn("publish run digest failed", "error", err)
		}
	}

	return summary, nil
}

func (p *Pipeline) notifyFailure(ctx context.Context, runID string, err error) {
	p.logger.Error("labeling aborted", "run_id", runID, "reason", describeFailure(err))
	if p.notifier == nil || ctx.Err() != nil {
		return
	}
	digest := fmt.Sprintf("Labeling run %s aborted\n%s", runID, describeFailure(err))
	if nerr := p.notifier.PublishDigest(ctx, digest); nerr != nil {
		p.logger.Warn("publish failure digest failed", "error", nerr)
	}
}

func statusOf(row domain.LabeledArticle) domain.LabelingStatus {
	if strings.TrimSpace(row.Article.Text) == "" {
		return domain.StatusEmptyText
	}
	return domain.StatusLabeled
}

func summarize(runID string, labeled []domain.LabeledArticle) RunSummary {
	summary := RunSummary{
		RunID:      runID,
		Rows:       len(labeled),
		Categories: map[domain.Category]int{},
		Regions:    map[string]int{},
	}
	for _, row := range labeled {
		if statusOf(row) == domain.StatusEmptyText {
			summary.EmptyText++
		}
		if row.Categories.Has(domain.CategoryUnknown) {
			summary.Unknown++
		}
		for c := range row.Categories {
			summary.Categories[c]++
		}
		summary.Regions[row.Region]++
	}
	return summary
}

func buildRunDigest(s RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Labeled %d articles (run %s)\n", s.Rows, s.RunID)
	fmt.Fprintf(&b, "Unknown: %d, empty text: %d\n", s.Unknown, s.EmptyText)

	b.WriteString("\nCategories:\n")
	for _, entry := range sortedCounts(categoryKeys(s.Categories)) {
		fmt.Fprintf(&b, "- %s: %d\n", entry.key, entry.count)
	}
	b.WriteString("\nRegions:\n")
	for _, entry := range sortedCounts(s.Regions) {
		fmt.Fprintf(&b, "- %s: %d\n", entry.key, entry.count)
	}
	return b.String()
}

type countEntry struct {
	key   string
	count int
}

func categoryKeys(m map[domain.Category]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// sortedCounts orders by count descending, then key.
func sortedCounts(m map[string]int) []countEntry {
	out := make([]countEntry, 0, len(m))
	for k, v := range m {
		out = append(out, countEntry{key: k, count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}
