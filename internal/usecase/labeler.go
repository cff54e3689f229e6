package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/labeling"
	"NewsLabeler/internal/logging"
	"NewsLabeler/internal/ports"
)

// LabelerDeps wires the decision components into the batch labeler.
type LabelerDeps struct {
	Engine        *labeling.KeywordEngine
	Oracle        ports.ScoreOracle
	Policy        labeling.FusionPolicy
	Regions       *labeling.RegionResolver
	Labels        []domain.Category
	Workers       int
	ProgressEvery int
	Logger        *slog.Logger
}

// Labeler runs rule scan, zero-shot scoring, fusion and region lookup over a batch.
type Labeler struct {
	engine        *labeling.KeywordEngine
	oracle        ports.ScoreOracle
	policy        labeling.FusionPolicy
	regions       *labeling.RegionResolver
	labels        []domain.Category
	workers       int
	progressEvery int
	logger        *slog.Logger
}

// NewLabeler constructs the batch labeler. Labels default to the full label space.
func NewLabeler(deps LabelerDeps) *Labeler {
	labels := deps.Labels
	if len(labels) == 0 {
		labels = domain.Labels()
	}
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Labeler{
		engine:        deps.Engine,
		oracle:        deps.Oracle,
		policy:        deps.Policy,
		regions:       deps.Regions,
		labels:        labels,
		workers:       workers,
		progressEvery: deps.ProgressEvery,
		logger:        logger,
	}
}

// Run labels every article and returns results in input order.
// The first classifier failure or a cancelled context aborts the batch and no rows are returned.
func (l *Labeler) Run(ctx context.Context, articles []domain.Article) ([]domain.LabeledArticle, error) {
	if l.engine == nil || l.oracle == nil || l.regions == nil {
		return nil, errors.New("labeler is not fully configured")
	}

	results := make([]domain.LabeledArticle, len(articles))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i := range articles {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			labeled, err := l.Label(gctx, articles[i])
			if err != nil {
				return err
			}
			results[i] = labeled

			n := done.Add(1)
			if l.progressEvery > 0 && n%int64(l.progressEvery) == 0 {
				l.logger.Info("labeling progress", "done", n, "total", len(articles))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Debug("batch labeled", "rows", len(results))
	return results, nil
}

// Label takes one article through the per-row state machine.
func (l *Labeler) Label(ctx context.Context, article domain.Article) (domain.LabeledArticle, error) {
	categories, err := l.categorize(ctx, article)
	if err != nil {
		return domain.LabeledArticle{}, err
	}
	return domain.LabeledArticle{
		Article:    article,
		Categories: categories,
		Region:     l.regions.Resolve(article.Source),
	}, nil
}

func (l *Labeler) categorize(ctx context.Context, article domain.Article) (domain.CategorySet, error) {
	if strings.TrimSpace(article.Text) == "" {
		return domain.NewCategorySet(domain.CategoryUnknown), nil
	}

	ruleLabels := l.engine.Detect(strings.ToLower(article.Text))

	scores, err := l.oracle.Score(ctx, article.Text, l.labels)
	if err == nil {
		err = scores.Validate(l.labels)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.ClassifierUnavailableError{
			Row:    article.Line,
			Oracle: l.oracle.Name(),
			Err:    err,
		}
	}

	categories := l.policy.Fuse(ruleLabels, scores)
	l.logger.Debug("row labeled",
		"row", article.Index,
		"rules", ruleLabels.String(),
		"categories", categories.String())
	return categories, nil
}

// describeFailure renders a batch error for digests and logs.
func describeFailure(err error) string {
	var unavailable *domain.ClassifierUnavailableError
	if errors.As(err, &unavailable) {
		return fmt.Sprintf("line %d: classifier %s failed: %v", unavailable.Row, unavailable.Oracle, unavailable.Err)
	}
	return err.Error()
}
