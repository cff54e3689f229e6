// Package app wires configuration to the labeling and analysis use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"NewsLabeler/internal/analysis"
	"NewsLabeler/internal/config"
	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/infrastructure/cache"
	"NewsLabeler/internal/infrastructure/dataset"
	"NewsLabeler/internal/infrastructure/llm"
	"NewsLabeler/internal/infrastructure/ml"
	"NewsLabeler/internal/infrastructure/storage"
	"NewsLabeler/internal/infrastructure/telegram"
	"NewsLabeler/internal/labeling"
	"NewsLabeler/internal/logging"
	"NewsLabeler/internal/oracle"
	"NewsLabeler/internal/ports"
	"NewsLabeler/internal/usecase"
)

// Application wires configs to use cases and owns their resources.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	labeler    *usecase.Labeler
	repository ports.ArticleRepository
	runs       *storage.SQLRepository
	notifier   ports.Notifier
	closers    []func() error
}

// New builds the application. Backends are only contacted by Label, so an
// analysis-only run never needs classifier credentials.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	n := telegram.NewNotifier(cfg.Notifications.Telegram)
	if n.Enabled() {
		a.notifier = n
	}
	return a
}

// Registry returns the classifier backends known to the application.
func Registry() *oracle.Registry {
	registry := oracle.NewRegistry()
	registry.Register(config.BackendHTTP, func(cfg config.Config, logger *slog.Logger) (ports.ScoreOracle, error) {
		if cfg.Classifier.Endpoint == "" {
			return nil, errors.New("classifier endpoint is empty")
		}
		return ml.NewClient(ml.ClientOptions{
			Endpoint:           cfg.Classifier.Endpoint,
			APIKey:             cfg.Classifier.APIKey,
			HypothesisTemplate: cfg.Labeling.HypothesisTemplate,
			Timeout:            cfg.Classifier.Timeout,
			MaxRetries:         cfg.Classifier.MaxRetries,
			Logger:             logger,
		}), nil
	})
	registry.Register(config.BackendLocal, func(cfg config.Config, logger *slog.Logger) (ports.ScoreOracle, error) {
		return ml.NewLocalClassifier(ml.LocalOptions{
			ModelName:          cfg.Classifier.ModelName,
			ModelDir:           cfg.Classifier.ModelDir,
			HypothesisTemplate: cfg.Labeling.HypothesisTemplate,
			Labels:             domain.Labels(),
			Logger:             logger,
		})
	})
	registry.Register(config.BackendChatGPT, func(cfg config.Config, _ *slog.Logger) (ports.ScoreOracle, error) {
		if cfg.ChatGPT.APIKey == "" {
			return nil, errors.New("chatgpt api key is empty")
		}
		return llm.NewChatGPTClient(cfg.ChatGPT, cfg.Labeling.HypothesisTemplate), nil
	})
	return registry
}

// Label reads input, labels every row and writes output.
func (a *Application) Label(ctx context.Context, input, output string) (usecase.RunSummary, error) {
	if err := a.initLabeling(ctx); err != nil {
		return usecase.RunSummary{}, err
	}

	source := dataset.NewCSVSource(input)
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Labeler:    a.labeler,
		Sink:       &echoColumnsSink{source: source, path: output},
		Repository: a.repository,
		Notifier:   a.notifier,
		Logger:     a.logger.With("component", "pipeline"),
	})
	return pipeline.ProcessDataset(ctx)
}

// Analyze builds the statistics report of a labeled dataset.
func (a *Application) Analyze(ctx context.Context, input, report string) (analysis.Report, error) {
	pipeline := usecase.NewAnalysisPipeline(usecase.AnalysisDeps{
		Source:   dataset.NewCSVSource(input),
		Writer:   dataset.NewJSONReportWriter(report),
		Notifier: a.notifier,
		Logger:   a.logger.With("component", "analysis"),
		Options: analysis.Options{
			TopWords:       a.cfg.Analysis.TopWords,
			TopTFIDF:       a.cfg.Analysis.TopTFIDF,
			RegionTopWords: a.cfg.Analysis.RegionTopWords,
		},
	})
	return pipeline.Analyze(ctx)
}

// Audit returns the rows a labeling run persisted. Only the sqlite store
// can be read back.
func (a *Application) Audit(ctx context.Context, runID string) ([]domain.StoredArticle, error) {
	if a.cfg.Storage.Driver != config.StorageSQLite {
		return nil, fmt.Errorf("audit needs the %s storage driver, configured %q", config.StorageSQLite, a.cfg.Storage.Driver)
	}
	if err := a.initRepository(ctx); err != nil {
		return nil, err
	}
	rows, err := a.runs.LoadRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return rows, nil
}

// Close releases classifier sessions, caches and database handles.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) initLabeling(ctx context.Context) error {
	if a.labeler != nil {
		return nil
	}
	cfg := a.cfg

	keywords := cfg.Labeling.Keywords
	if len(keywords) == 0 {
		keywords = labeling.DefaultKeywords()
	}
	lexicon, err := labeling.NewLexicon(keywords)
	if err != nil {
		return fmt.Errorf("keyword lexicon: %w", err)
	}
	for _, entry := range lexicon.Entries() {
		if len(entry.Keywords) == 0 {
			a.logger.Warn("category has no keywords, only the classifier can select it", "category", entry.Category)
		}
	}

	regions := labeling.DefaultRegions()
	if len(cfg.Labeling.Regions) > 0 {
		regions = labeling.RegionTable(cfg.Labeling.Regions)
	}

	scorer, err := Registry().Build(cfg.Classifier.Backend, cfg, a.logger.With("component", "classifier"))
	if err != nil {
		return err
	}
	a.track(scorer)

	if cfg.Cache.Address != "" {
		store, err := cache.NewValkeyStore(ctx, cfg.Cache)
		if err != nil {
			a.logger.Warn("score cache disabled", "error", err)
		} else {
			a.closers = append(a.closers, func() error { store.Close(); return nil })
			scorer = cache.NewScoreCache(scorer, store, cfg.Labeling.HypothesisTemplate, cfg.Cache.TTL,
				a.logger.With("component", "cache"))
		}
	}

	if err := a.initRepository(ctx); err != nil {
		return err
	}

	a.labeler = usecase.NewLabeler(usecase.LabelerDeps{
		Engine:        labeling.NewKeywordEngine(lexicon),
		Oracle:        scorer,
		Policy:        labeling.NewFusionPolicy(cfg.Labeling.ZeroShotThreshold),
		Regions:       labeling.NewRegionResolver(regions),
		Workers:       cfg.Labeling.Workers,
		ProgressEvery: cfg.Labeling.ProgressEvery,
		Logger:        a.logger.With("component", "labeler"),
	})
	return nil
}

func (a *Application) initRepository(ctx context.Context) error {
	if a.repository != nil {
		return nil
	}
	switch a.cfg.Storage.Driver {
	case config.StorageSQLite:
		db, err := storage.OpenSQLite(ctx, a.cfg.Storage.DSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)
		a.runs = storage.NewSQLRepository(db)
		a.repository = a.runs
	case config.StorageDynamoDB:
		client, err := storage.NewDynamoClient(ctx, a.cfg.Storage)
		if err != nil {
			return err
		}
		a.repository = storage.NewDynamoRepository(client, a.cfg.Storage.Table,
			a.logger.With("component", "dynamodb"))
	}
	return nil
}

func (a *Application) track(v any) {
	if c, ok := v.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
}

// echoColumnsSink writes with the header of the dataset the source last read.
type echoColumnsSink struct {
	source *dataset.CSVSource
	path   string
}

func (s *echoColumnsSink) WriteLabeled(ctx context.Context, articles []domain.LabeledArticle) error {
	return dataset.NewCSVSink(s.path, s.source.Columns()).WriteLabeled(ctx, articles)
}
