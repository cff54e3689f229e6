package ml

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/ports"
)

// DefaultLocalModel is the NLI model used for in-process zero-shot scoring.
const DefaultLocalModel = "facebook/bart-large-mnli"

// LocalOptions configures the in-process classifier.
type LocalOptions struct {
	ModelName          string
	ModelDir           string
	HypothesisTemplate string
	Labels             []domain.Category
	Logger             *slog.Logger
}

// LocalClassifier runs zero-shot classification in-process with hugot.
// Labels and template are fixed when the pipeline is built.
type LocalClassifier struct {
	session  *hugot.Session
	pipeline *pipelines.ZeroShotClassificationPipeline
	labels   []domain.Category
	mu       sync.Mutex
}

var _ ports.ScoreOracle = (*LocalClassifier)(nil)

// NewLocalClassifier downloads the model on first use and builds the pipeline.
func NewLocalClassifier(opts LocalOptions) (*LocalClassifier, error) {
	if len(opts.Labels) == 0 {
		return nil, errors.New("local classifier needs labels")
	}
	modelName := opts.ModelName
	if modelName == "" {
		modelName = DefaultLocalModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	modelPath, err := ensureModel(modelName, opts.ModelDir, logger)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("init hugot session: %w", err)
	}

	names := make([]string, len(opts.Labels))
	for i, l := range opts.Labels {
		names[i] = string(l)
	}

	config := hugot.ZeroShotClassificationConfig{
		ModelPath: modelPath,
		Name:      "newsZeroShot",
	}
	config.Options = append(config.Options,
		pipelines.WithLabels(names),
		pipelines.WithMultilabel(true),
	)
	if opts.HypothesisTemplate != "" {
		config.Options = append(config.Options, pipelines.WithHypothesisTemplate(opts.HypothesisTemplate))
	}

	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("init zero-shot pipeline: %w", err)
	}

	logger.Info("local zero-shot classifier ready", "model", modelName, "path", modelPath)
	return &LocalClassifier{
		session:  session,
		pipeline: pipeline,
		labels:   append([]domain.Category(nil), opts.Labels...),
	}, nil
}

func ensureModel(modelName, modelDir string, logger *slog.Logger) (string, error) {
	if modelDir == "" {
		modelDir = "./models"
	}
	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	local := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(local); err == nil {
		logger.Info("using existing model", "path", local)
		return local, nil
	}

	logger.Info("model not found, downloading", "model", modelName)
	path, err := hugot.DownloadModel(modelName, modelDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", modelName, err)
	}
	return path, nil
}

// Name identifies the backend in errors and logs.
func (l *LocalClassifier) Name() string {
	return "hugot"
}

// Score runs the pipeline for one text. Inference is serialized on the shared session.
func (l *LocalClassifier) Score(ctx context.Context, text string, labels []domain.Category) (domain.ScoreResult, error) {
	if err := sameLabels(l.labels, labels); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	output, err := l.pipeline.RunPipeline([]string{text})
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run zero-shot pipeline: %w", err)
	}
	if len(output.ClassificationOutputs) == 0 {
		return nil, errors.New("zero-shot pipeline returned no output")
	}

	sorted := output.ClassificationOutputs[0].SortedValues
	names := make([]string, len(sorted))
	scores := make([]float64, len(sorted))
	for i, kv := range sorted {
		names[i] = kv.Key
		scores[i] = kv.Value
	}

	result, err := toScoreResult(names, scores)
	if err != nil {
		return nil, err
	}
	return inLabelOrder(result, labels), nil
}

// Close releases the hugot session.
func (l *LocalClassifier) Close() error {
	if l.session == nil {
		return nil
	}
	return l.session.Destroy()
}

func sameLabels(configured, requested []domain.Category) error {
	if len(configured) != len(requested) {
		return fmt.Errorf("pipeline built for %d labels, asked for %d", len(configured), len(requested))
	}
	for i := range configured {
		if configured[i] != requested[i] {
			return fmt.Errorf("pipeline label %d is %s, asked for %s", i, configured[i], requested[i])
		}
	}
	return nil
}

// inLabelOrder reorders a score-sorted result to the queried label order.
func inLabelOrder(result domain.ScoreResult, labels []domain.Category) domain.ScoreResult {
	ordered := make(domain.ScoreResult, 0, len(result))
	for _, label := range labels {
		if score, ok := result.Score(label); ok {
			ordered = append(ordered, domain.LabelScore{Label: label, Score: score})
		}
	}
	return ordered
}
