package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"NewsLabeler/internal/analysis"
	"NewsLabeler/internal/logging"
	"NewsLabeler/internal/ports"
)

// AnalysisDeps wires the statistics stage.
type AnalysisDeps struct {
	Source   ports.LabeledSource
	Writer   ports.ReportWriter
	Notifier ports.Notifier
	Logger   *slog.Logger
	Options  analysis.Options
}

// AnalysisPipeline computes text statistics over a labeled dataset.
type AnalysisPipeline struct {
	source   ports.LabeledSource
	writer   ports.ReportWriter
	notifier ports.Notifier
	logger   *slog.Logger
	options  analysis.Options
}

// NewAnalysisPipeline constructs the analysis stage.
func NewAnalysisPipeline(deps AnalysisDeps) *AnalysisPipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &AnalysisPipeline{
		source:   deps.Source,
		writer:   deps.Writer,
		notifier: deps.Notifier,
		logger:   logger,
		options:  deps.Options,
	}
}

// Analyze reads the labeled rows, builds the report and writes it.
func (a *AnalysisPipeline) Analyze(ctx context.Context) (analysis.Report, error) {
	if a.source == nil || a.writer == nil {
		return analysis.Report{}, errors.New("analysis is not fully configured")
	}

	labeled, err := a.source.ReadLabeled(ctx)
	if err != nil {
		return analysis.Report{}, fmt.Errorf("read labeled dataset: %w", err)
	}

	report := analysis.Build(labeled, a.options)
	if err := a.writer.WriteReport(ctx, report); err != nil {
		return analysis.Report{}, fmt.Errorf("write report: %w", err)
	}

	a.logger.Info("analysis done",
		"rows", report.Rows,
		"regions", len(report.RegionDistribution),
		"rows_without_time", report.RowsWithoutTime)

	if a.notifier != nil {
		if err := a.notifier.PublishDigest(ctx, buildAnalysisDigest(report)); err != nil {
			a.logger.Warn("publish analysis digest failed", "error", err)
		}
	}
	return report, nil
}

func buildAnalysisDigest(r analysis.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %d labeled articles\n", r.Rows)

	if len(r.TopWords) > 0 {
		terms := make([]string, 0, len(r.TopWords))
		for _, tc := range r.TopWords {
			terms = append(terms, tc.Term)
			if len(terms) == 5 {
				break
			}
		}
		fmt.Fprintf(&b, "Top words: %s\n", strings.Join(terms, ", "))
	}

	b.WriteString("\nCategories:\n")
	for _, entry := range sortedCounts(r.LabelDistribution) {
		fmt.Fprintf(&b, "- %s: %d\n", entry.key, entry.count)
	}
	b.WriteString("\nRegions:\n")
	for _, region := range r.Regions() {
		fmt.Fprintf(&b, "- %s: %d\n", region, r.RegionDistribution[region])
	}
	return b.String()
}
