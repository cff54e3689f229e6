package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsLabeler/internal/domain"
)

type memorySource struct {
	articles []domain.Article
	err      error
}

func (s *memorySource) ReadArticles(context.Context) ([]domain.Article, error) {
	return s.articles, s.err
}

type memorySink struct {
	written []domain.LabeledArticle
	calls   int
}

func (s *memorySink) WriteLabeled(_ context.Context, articles []domain.LabeledArticle) error {
	s.calls++
	s.written = articles
	return nil
}

type memoryRepository struct {
	saved []domain.StoredArticle
	err   error
}

func (r *memoryRepository) SaveLabeled(_ context.Context, articles []domain.StoredArticle) error {
	r.saved = append(r.saved, articles...)
	return r.err
}

type recordingNotifier struct {
	digests []string
	err     error
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return n.err
}

func sampleArticles() []domain.Article {
	return []domain.Article{
		{Index: 0, Line: 2, Source: "Times of India", Text: "India clinches the cricket tournament."},
		{Index: 1, Line: 3, Source: "The Guardian", Text: ""},
		{Index: 2, Line: 4, Source: "Unlisted Blog", Text: "Quiet morning"},
	}
}

func TestProcessDatasetWritesPersistsAndNotifies(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	repo := &memoryRepository{}
	notifier := &recordingNotifier{}
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	pipeline := NewPipeline(PipelineDeps{
		Source:     &memorySource{articles: sampleArticles()},
		Labeler:    newTestLabeler(t, &stubOracle{uniform: 0.1}, 2),
		Sink:       sink,
		Repository: repo,
		Notifier:   notifier,
		Now:        func() time.Time { return fixed },
	})

	summary, err := pipeline.ProcessDataset(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 1, summary.EmptyText)
	assert.Equal(t, 2, summary.Unknown)
	assert.Equal(t, 1, summary.Categories[domain.CategorySports])
	assert.Equal(t, 1, summary.Regions["Asia"])

	require.Equal(t, 1, sink.calls)
	require.Len(t, sink.written, 3)
	assert.Equal(t, "Sports", sink.written[0].CategoryString())

	require.Len(t, repo.saved, 3)
	for _, stored := range repo.saved {
		assert.Equal(t, summary.RunID, stored.RunID)
		assert.Equal(t, fixed, stored.StoredAt)
	}
	assert.Equal(t, domain.StatusLabeled, repo.saved[0].Status)
	assert.Equal(t, domain.StatusEmptyText, repo.saved[1].Status)

	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "Labeled 3 articles")
	assert.Contains(t, notifier.digests[0], "- Unknown: 2")
}

func TestProcessDatasetWritesNothingOnClassifierFailure(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	repo := &memoryRepository{}
	notifier := &recordingNotifier{}
	oracle := &stubOracle{failOn: "Quiet morning", err: errors.New("503")}

	pipeline := NewPipeline(PipelineDeps{
		Source:     &memorySource{articles: sampleArticles()},
		Labeler:    newTestLabeler(t, oracle, 1),
		Sink:       sink,
		Repository: repo,
		Notifier:   notifier,
	})

	_, err := pipeline.ProcessDataset(context.Background())
	var unavailable *domain.ClassifierUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 4, unavailable.Row)

	assert.Zero(t, sink.calls)
	assert.Empty(t, repo.saved)
	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "aborted")
	assert.Contains(t, notifier.digests[0], "line 4")
}

func TestProcessDatasetSourceError(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	pipeline := NewPipeline(PipelineDeps{
		Source:  &memorySource{err: &domain.MalformedInputError{Reason: "missing column source"}},
		Labeler: newTestLabeler(t, &stubOracle{}, 1),
		Sink:    sink,
	})

	_, err := pipeline.ProcessDataset(context.Background())
	var malformed *domain.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Zero(t, sink.calls)
}

func TestProcessDatasetNotifierFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	pipeline := NewPipeline(PipelineDeps{
		Source:   &memorySource{articles: sampleArticles()},
		Labeler:  newTestLabeler(t, &stubOracle{}, 1),
		Sink:     &memorySink{},
		Notifier: &recordingNotifier{err: errors.New("telegram down")},
	})

	_, err := pipeline.ProcessDataset(context.Background())
	require.NoError(t, err)
}

func TestProcessDatasetRepositoryFailure(t *testing.T) {
	t.Parallel()

	pipeline := NewPipeline(PipelineDeps{
		Source:     &memorySource{articles: sampleArticles()},
		Labeler:    newTestLabeler(t, &stubOracle{}, 1),
		Sink:       &memorySink{},
		Repository: &memoryRepository{err: errors.New("disk full")},
	})

	_, err := pipeline.ProcessDataset(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist labeled rows")
}

func TestProcessDatasetRequiresWiring(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(PipelineDeps{}).ProcessDataset(context.Background())
	require.Error(t, err)
}

func TestSortedCountsTiesByKey(t *testing.T) {
	t.Parallel()

	got := sortedCounts(map[string]int{"b": 2, "a": 2, "c": 5})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].key, got[1].key, got[2].key})
}
