package labeling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsLabeler/internal/domain"
)

func mustLexicon(t *testing.T, raw map[string][]string) Lexicon {
	t.Helper()
	lex, err := NewLexicon(raw)
	require.NoError(t, err)
	return lex
}

func TestNewLexiconFillsEveryLabel(t *testing.T) {
	t.Parallel()

	lex := mustLexicon(t, map[string][]string{"sports": {" Football ", ""}})
	entries := lex.Entries()

	require.Len(t, entries, len(domain.Labels()))
	for i, label := range domain.Labels() {
		assert.Equal(t, label, entries[i].Category)
	}
	assert.Equal(t, []string{"football"}, entries[3].Keywords)
	assert.Empty(t, entries[0].Keywords)
}

func TestNewLexiconRejectsUnknownCategories(t *testing.T) {
	t.Parallel()

	_, err := NewLexicon(map[string][]string{"Weather": {"rain"}})
	require.Error(t, err)

	_, err = NewLexicon(map[string][]string{"Unknown": {"x"}})
	require.Error(t, err)
}

func TestDetectSubstringMatch(t *testing.T) {
	t.Parallel()

	engine := NewKeywordEngine(mustLexicon(t, map[string][]string{"Sports": {"football"}}))
	got := engine.Detect("great football match")

	assert.True(t, got.Has(domain.CategorySports))
	assert.Equal(t, 1, got.Len())
}

func TestDetectIgnoresWordBoundaries(t *testing.T) {
	t.Parallel()

	engine := NewKeywordEngine(mustLexicon(t, DefaultKeywords()))
	got := engine.Detect("the minister said nothing")

	assert.True(t, got.Has(domain.CategoryTechnology), "\"ai\" matches inside \"said\"")
	assert.True(t, got.Has(domain.CategoryPolitics))
}

func TestDetectNoMatchIsEmpty(t *testing.T) {
	t.Parallel()

	engine := NewKeywordEngine(mustLexicon(t, map[string][]string{"Crime": {"arrest"}}))
	assert.Equal(t, 0, engine.Detect("quiet afternoon").Len())
	assert.Equal(t, 0, engine.Detect("").Len())
}

func TestDetectIsDeterministic(t *testing.T) {
	t.Parallel()

	engine := NewKeywordEngine(mustLexicon(t, DefaultKeywords()))
	inputs := []string{
		"team wins championship match",
		"central bank raises rates as inflation climbs",
		"nasa launches climate research satellite",
		"",
	}
	for _, in := range inputs {
		assert.Equal(t, engine.Detect(in), engine.Detect(in), in)
	}
}

func TestFuseThresholdIsStrict(t *testing.T) {
	t.Parallel()

	policy := NewFusionPolicy(0.4)

	atThreshold := policy.Fuse(domain.CategorySet{}, domain.ScoreResult{{Label: domain.CategoryTechnology, Score: 0.4}})
	assert.False(t, atThreshold.Has(domain.CategoryTechnology))

	above := policy.Fuse(domain.CategorySet{}, domain.ScoreResult{{Label: domain.CategoryTechnology, Score: 0.41}})
	assert.True(t, above.Has(domain.CategoryTechnology))
}

func TestFuseFallsBackToUnknown(t *testing.T) {
	t.Parallel()

	policy := NewFusionPolicy(DefaultThreshold)
	scores := domain.ScoreResult{
		{Label: domain.CategoryPolitics, Score: 0.1},
		{Label: domain.CategoryWorld, Score: 0.4},
	}

	got := policy.Fuse(domain.CategorySet{}, scores)
	assert.Equal(t, domain.NewCategorySet(domain.CategoryUnknown), got)

	got = policy.Fuse(nil, nil)
	assert.Equal(t, domain.NewCategorySet(domain.CategoryUnknown), got)
}

func TestFuseKeepsRuleLabelsRegardlessOfScore(t *testing.T) {
	t.Parallel()

	policy := NewFusionPolicy(DefaultThreshold)
	rules := domain.NewCategorySet(domain.CategoryCrime, domain.CategorySports)
	scores := domain.ScoreResult{
		{Label: domain.CategoryCrime, Score: 0.01},
		{Label: domain.CategorySports, Score: 0.95},
		{Label: domain.CategoryHealth, Score: 0.7},
	}

	got := policy.Fuse(rules, scores)
	assert.Equal(t, domain.NewCategorySet(domain.CategoryCrime, domain.CategorySports, domain.CategoryHealth), got)
	assert.False(t, got.Has(domain.CategoryUnknown))
	assert.Equal(t, "Sports, Health, Crime", got.String())
}

func TestFuseDoesNotMutateRuleLabels(t *testing.T) {
	t.Parallel()

	rules := domain.NewCategorySet(domain.CategoryCrime)
	NewFusionPolicy(0).Fuse(rules, domain.ScoreResult{{Label: domain.CategoryWorld, Score: 1}})
	assert.Equal(t, 1, rules.Len())
}

func TestRegionResolver(t *testing.T) {
	t.Parallel()

	resolver := NewRegionResolver(DefaultRegions())

	assert.Equal(t, "Europe", resolver.Resolve("The Guardian"))
	assert.Equal(t, "Asia", resolver.Resolve("Times of India"))
	assert.Equal(t, domain.RegionUnknown, resolver.Resolve("Unknown Outlet"))
	assert.Equal(t, domain.RegionUnknown, resolver.Resolve(""))
	assert.Equal(t, domain.RegionUnknown, resolver.Resolve("the guardian"), "lookup is exact")
}

func TestRegionResolverCopiesTable(t *testing.T) {
	t.Parallel()

	table := RegionTable{"Le Monde": "Europe"}
	resolver := NewRegionResolver(table)
	table["Le Monde"] = "Asia"

	assert.Equal(t, "Europe", resolver.Resolve("Le Monde"))
}
