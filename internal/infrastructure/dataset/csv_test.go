package dataset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsLabeler/internal/domain"
)

const sampleCSV = `title,description,source,publishedAt,url
Team wins championship match,,Times of India,2025-08-20T14:05:00Z,https://example.org/a
,,The Guardian,not a date,https://example.org/b
"Rates rise, again",<p>Central bank <b>acts</b></p>,Unknown Outlet,2025-08-21 09:00:00,https://example.org/c
`

func TestDecode(t *testing.T) {
	t.Parallel()

	table, err := Decode(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "description", "source", "publishedAt", "url"}, table.Columns)
	require.Len(t, table.Articles, 3)

	first := table.Articles[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "Team wins championship match", first.Text)
	assert.Equal(t, "Times of India", first.Source)
	assert.Equal(t, time.Date(2025, time.August, 20, 14, 5, 0, 0, time.UTC), first.PublishedAt)

	second := table.Articles[1]
	assert.Equal(t, "", second.Text)
	assert.True(t, second.PublishedAt.IsZero())

	third := table.Articles[2]
	assert.Equal(t, 2, third.Index)
	assert.Equal(t, 4, third.Line)
	assert.Equal(t, "Rates rise, again. Central bank acts", third.Text)
	assert.Equal(t, "https://example.org/c", third.Fields["url"])
	assert.Equal(t, 9, third.PublishedAt.Hour())
}

func TestDecodeKeepsSourceVerbatim(t *testing.T) {
	t.Parallel()

	table, err := Decode(strings.NewReader("title,description,source,publishedAt\na,b, The Guardian ,\n"))
	require.NoError(t, err)
	require.Len(t, table.Articles, 1)
	assert.Equal(t, " The Guardian ", table.Articles[0].Source)
}

func TestDecodeMissingColumn(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader("title,description,publishedAt\na,b,c\n"))

	var malformed *domain.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "source")
}

func TestDecodeRaggedRow(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader("title,description,source,publishedAt\na,b,c\n"))

	var malformed *domain.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Row)
}

func TestDecodeEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader(""))

	var malformed *domain.MalformedInputError
	require.ErrorAs(t, err, &malformed)
}

func TestEncodeAndDecodeLabeled(t *testing.T) {
	t.Parallel()

	table, err := Decode(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	labeled := []domain.LabeledArticle{
		{Article: table.Articles[0], Categories: domain.NewCategorySet(domain.CategorySports, domain.CategoryWorld), Region: "Asia"},
		{Article: table.Articles[1], Categories: domain.NewCategorySet(domain.CategoryUnknown), Region: "Europe"},
		{Article: table.Articles[2], Categories: domain.NewCategorySet(domain.CategoryEconomy), Region: domain.RegionUnknown},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, table.Columns, labeled))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "title,description,source,publishedAt,url,text,category,region", lines[0])
	assert.Equal(t, `Team wins championship match,,Times of India,2025-08-20T14:05:00Z,https://example.org/a,Team wins championship match,"Sports, World",Asia`, lines[1])

	decoded, err := DecodeLabeled(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.Equal(t, labeled[0].Categories, decoded[0].Categories)
	assert.Equal(t, "Unknown", decoded[1].CategoryString())
	assert.Equal(t, domain.RegionUnknown, decoded[2].Region)
	assert.Equal(t, "Rates rise, again. Central bank acts", decoded[2].Article.Text)
}

func TestEncodeReplacesDerivedInputColumns(t *testing.T) {
	t.Parallel()

	article := domain.Article{Text: "fresh", Fields: map[string]string{"title": "t", "category": "stale"}}
	labeled := []domain.LabeledArticle{{Article: article, Categories: domain.NewCategorySet(domain.CategoryCrime), Region: "Asia"}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []string{"title", "category"}, labeled))
	assert.Equal(t, "title,text,category,region\nt,fresh,Crime,Asia\n", buf.String())
}

func TestDecodeLabeledRequiresLabelColumns(t *testing.T) {
	t.Parallel()

	_, err := DecodeLabeled(strings.NewReader(sampleCSV))

	var malformed *domain.MalformedInputError
	require.ErrorAs(t, err, &malformed)
}

func TestCSVSourceAndSink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "news.csv")
	out := filepath.Join(dir, "labeled_news.csv")
	require.NoError(t, os.WriteFile(in, []byte(sampleCSV), 0o600))

	ctx := context.Background()
	source := NewCSVSource(in)
	articles, err := source.ReadArticles(ctx)
	require.NoError(t, err)

	labeled := make([]domain.LabeledArticle, len(articles))
	for i, a := range articles {
		labeled[i] = domain.LabeledArticle{Article: a, Categories: domain.NewCategorySet(domain.CategoryUnknown), Region: domain.RegionUnknown}
	}

	sink := NewCSVSink(out, source.Columns())
	require.NoError(t, sink.WriteLabeled(ctx, labeled))

	_, err = os.Stat(out + ".tmp")
	assert.True(t, os.IsNotExist(err))

	roundTrip, err := NewCSVSource(out).ReadLabeled(ctx)
	require.NoError(t, err)
	assert.Len(t, roundTrip, 3)
}
