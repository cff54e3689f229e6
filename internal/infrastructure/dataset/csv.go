// Package dataset reads and writes the article datasets as CSV.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/infrastructure/parser"
	"NewsLabeler/internal/ports"
)

// Column names of the input and output datasets.
const (
	ColumnTitle       = "title"
	ColumnDescription = "description"
	ColumnSource      = "source"
	ColumnPublishedAt = "publishedAt"
	ColumnText        = "text"
	ColumnCategory    = "category"
	ColumnRegion      = "region"
)

var requiredColumns = []string{ColumnTitle, ColumnDescription, ColumnSource, ColumnPublishedAt}

var derivedColumns = map[string]bool{ColumnText: true, ColumnCategory: true, ColumnRegion: true}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Table is a decoded dataset with its header.
type Table struct {
	Columns  []string
	Articles []domain.Article
}

// Decode parses a CSV stream into articles, deriving the labeling text of each row.
// A missing required column or a ragged row is a MalformedInputError.
func Decode(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.MalformedInputError{Reason: "empty dataset, header row missing"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		columns[i] = name
		index[name] = i
	}
	for _, required := range requiredColumns {
		if _, ok := index[required]; !ok {
			return nil, &domain.MalformedInputError{Reason: fmt.Sprintf("required column %q missing", required)}
		}
	}

	table := &Table{Columns: columns}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.MalformedInputError{Row: line, Reason: err.Error()}
		}
		if len(record) != len(columns) {
			return nil, &domain.MalformedInputError{
				Row:    line,
				Reason: fmt.Sprintf("expected %d fields, got %d", len(columns), len(record)),
			}
		}

		fields := make(map[string]string, len(columns))
		for i, name := range columns {
			fields[name] = record[i]
		}

		article := domain.Article{
			Index:       len(table.Articles),
			Line:        line,
			Title:       fields[ColumnTitle],
			Description: fields[ColumnDescription],
			Source:      fields[ColumnSource],
			PublishedAt: ParseTimestamp(fields[ColumnPublishedAt]),
			Fields:      fields,
		}
		article.Text = parser.ComposeText(article.Title, article.Description)
		table.Articles = append(table.Articles, article)
	}

	return table, nil
}

// ParseTimestamp accepts the layouts news APIs emit; unparsable values yield the zero time.
func ParseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// Encode writes labeled articles: input columns first, then text, category and region.
func Encode(w io.Writer, columns []string, articles []domain.LabeledArticle) error {
	header := make([]string, 0, len(columns)+len(derivedColumns))
	for _, name := range columns {
		if !derivedColumns[name] {
			header = append(header, name)
		}
	}
	inputColumns := len(header)
	header = append(header, ColumnText, ColumnCategory, ColumnRegion)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for _, labeled := range articles {
		for i, name := range header[:inputColumns] {
			record[i] = labeled.Article.Fields[name]
		}
		record[inputColumns] = labeled.Article.Text
		record[inputColumns+1] = labeled.CategoryString()
		record[inputColumns+2] = labeled.Region
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", labeled.Article.Index, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// DecodeLabeled parses an enriched dataset produced by Encode.
func DecodeLabeled(r io.Reader) ([]domain.LabeledArticle, error) {
	table, err := Decode(r)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{ColumnCategory, ColumnRegion} {
		if !contains(table.Columns, name) {
			return nil, &domain.MalformedInputError{Reason: fmt.Sprintf("labeled column %q missing", name)}
		}
	}

	labeled := make([]domain.LabeledArticle, len(table.Articles))
	for i, article := range table.Articles {
		if text, ok := article.Fields[ColumnText]; ok && strings.TrimSpace(text) != "" {
			article.Text = text
		}
		region := strings.TrimSpace(article.Fields[ColumnRegion])
		if region == "" {
			region = domain.RegionUnknown
		}
		labeled[i] = domain.LabeledArticle{
			Article:    article,
			Categories: domain.ParseCategorySet(article.Fields[ColumnCategory]),
			Region:     region,
		}
	}
	return labeled, nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// CSVSource reads the input dataset from a file.
type CSVSource struct {
	path    string
	columns []string
}

var _ ports.ArticleSource = (*CSVSource)(nil)
var _ ports.LabeledSource = (*CSVSource)(nil)

// NewCSVSource points at a CSV file.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Columns returns the header seen by the last ReadArticles call.
func (s *CSVSource) Columns() []string {
	return append([]string(nil), s.columns...)
}

// ReadArticles decodes the file into articles.
func (s *CSVSource) ReadArticles(ctx context.Context) ([]domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	table, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	s.columns = table.Columns
	return table.Articles, nil
}

// ReadLabeled decodes an enriched file.
func (s *CSVSource) ReadLabeled(ctx context.Context) ([]domain.LabeledArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	labeled, err := DecodeLabeled(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return labeled, nil
}

// CSVSink writes the enriched dataset to a file.
type CSVSink struct {
	path    string
	columns []string
}

var _ ports.LabeledSink = (*CSVSink)(nil)

// NewCSVSink writes to path, echoing the input columns in order.
func NewCSVSink(path string, columns []string) *CSVSink {
	return &CSVSink{path: path, columns: columns}
}

// WriteLabeled writes to a temp file and renames it, so readers never see a partial dataset.
func (s *CSVSink) WriteLabeled(ctx context.Context, articles []domain.LabeledArticle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	columns := s.columns
	if len(columns) == 0 {
		columns = requiredColumns
	}

	if err := Encode(f, columns, articles); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode output: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("publish output: %w", err)
	}
	return nil
}
