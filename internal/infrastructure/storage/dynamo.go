package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"NewsLabeler/internal/config"
	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/logging"
	"NewsLabeler/internal/ports"
)

const maxBatchSize = 25

// BatchWriter is the part of the DynamoDB client the repository needs.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// dynamoItem is the attribute layout of one stored row.
type dynamoItem struct {
	RunID       string `dynamodbav:"run_id"`
	RowIndex    int    `dynamodbav:"row_index"`
	Title       string `dynamodbav:"title"`
	Source      string `dynamodbav:"source"`
	PublishedAt string `dynamodbav:"published_at,omitempty"`
	Text        string `dynamodbav:"text"`
	Category    string `dynamodbav:"category"`
	Region      string `dynamodbav:"region"`
	Status      string `dynamodbav:"status"`
	StoredAt    int64  `dynamodbav:"stored_at"`
}

// DynamoRepository writes labeled rows to a DynamoDB table keyed by (run_id, row_index).
type DynamoRepository struct {
	client  BatchWriter
	table   string
	retries int
	backoff time.Duration
	logger  *slog.Logger
}

var _ ports.ArticleRepository = (*DynamoRepository)(nil)

// NewDynamoClient builds a client from the default AWS chain, honoring a
// custom endpoint (e.g. DynamoDB Local).
func NewDynamoClient(ctx context.Context, cfg config.StorageConfig) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewDynamoRepository targets table.
func NewDynamoRepository(client BatchWriter, table string, logger *slog.Logger) *DynamoRepository {
	if logger == nil {
		logger = logging.Discard()
	}
	return &DynamoRepository{
		client:  client,
		table:   table,
		retries: 3,
		backoff: 500 * time.Millisecond,
		logger:  logger,
	}
}

// SaveLabeled writes rows in batches of 25, retrying unprocessed items with backoff.
func (r *DynamoRepository) SaveLabeled(ctx context.Context, articles []domain.StoredArticle) error {
	for start := 0; start < len(articles); start += maxBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+maxBatchSize, len(articles))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, a := range articles[start:end] {
			item, err := attributevalue.MarshalMap(toItem(a))
			if err != nil {
				return fmt.Errorf("marshal row %d: %w", a.Labeled.Article.Index, err)
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}

		if err := r.writeBatch(ctx, map[string][]types.WriteRequest{r.table: requests}); err != nil {
			return err
		}
	}
	return nil
}

func (r *DynamoRepository) writeBatch(ctx context.Context, pending map[string][]types.WriteRequest) error {
	backoff := r.backoff
	for attempt := 0; ; attempt++ {
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("batch write: %w", err)
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		if attempt >= r.retries {
			return fmt.Errorf("batch write: %d items unprocessed after %d retries",
				len(out.UnprocessedItems[r.table]), r.retries)
		}

		r.logger.Warn("retrying unprocessed items",
			"attempt", attempt+1,
			"remaining", len(out.UnprocessedItems[r.table]))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		pending = out.UnprocessedItems
	}
}

func toItem(a domain.StoredArticle) dynamoItem {
	item := dynamoItem{
		RunID:    a.RunID,
		RowIndex: a.Labeled.Article.Index,
		Title:    a.Labeled.Article.Title,
		Source:   a.Labeled.Article.Source,
		Text:     a.Labeled.Article.Text,
		Category: a.Labeled.CategoryString(),
		Region:   a.Labeled.Region,
		Status:   string(a.Status),
		StoredAt: a.StoredAt.Unix(),
	}
	if !a.Labeled.Article.PublishedAt.IsZero() {
		item.PublishedAt = a.Labeled.Article.PublishedAt.UTC().Format(time.RFC3339)
	}
	return item
}
