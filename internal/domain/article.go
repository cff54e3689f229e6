package domain

import "time"

// Article is one input record read from the news dataset.
type Article struct {
	Index int
	// Line is the 1-based line in the source file (the header is line 1), 0 if unknown.
	Line        int
	Title       string
	Description string
	Source      string
	PublishedAt time.Time
	// Text is the normalized title+description used for labeling.
	Text string
	// Fields keeps every original cell keyed by column name.
	Fields map[string]string
}

// LabeledArticle augments an Article with its fused categories and region.
type LabeledArticle struct {
	Article    Article
	Categories CategorySet
	Region     string
}

// CategoryString serializes the category set for the output dataset.
func (l LabeledArticle) CategoryString() string {
	return l.Categories.String()
}

// LabelingStatus enumerates how a row left the labeling pipeline.
type LabelingStatus string

const (
	StatusEmptyText LabelingStatus = "empty_text"
	StatusLabeled   LabelingStatus = "labeled"
)

// StoredArticle is a labeled row persisted for audit together with its run.
type StoredArticle struct {
	RunID    string
	Labeled  LabeledArticle
	Status   LabelingStatus
	StoredAt time.Time
}
