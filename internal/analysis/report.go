package analysis

import (
	"sort"

	"NewsLabeler/internal/domain"
)

// Options sizes the term rankings of a Report.
type Options struct {
	TopWords       int
	TopTFIDF       int
	RegionTopWords int
}

// DefaultOptions mirrors the stock analysis settings.
func DefaultOptions() Options {
	return Options{TopWords: 20, TopTFIDF: 20, RegionTopWords: 10}
}

// Report aggregates text statistics over a labeled dataset.
type Report struct {
	Rows                 int                    `json:"rows"`
	TopWords             []TermCount            `json:"top_words"`
	TFIDF                []TermScore            `json:"tfidf"`
	RegionTopWords       map[string][]TermCount `json:"region_top_words"`
	CategoryDistribution map[string]int         `json:"category_distribution"`
	LabelDistribution    map[string]int         `json:"label_distribution"`
	RegionDistribution   map[string]int         `json:"region_distribution"`
	HourRegion           map[string][24]int     `json:"hour_region"`
	RowsWithoutTime      int                    `json:"rows_without_time"`
}

// Build computes the report. Rows without a publication time are left out
// of the hour histogram only.
func Build(labeled []domain.LabeledArticle, opts Options) Report {
	report := Report{
		Rows:                 len(labeled),
		RegionTopWords:       map[string][]TermCount{},
		CategoryDistribution: map[string]int{},
		LabelDistribution:    map[string]int{},
		RegionDistribution:   map[string]int{},
		HourRegion:           map[string][24]int{},
	}

	docs := make([]string, len(labeled))
	byRegion := map[string][]string{}
	for i, row := range labeled {
		docs[i] = row.Article.Text
		byRegion[row.Region] = append(byRegion[row.Region], row.Article.Text)

		report.CategoryDistribution[row.CategoryString()]++
		for c := range row.Categories {
			report.LabelDistribution[string(c)]++
		}
		report.RegionDistribution[row.Region]++

		if row.Article.PublishedAt.IsZero() {
			report.RowsWithoutTime++
			continue
		}
		bins := report.HourRegion[row.Region]
		bins[row.Article.PublishedAt.Hour()]++
		report.HourRegion[row.Region] = bins
	}

	report.TopWords = TopTerms(docs, opts.TopWords)
	report.TFIDF = TFIDF(docs, opts.TopTFIDF)
	for region, texts := range byRegion {
		report.RegionTopWords[region] = TopTerms(texts, opts.RegionTopWords)
	}
	return report
}

// Regions lists the regions of r by row count, largest first.
func (r Report) Regions() []string {
	out := make([]string, 0, len(r.RegionDistribution))
	for region := range r.RegionDistribution {
		out = append(out, region)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := r.RegionDistribution[out[i]], r.RegionDistribution[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	return out
}
