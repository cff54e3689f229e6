package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Category is a topic label from the closed label space.
type Category string

const (
	CategoryPolitics      Category = "Politics"
	CategoryEconomy       Category = "Economy"
	CategoryTechnology    Category = "Technology"
	CategorySports        Category = "Sports"
	CategoryHealth        Category = "Health"
	CategoryScience       Category = "Science"
	CategoryWorld         Category = "World"
	CategoryEducation     Category = "Education"
	CategoryCrime         Category = "Crime"
	CategoryEntertainment Category = "Entertainment"

	// CategoryUnknown is the synthetic fallback, never queried from a classifier.
	CategoryUnknown Category = "Unknown"
)

// RegionUnknown is the region attached to unmapped sources.
const RegionUnknown = "Unknown"

// CategoryDelimiter joins categories in the output dataset.
const CategoryDelimiter = ", "

var labelSpace = []Category{
	CategoryPolitics,
	CategoryEconomy,
	CategoryTechnology,
	CategorySports,
	CategoryHealth,
	CategoryScience,
	CategoryWorld,
	CategoryEducation,
	CategoryCrime,
	CategoryEntertainment,
}

var labelRank = func() map[Category]int {
	rank := make(map[Category]int, len(labelSpace)+1)
	for i, c := range labelSpace {
		rank[c] = i
	}
	rank[CategoryUnknown] = len(labelSpace)
	return rank
}()

// Labels returns the ordered label space queried from classifiers.
func Labels() []Category {
	out := make([]Category, len(labelSpace))
	copy(out, labelSpace)
	return out
}

// ParseCategory resolves a label name, case-insensitively, into the label space.
func ParseCategory(name string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	for c := range labelRank {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", name)
}

// IsLabel reports whether c belongs to the classifier label space.
func (c Category) IsLabel() bool {
	_, ok := labelRank[c]
	return ok && c != CategoryUnknown
}

// CategorySet is an unordered set of categories.
type CategorySet map[Category]struct{}

// NewCategorySet builds a set from the given members.
func NewCategorySet(members ...Category) CategorySet {
	s := make(CategorySet, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Add inserts c into the set.
func (s CategorySet) Add(c Category) {
	s[c] = struct{}{}
}

// Has reports membership.
func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

// Len returns the number of members.
func (s CategorySet) Len() int {
	return len(s)
}

// Union returns a new set holding the members of s and other.
func (s CategorySet) Union(other CategorySet) CategorySet {
	out := make(CategorySet, len(s)+len(other))
	for c := range s {
		out[c] = struct{}{}
	}
	for c := range other {
		out[c] = struct{}{}
	}
	return out
}

// Sorted returns members in label-space order; names outside it sort last alphabetically.
func (s CategorySet) Sorted() []Category {
	out := make([]Category, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := labelRank[out[i]]
		rj, jok := labelRank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// String joins the members with CategoryDelimiter.
func (s CategorySet) String() string {
	sorted := s.Sorted()
	names := make([]string, len(sorted))
	for i, c := range sorted {
		names[i] = string(c)
	}
	return strings.Join(names, CategoryDelimiter)
}

// ParseCategorySet reverses String. Blank input yields an empty set.
func ParseCategorySet(value string) CategorySet {
	s := CategorySet{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if c, err := ParseCategory(part); err == nil {
			s.Add(c)
			continue
		}
		s.Add(Category(part))
	}
	return s
}

// LabelScore is one classifier score for one label.
type LabelScore struct {
	Label Category
	Score float64
}

// ScoreResult holds the independent per-label scores for one article.
type ScoreResult []LabelScore

// Score returns the score for label and whether it was present.
func (r ScoreResult) Score(label Category) (float64, bool) {
	for _, ls := range r {
		if ls.Label == label {
			return ls.Score, true
		}
	}
	return 0, false
}

// Validate checks the result covers exactly the queried labels with scores in [0,1].
func (r ScoreResult) Validate(labels []Category) error {
	if len(r) != len(labels) {
		return fmt.Errorf("expected %d scores, got %d", len(labels), len(r))
	}
	for _, label := range labels {
		score, ok := r.Score(label)
		if !ok {
			return fmt.Errorf("missing score for %s", label)
		}
		if score < 0 || score > 1 {
			return fmt.Errorf("score %.4f for %s outside [0,1]", score, label)
		}
	}
	return nil
}
