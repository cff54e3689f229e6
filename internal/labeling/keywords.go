// Package labeling holds the pure decision logic of the labeling run:
// keyword rules, score fusion and region lookup.
package labeling

import (
	"fmt"
	"strings"

	"NewsLabeler/internal/domain"
)

// LexiconEntry lists the trigger substrings of one category.
type LexiconEntry struct {
	Category domain.Category
	Keywords []string
}

// Lexicon maps every category of the label space to its keywords.
// It is immutable once built.
type Lexicon struct {
	entries []LexiconEntry
}

// NewLexicon validates raw keyword lists and fills missing categories with empty entries.
// Keywords are lower-cased; blank keywords are dropped since they would match everything.
func NewLexicon(raw map[string][]string) (Lexicon, error) {
	byCategory := make(map[domain.Category][]string, len(raw))
	for name, keywords := range raw {
		category, err := domain.ParseCategory(name)
		if err != nil {
			return Lexicon{}, fmt.Errorf("lexicon: %w", err)
		}
		if !category.IsLabel() {
			return Lexicon{}, fmt.Errorf("lexicon: %s is not a classifier label", category)
		}
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			byCategory[category] = append(byCategory[category], kw)
		}
	}

	labels := domain.Labels()
	entries := make([]LexiconEntry, 0, len(labels))
	for _, category := range labels {
		entries = append(entries, LexiconEntry{Category: category, Keywords: byCategory[category]})
	}
	return Lexicon{entries: entries}, nil
}

// Entries returns a copy of the lexicon in label-space order.
func (l Lexicon) Entries() []LexiconEntry {
	out := make([]LexiconEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = LexiconEntry{Category: e.Category, Keywords: append([]string(nil), e.Keywords...)}
	}
	return out
}

// DefaultKeywords is the built-in news lexicon.
func DefaultKeywords() map[string][]string {
	return map[string][]string{
		"Politics":      {"election", "president", "government", "minister", "politics", "policy", "law", "vote", "parliament", "democracy", "political"},
		"Economy":       {"economy", "market", "finance", "stock", "business", "trade", "investment", "currency", "inflation"},
		"Technology":    {"technology", "tech", "ai", "software", "hardware", "robots", "gadget", "device", "innovation", "startup", "app", "mobile", "internet"},
		"Sports":        {"sports", "football", "tournament", "match", "league", "team", "player", "athlete", "game", "score", "win", "lose"},
		"Health":        {"health", "pandemic", "disease", "hospital", "doctor", "diet", "weight", "nutrition", "food", "virus", "vaccine", "medicine", "surgery"},
		"Science":       {"science", "nasa", "space", "research", "experiment", "discovery", "biology", "physics", "chemistry", "environment", "climate"},
		"World":         {"world", "international", "global", "foreign", "united nations", "diplomacy", "conflict", "war", "peace", "human rights"},
		"Education":     {"education", "school", "college", "university", "student", "teacher", "class", "course", "degree", "learning", "study", "exam"},
		"Crime":         {"crime", "arrest", "police", "investigation"},
		"Entertainment": {"entertainment", "movie", "music", "celebrity", "tv", "show", "theater", "concert", "festival", "art", "culture", "drama"},
	}
}

// KeywordEngine detects categories by raw substring containment.
//
// Matching ignores word boundaries, so short keywords also fire inside longer
// words ("ai" in "said", "art" in "start"). Known false-positive source.
type KeywordEngine struct {
	lexicon Lexicon
}

// NewKeywordEngine wires a lexicon.
func NewKeywordEngine(lexicon Lexicon) *KeywordEngine {
	return &KeywordEngine{lexicon: lexicon}
}

// Detect returns every category with at least one keyword contained in text.
// text must already be lower-cased.
func (e *KeywordEngine) Detect(text string) domain.CategorySet {
	found := domain.CategorySet{}
	for _, entry := range e.lexicon.entries {
		for _, kw := range entry.Keywords {
			if strings.Contains(text, kw) {
				found.Add(entry.Category)
				break
			}
		}
	}
	return found
}
