package analysis

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// wordRun matches maximal runs of Unicode word characters.
var wordRun = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize lower-cases text and returns tokens of two or more word characters,
// stop words removed.
func Tokenize(text string) []string {
	raw := wordRun.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if _, stop := englishStopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// TermCount is a term with its corpus-wide count.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// TermScore is a term with an aggregated weight.
type TermScore struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// TopTerms counts terms over all documents and keeps the n most frequent.
// Ties are broken alphabetically. n <= 0 keeps every term.
func TopTerms(docs []string, n int) []TermCount {
	counts := map[string]int{}
	for _, doc := range docs {
		for _, tok := range Tokenize(doc) {
			counts[tok]++
		}
	}
	return topCounts(counts, n)
}

// TFIDF limits the vocabulary to the n most frequent terms, weights each
// document by raw count times smoothed idf, L2-normalizes each document and
// sums the weights per term. Results are sorted by score descending.
func TFIDF(docs []string, n int) []TermScore {
	tokenized := make([][]string, len(docs))
	counts := map[string]int{}
	for i, doc := range docs {
		tokenized[i] = Tokenize(doc)
		for _, tok := range tokenized[i] {
			counts[tok]++
		}
	}

	vocab := map[string]bool{}
	for _, tc := range topCounts(counts, n) {
		vocab[tc.Term] = true
	}
	if len(vocab) == 0 {
		return []TermScore{}
	}

	perDoc := make([]map[string]int, len(docs))
	df := map[string]int{}
	for i, tokens := range tokenized {
		tf := map[string]int{}
		for _, tok := range tokens {
			if vocab[tok] {
				tf[tok]++
			}
		}
		for term := range tf {
			df[term]++
		}
		perDoc[i] = tf
	}

	nDocs := float64(len(docs))
	idf := make(map[string]float64, len(vocab))
	for term := range vocab {
		idf[term] = math.Log((1+nDocs)/(1+float64(df[term]))) + 1
	}

	sums := make(map[string]float64, len(vocab))
	for term := range vocab {
		sums[term] = 0
	}
	for _, tf := range perDoc {
		weights := make(map[string]float64, len(tf))
		var norm float64
		for term, c := range tf {
			w := float64(c) * idf[term]
			weights[term] = w
			norm += w * w
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for term, w := range weights {
			sums[term] += w / norm
		}
	}

	out := make([]TermScore, 0, len(sums))
	for term, score := range sums {
		out = append(out, TermScore{Term: term, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	return out
}

func topCounts(counts map[string]int, n int) []TermCount {
	out := make([]TermCount, 0, len(counts))
	for term, c := range counts {
		out = append(out, TermCount{Term: term, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
