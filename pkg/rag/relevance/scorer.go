package relevance

import (
	"regexp"
	"sort"
	"strings"

	"knowledge-workspace/pkg/rag"
)

// Field weights applied once per token per field.
const (
	TitleWeight    = 6
	SummaryWeight  = 4
	CategoryWeight = 3
	ContentWeight  = 2

	minTokenLength = 2
)

var disallowed = regexp.MustCompile(`[^a-z0-9\s-]+`)

// Tokenize lowercases the query, strips everything outside [a-z0-9\s-],
// splits on whitespace and drops tokens shorter than two characters.
func Tokenize(query string) []string {
	cleaned := disallowed.ReplaceAllString(strings.ToLower(query), "")

	tokens := make([]string, 0)
	for _, t := range strings.Fields(cleaned) {
		if len(t) >= minTokenLength {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Score rates how well a document matches a free-text query.
// The result is only meaningful relative to other scores for the same query.
func Score(doc rag.Document, query string) int {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return 0
	}

	title := strings.ToLower(doc.Title)
	summary := strings.ToLower(doc.Summary)
	category := strings.ToLower(doc.Category)
	content := strings.ToLower(doc.Content)

	score := 0
	for _, t := range tokens {
		if strings.Contains(title, t) {
			score += TitleWeight
		}
		if strings.Contains(summary, t) {
			score += SummaryWeight
		}
		if strings.Contains(category, t) {
			score += CategoryWeight
		}
		if strings.Contains(content, t) {
			score += ContentWeight
		}
	}

	haystack := strings.Join([]string{title, summary, category, content}, " ")
	seen := make(map[string]bool, len(tokens))
	matched := 0
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		if strings.Contains(haystack, t) {
			matched++
		}
	}

	if matched >= 2 {
		score += 2
	}
	if matched >= 4 {
		score += 4
	}

	return score
}

// Rank returns at most limit documents with a strictly positive score,
// best first. Ties keep the order of docs.
func Rank(docs []rag.Document, query string, limit int) []rag.Document {
	type scored struct {
		doc   rag.Document
		score int
	}

	candidates := make([]scored, 0, len(docs))
	for _, d := range docs {
		if s := Score(d, query); s > 0 {
			candidates = append(candidates, scored{doc: d, score: s})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	ranked := make([]rag.Document, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.doc
	}
	return ranked
}
