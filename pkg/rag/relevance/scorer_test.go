package relevance

import (
	"testing"

	"knowledge-workspace/pkg/rag"

	"github.com/stretchr/testify/assert"
)

var k8sGuide = rag.Document{
	ID:       1,
	Title:    "Kubernetes Deployment Guide",
	Category: "DevOps",
	Summary:  "How to roll out services",
	Content:  "Use kubectl apply to deploy manifests. Deploy often, deploy safely.",
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty", "", []string{}},
		{"lowercases and splits", "Hello World", []string{"hello", "world"}},
		{"strips punctuation", "what's up, doc?", []string{"whats", "up", "doc"}},
		{"keeps hyphens", "follow-up  items", []string{"follow-up", "items"}},
		{"drops short tokens", "a b cd e", []string{"cd"}},
		{"drops non ascii letters", "café ü", []string{"caf"}},
		{"only symbols", "!!! ??", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.query))
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"empty query", "", 0},
		{"no valid tokens", "a ! ?", 0},
		{"no match", "postgres", 0},
		{"title only", "Kubernetes!!!", 6},
		{"content counted once per field", "kubectl", 2},
		{"category only", "devops", 3},
		{"summary only", "roll", 4},
		{"title and content plus pair bonus", "deploy kubernetes", 8 + 6 + 2},
		{"four distinct tokens get both bonuses", "kubernetes deploy kubectl devops", 6 + 8 + 2 + 3 + 2 + 4},
		{"duplicate tokens score twice but bonus once", "kubernetes kubernetes", 12},
		{"unmatched token does not count for bonus", "kubernetes postgres", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(k8sGuide, tt.query))
		})
	}
}

func TestScore_NeverNegativeAndDeterministic(t *testing.T) {
	queries := []string{"", "x", "kubernetes", "deploy deploy", "--", "a-b c-d e-f g-h"}
	docs := []rag.Document{k8sGuide, {}, {Title: "-- --"}}

	for _, d := range docs {
		for _, q := range queries {
			first := Score(d, q)
			assert.GreaterOrEqual(t, first, 0)
			assert.Equal(t, first, Score(d, q))
		}
	}
}

func TestScore_PairBonusWhenAllTokensPresent(t *testing.T) {
	base := TitleWeight + ContentWeight + TitleWeight

	// "kubernetes" hits title, "deploy" hits title and content
	assert.GreaterOrEqual(t, Score(k8sGuide, "kubernetes deploy"), base+2)
}

func TestRank(t *testing.T) {
	docs := []rag.Document{
		{ID: 1, Title: "Cooking", Content: "pasta"},
		{ID: 2, Title: "Go testing"},
		{ID: 3, Title: "Go modules"},
		{ID: 4, Title: "Go testing handbook", Summary: "testing in go", Content: "go test ./..."},
		{ID: 5, Title: "Go vet"},
	}

	t.Run("drops zero scores and sorts stably", func(t *testing.T) {
		ranked := Rank(docs, "go testing", 10)
		ids := make([]int64, len(ranked))
		for i, d := range ranked {
			ids[i] = d.ID
		}
		assert.Equal(t, []int64{4, 2, 3, 5}, ids)
	})

	t.Run("limits result", func(t *testing.T) {
		ranked := Rank(docs, "go", 3)
		assert.Len(t, ranked, 3)
		assert.Equal(t, int64(4), ranked[0].ID)
		assert.Equal(t, int64(2), ranked[1].ID)
		assert.Equal(t, int64(3), ranked[2].ID)
	})

	t.Run("empty query ranks nothing", func(t *testing.T) {
		assert.Empty(t, Rank(docs, "   ", 3))
	})
}
