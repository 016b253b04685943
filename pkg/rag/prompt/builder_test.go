package prompt

import (
	"strings"
	"testing"

	"knowledge-workspace/pkg/llm"
	"knowledge-workspace/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctxDocs = []rag.ContextDocument{
	{ID: 11, Title: "Onboarding", Content: "Day one checklist."},
	{ID: 12, Title: "Expenses", Content: "Submit receipts within 30 days."},
	{ID: 13, Title: "Travel", Content: "Book through the portal."},
}

func TestGroundedBuilder_Build(t *testing.T) {
	msgs := NewGroundedBuilder("  how do I expense travel? ", ctxDocs, 0).Build()
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, llm.RoleUser, msgs[1].Role)

	user := msgs[1].Content
	assert.Contains(t, user, "[1] Onboarding\nDay one checklist.")
	assert.Contains(t, user, "[3] Travel\nBook through the portal.")
	assert.True(t, strings.HasSuffix(user, "how do I expense travel?\n</question>"))
	assert.Less(t, strings.Index(user, "[1]"), strings.Index(user, "[2]"))
}

func TestGroundedBuilder_NoContext(t *testing.T) {
	msgs := NewGroundedBuilder("anything", nil, 0).Build()
	assert.Contains(t, msgs[1].Content, "No workspace documents matched")
}

func TestGroundedBuilder_Truncates(t *testing.T) {
	long := []rag.ContextDocument{{ID: 1, Title: "Long", Content: strings.Repeat("é", 50)}}
	msgs := NewGroundedBuilder("q", long, 10).Build()
	assert.Contains(t, msgs[1].Content, strings.Repeat("é", 10)+"…\n")
	assert.NotContains(t, msgs[1].Content, strings.Repeat("é", 11))
}

func TestCitedSources(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   []int64
	}{
		{"first citation order", "See [2], then [1] and [2] again.", []int64{12, 11}},
		{"out of range ignored", "See [7] and [3].", []int64{13}},
		{"zero ignored", "See [0].", []int64{11, 12, 13}},
		{"no citations", "Nothing relevant.", []int64{11, 12, 13}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CitedSources(tt.answer, ctxDocs)
			ids := make([]int64, len(got))
			for i, s := range got {
				ids[i] = s.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	assert.Empty(t, CitedSources("see [1]", nil))
	assert.NotNil(t, CitedSources("x", nil))
}
