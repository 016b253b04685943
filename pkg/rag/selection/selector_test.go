package selection

import (
	"errors"
	"testing"

	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/pkg/rag"
	"knowledge-workspace/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "test:context-selection"

type countingKV struct {
	store.KV
	writes int
}

func (c *countingKV) Set(k, v string) error {
	c.writes++
	return c.KV.Set(k, v)
}

type brokenKV struct{}

func (brokenKV) Get(string) (string, bool, error) { return "", false, errors.New("disk on fire") }
func (brokenKV) Set(string, string) error         { return errors.New("disk on fire") }

func newSelector(t *testing.T) (*Selector, *countingKV) {
	t.Helper()
	kv := &countingKV{KV: store.NewMemoryStore()}
	return New(kv, key, logger.NewNopLogger()), kv
}

var corpus = []rag.Document{
	{ID: 10, Title: "Onboarding", Category: "HR", Summary: "First week checklist"},
	{ID: 20, Title: "Kubernetes Guide", Category: "DevOps", Summary: "Cluster basics"},
	{ID: 30, Title: "Expense Policy", Category: "Finance", Summary: "What you can claim"},
	{ID: 40, Title: "Release Notes", Category: "Product", Summary: "Changes in v2"},
}

func ids(docs []rag.Document) []int64 {
	out := make([]int64, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestToggle(t *testing.T) {
	s, _ := newSelector(t)

	assert.True(t, s.Toggle(30))
	assert.True(t, s.Toggle(10))
	assert.Equal(t, []int64{30, 10}, s.Selected())
	assert.True(t, s.IsSelected(10))

	assert.False(t, s.Toggle(30))
	assert.Equal(t, []int64{10}, s.Selected())
	assert.False(t, s.IsSelected(30))
}

func TestToggle_PanelOpenOnlyOnAdd(t *testing.T) {
	s, _ := newSelector(t)

	opened := 0
	s.OnPanelOpen(func() { opened++ })

	s.Toggle(20)
	s.Toggle(40)
	s.Toggle(20)
	s.Toggle(40)

	assert.Equal(t, 2, opened)
}

func TestClear(t *testing.T) {
	s, kv := newSelector(t)

	s.Clear()
	assert.Equal(t, 0, kv.writes, "clearing an empty selection should not write")

	s.Toggle(10)
	s.Toggle(20)
	s.Clear()
	assert.Empty(t, s.Selected())
	assert.Equal(t, 3, kv.writes)
}

func TestEffectiveContext(t *testing.T) {
	t.Run("empty selection falls back to everything", func(t *testing.T) {
		s, _ := newSelector(t)
		assert.Equal(t, corpus, s.EffectiveContext(corpus))
	})

	t.Run("selection keeps corpus order", func(t *testing.T) {
		s, _ := newSelector(t)
		s.Toggle(40)
		s.Toggle(10)
		assert.Equal(t, []int64{10, 40}, ids(s.EffectiveContext(corpus)))
	})

	t.Run("stale ids are ignored", func(t *testing.T) {
		s, _ := newSelector(t)
		s.Toggle(99)
		s.Toggle(20)
		assert.Equal(t, []int64{20}, ids(s.EffectiveContext(corpus)))
	})

	t.Run("filter does not affect context", func(t *testing.T) {
		s, _ := newSelector(t)
		s.SetFilter("finance")
		assert.Len(t, s.EffectiveContext(corpus), len(corpus))
	})
}

func TestReconcile(t *testing.T) {
	s, kv := newSelector(t)
	s.Toggle(40)
	s.Toggle(99)
	s.Toggle(10)
	s.Toggle(77)
	writes := kv.writes

	assert.True(t, s.Reconcile(corpus))
	assert.Equal(t, []int64{40, 10}, s.Selected())
	assert.Equal(t, writes+1, kv.writes)

	assert.False(t, s.Reconcile(corpus), "second pass should be a no-op")
	assert.Equal(t, []int64{40, 10}, s.Selected())
	assert.Equal(t, writes+1, kv.writes)
}

func TestReconcile_EmptyCorpusDropsEverything(t *testing.T) {
	s, _ := newSelector(t)
	s.Toggle(10)

	assert.True(t, s.Reconcile(nil))
	assert.Empty(t, s.Selected())
	assert.Equal(t, []rag.Document{}, s.EffectiveContext([]rag.Document{}))
}

func TestPersistence(t *testing.T) {
	kv := store.NewMemoryStore()

	first := New(kv, key, logger.NewNopLogger())
	first.Toggle(20)
	first.Toggle(30)
	first.SetFilter("guide")

	second := New(kv, key, logger.NewNopLogger())
	assert.Equal(t, []int64{20, 30}, second.Selected())
	assert.Empty(t, second.Filter(), "filter is not persisted")
}

func TestLoad_BadState(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int64
	}{
		{"corrupt json", "{not json", []int64{}},
		{"wrong shape", `{"ids":[1]}`, []int64{}},
		{"duplicates collapse", `[3,1,3,2,1]`, []int64{3, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := store.NewMemoryStore()
			require.NoError(t, kv.Set(key, tt.raw))

			s := New(kv, key, logger.NewNopLogger())
			assert.Equal(t, tt.want, s.Selected())
		})
	}
}

func TestBrokenStorage(t *testing.T) {
	s := New(brokenKV{}, key, logger.NewNopLogger())

	assert.NotPanics(t, func() {
		s.Toggle(10)
		s.Reconcile(corpus)
		s.Clear()
	})
	assert.Empty(t, s.Selected())
}

func TestMatchesFilter(t *testing.T) {
	doc := corpus[1]

	tests := []struct {
		filter string
		want   bool
	}{
		{"", true},
		{"   ", true},
		{"kubernetes", true},
		{"DEVOPS", true},
		{"cluster", true},
		{"  guide ", true},
		{"finance", false},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesFilter(doc, tt.filter))
		})
	}
}

func TestVisible(t *testing.T) {
	s, _ := newSelector(t)

	assert.Len(t, s.Visible(corpus), 4)

	s.SetFilter("e")
	assert.Equal(t, []int64{10, 20, 30, 40}, ids(s.Visible(corpus)))

	s.SetFilter("policy")
	assert.Equal(t, []int64{30}, ids(s.Visible(corpus)))
	assert.True(t, s.Matches(corpus[2]))
	assert.False(t, s.Matches(corpus[0]))
}
