package selection

import (
	"encoding/json"
	"strings"
	"sync"

	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/pkg/rag"
	"knowledge-workspace/pkg/store"
)

const module = "ContextSelector"

// Selector tracks the documents pinned as chat context and the filter used
// to browse candidates. Only Toggle, Clear and Reconcile mutate the
// selection, and each of them persists the result.
type Selector struct {
	mu     sync.Mutex
	ids    []int64
	filter string

	kv     store.KV
	key    string
	logger logger.ILogger

	onOpen []func()
}

// New restores the selection stored under key. Unreadable state is logged
// and replaced by an empty selection.
func New(kv store.KV, key string, log logger.ILogger) *Selector {
	s := &Selector{
		ids:    []int64{},
		kv:     kv,
		key:    key,
		logger: log,
	}
	s.load()
	return s
}

func (s *Selector) load() {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.logger.Warn(module, "Failed to read selection, starting empty", map[string]interface{}{"error": err.Error()})
		return
	}
	if !ok || raw == "" {
		return
	}

	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.logger.Warn(module, "Stored selection is corrupt, starting empty", map[string]interface{}{"error": err.Error()})
		return
	}

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			s.ids = append(s.ids, id)
		}
	}
}

// persist must be called with s.mu held.
func (s *Selector) persist() {
	data, err := json.Marshal(s.ids)
	if err != nil {
		s.logger.Error(module, "Failed to encode selection", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		s.logger.Warn(module, "Failed to persist selection", map[string]interface{}{"error": err.Error()})
	}
}

// OnPanelOpen registers fn to run whenever a toggle adds a document,
// i.e. the context panel should be shown.
func (s *Selector) OnPanelOpen(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOpen = append(s.onOpen, fn)
}

// Toggle adds id when absent and removes it when present.
// It reports whether id is selected afterwards.
func (s *Selector) Toggle(id int64) bool {
	s.mu.Lock()

	idx := s.indexOf(id)
	if idx >= 0 {
		s.ids = append(s.ids[:idx:idx], s.ids[idx+1:]...)
	} else {
		s.ids = append(s.ids, id)
	}
	s.persist()

	added := idx < 0
	listeners := append([]func(){}, s.onOpen...)
	s.mu.Unlock()

	if added {
		for _, fn := range listeners {
			fn()
		}
	}
	return added
}

// Clear empties the selection.
func (s *Selector) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ids) == 0 {
		return
	}
	s.ids = []int64{}
	s.persist()
}

// Selected returns the selected ids in selection order.
func (s *Selector) Selected() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64{}, s.ids...)
}

func (s *Selector) IsSelected(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// EffectiveContext resolves the documents a chat turn may draw from: the
// selected documents in the order of all, or all of them when nothing is
// selected.
func (s *Selector) EffectiveContext(all []rag.Document) []rag.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ids) == 0 {
		return all
	}

	selected := s.set()
	out := make([]rag.Document, 0, len(s.ids))
	for _, d := range all {
		if selected[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// Reconcile drops selected ids that no longer exist in all, keeping the
// order of the survivors. It writes to storage only when something was
// dropped and reports whether that happened.
func (s *Selector) Reconcile(all []rag.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	present := make(map[int64]bool, len(all))
	for _, d := range all {
		present[d.ID] = true
	}

	kept := make([]int64, 0, len(s.ids))
	for _, id := range s.ids {
		if present[id] {
			kept = append(kept, id)
		}
	}

	if len(kept) == len(s.ids) {
		return false
	}

	s.logger.Info(module, "Pruned selection after document set change", map[string]interface{}{
		"before": len(s.ids),
		"after":  len(kept),
	})
	s.ids = kept
	s.persist()
	return true
}

func (s *Selector) SetFilter(filter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
}

func (s *Selector) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Matches reports whether doc passes the current filter. The filter never
// affects EffectiveContext.
func (s *Selector) Matches(doc rag.Document) bool {
	return MatchesFilter(doc, s.Filter())
}

// Visible returns the documents of all that pass the current filter.
func (s *Selector) Visible(all []rag.Document) []rag.Document {
	filter := s.Filter()

	out := make([]rag.Document, 0, len(all))
	for _, d := range all {
		if MatchesFilter(d, filter) {
			out = append(out, d)
		}
	}
	return out
}

// MatchesFilter is a case-insensitive substring match against title,
// category or summary. An empty filter matches everything.
func MatchesFilter(doc rag.Document, filter string) bool {
	f := strings.ToLower(strings.TrimSpace(filter))
	if f == "" {
		return true
	}
	return strings.Contains(strings.ToLower(doc.Title), f) ||
		strings.Contains(strings.ToLower(doc.Category), f) ||
		strings.Contains(strings.ToLower(doc.Summary), f)
}

func (s *Selector) indexOf(id int64) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

func (s *Selector) set() map[int64]bool {
	m := make(map[int64]bool, len(s.ids))
	for _, id := range s.ids {
		m[id] = true
	}
	return m
}
