package conversation

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/pkg/rag"
	"knowledge-workspace/pkg/rag/relevance"
	"knowledge-workspace/pkg/rag/snippet"
	"knowledge-workspace/pkg/store"

	"github.com/google/uuid"
)

const module = "ChatOrchestrator"

// MaxContextDocuments caps how many ranked documents accompany a question.
const MaxContextDocuments = 3

// Backend answers a question grounded in the supplied context documents.
type Backend interface {
	Ask(ctx context.Context, req rag.ChatRequest) (*rag.ChatResponse, error)
}

// ContextSource resolves the documents a turn may draw from.
type ContextSource interface {
	EffectiveContext(all []rag.Document) []rag.Document
}

// Orchestrator owns the chat history and the idle/sending state machine.
// Send, MarkTypingComplete and ClearChat are the only mutations, and each
// one persists the full history.
type Orchestrator struct {
	mu      sync.Mutex
	history []Message
	state   State
	closed  bool
	// generation changes on ClearChat so a reply to a cleared
	// conversation is discarded.
	generation uint64

	backend Backend
	source  ContextSource
	kv      store.KV
	key     string
	logger  logger.ILogger
}

func New(backend Backend, contextSource ContextSource, kv store.KV, key string, log logger.ILogger) *Orchestrator {
	o := &Orchestrator{
		state:   StateIdle,
		backend: backend,
		source:  contextSource,
		kv:      kv,
		key:     key,
		logger:  log,
	}
	o.history = o.load()
	return o
}

func (o *Orchestrator) load() []Message {
	raw, ok, err := o.kv.Get(o.key)
	if err != nil {
		o.logger.Warn(module, "Failed to read chat history, starting fresh", map[string]interface{}{"error": err.Error()})
		return []Message{newGreeting()}
	}
	if !ok || raw == "" {
		return []Message{newGreeting()}
	}

	var history []Message
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		o.logger.Warn(module, "Stored chat history is corrupt, starting fresh", map[string]interface{}{"error": err.Error()})
		return []Message{newGreeting()}
	}
	if len(history) == 0 {
		return []Message{newGreeting()}
	}

	// Restored replies are never animated again.
	for i := range history {
		history[i].IsTyped = true
	}
	return history
}

// persist must be called with o.mu held.
func (o *Orchestrator) persist() {
	data, err := json.Marshal(o.history)
	if err != nil {
		o.logger.Error(module, "Failed to encode chat history", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := o.kv.Set(o.key, string(data)); err != nil {
		o.logger.Warn(module, "Failed to persist chat history", map[string]interface{}{"error": err.Error()})
	}
}

// Send runs one chat turn against the documents in corpus.
//
// It reports false without touching the history when the question is blank,
// a send is already in flight, or the orchestrator is closed. On success or
// failure the assistant reply is appended and returned; the reply is nil when
// the conversation was cleared or closed before the backend answered.
func (o *Orchestrator) Send(ctx context.Context, question string, corpus []rag.Document) (*Message, bool) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, false
	}

	o.mu.Lock()
	if o.closed || o.state == StateSending {
		o.mu.Unlock()
		return nil, false
	}

	if onlyGreeting(o.history) {
		o.history = []Message{}
	}
	o.history = append(o.history, Message{
		ID:      uuid.NewString(),
		Role:    RoleUser,
		Text:    question,
		IsTyped: true,
	})
	o.state = StateSending
	generation := o.generation
	o.persist()
	o.mu.Unlock()

	ranked := relevance.Rank(o.source.EffectiveContext(corpus), question, MaxContextDocuments)
	req := rag.ChatRequest{
		Message: question,
		Context: make([]rag.ContextDocument, len(ranked)),
	}
	for i, d := range ranked {
		req.Context[i] = d.ToContext()
	}

	o.logger.Info(module, "Sending question", map[string]interface{}{
		"context_docs": len(req.Context),
		"corpus_size":  len(corpus),
	})

	resp, err := o.backend.Ask(ctx, req)
	reply := o.buildReply(question, corpus, resp, err)

	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = StateIdle
	if o.closed || generation != o.generation {
		o.logger.Debug(module, "Discarding reply for an abandoned turn", nil)
		return nil, true
	}

	o.history = append(o.history, reply)
	o.persist()

	out := cloneMessage(reply)
	return &out, true
}

func (o *Orchestrator) buildReply(question string, corpus []rag.Document, resp *rag.ChatResponse, err error) Message {
	reply := Message{
		ID:   uuid.NewString(),
		Role: RoleAssistant,
	}

	if err != nil || resp == nil {
		reply.Text = FallbackText
		if err != nil {
			if msg := strings.TrimSpace(err.Error()); msg != "" {
				reply.Text = msg
			}
			o.logger.Warn(module, "Assistant request failed", map[string]interface{}{"error": err.Error()})
		}
		return reply
	}

	reply.Text = resp.Answer
	reply.Sources = make([]rag.SourceRef, 0, len(resp.Sources))
	for _, src := range resp.Sources {
		ref := rag.SourceRef{ID: src.ID, Title: src.Title}
		if doc, ok := rag.FindDocument(corpus, src.ID); ok {
			ref.Snippet = snippet.Build(doc.Content, question)
		}
		reply.Sources = append(reply.Sources, ref)
	}
	return reply
}

// MarkTypingComplete flags the message as fully displayed.
// It reports whether anything changed.
func (o *Orchestrator) MarkTypingComplete(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}
	for i := range o.history {
		if o.history[i].ID == id {
			if o.history[i].IsTyped {
				return false
			}
			o.history[i].IsTyped = true
			o.persist()
			return true
		}
	}
	return false
}

// ClearChat replaces the history with a fresh greeting.
func (o *Orchestrator) ClearChat() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.history = []Message{newGreeting()}
	o.generation++
	o.persist()
}

func (o *Orchestrator) History() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Message, len(o.history))
	for i, m := range o.history {
		out[i] = cloneMessage(m)
	}
	return out
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Close detaches the orchestrator. Replies that arrive afterwards are dropped.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

func cloneMessage(m Message) Message {
	if m.Sources != nil {
		m.Sources = append([]rag.SourceRef(nil), m.Sources...)
	}
	return m
}
