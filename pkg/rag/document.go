// FILE: pkg/rag/document.go
// PURPOSE: Shared types for the assistant core and the chat wire contract

package rag

// Document is the read-only view of a workspace document used by the assistant.
type Document struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
}

// SourceRef is a citation attached to an assistant message, enriched locally with a snippet.
type SourceRef struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ContextDocument is the subset of a Document sent to the AI backend as grounding.
type ContextDocument struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string            `json:"message"`
	Context []ContextDocument `json:"context"`
}

// Source is a citation as returned by the AI backend.
type Source struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// ToContext strips a document down to what the AI backend needs.
func (d Document) ToContext() ContextDocument {
	return ContextDocument{
		ID:      d.ID,
		Title:   d.Title,
		Content: d.Content,
	}
}

// FindDocument returns the document with the given id, if present.
func FindDocument(docs []Document, id int64) (Document, bool) {
	for _, d := range docs {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}
