package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"knowledge-workspace/internal/assistantconfig"
	"knowledge-workspace/pkg/rag"
	"knowledge-workspace/pkg/rag/conversation"
	"knowledge-workspace/pkg/rag/selection"

	"github.com/fatih/color"
)

type renderer struct {
	mu          sync.Mutex
	out         io.Writer
	typingDelay time.Duration

	user      *color.Color
	assistant *color.Color
	source    *color.Color
	muted     *color.Color
	notice    *color.Color
	failure   *color.Color
}

func newRenderer(out io.Writer, display assistantconfig.Display) *renderer {
	r := &renderer{
		out:         out,
		typingDelay: display.TypingDelay,
		user:        color.New(color.FgCyan, color.Bold),
		assistant:   color.New(color.FgGreen, color.Bold),
		source:      color.New(color.FgYellow),
		muted:       color.New(color.Faint),
		notice:      color.New(color.FgMagenta),
		failure:     color.New(color.FgRed),
	}
	if display.NoColor {
		for _, c := range []*color.Color{r.user, r.assistant, r.source, r.muted, r.notice, r.failure} {
			c.DisableColor()
		}
	}
	return r
}

func (r *renderer) Noticef(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notice.Fprintf(r.out, format+"\n", args...)
}

func (r *renderer) Mutedf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted.Fprintf(r.out, format+"\n", args...)
}

func (r *renderer) Errorf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure.Fprintf(r.out, format+"\n", args...)
}

func (r *renderer) Prompt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user.Fprint(r.out, "> ")
}

// Message prints m at once.
func (r *renderer) Message(m conversation.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.label(m.Role)
	fmt.Fprintln(r.out, m.Text)
	r.sources(m.Sources)
}

// Type prints m one rune at a time.
func (r *renderer) Type(m conversation.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.label(m.Role)
	for _, ch := range m.Text {
		fmt.Fprint(r.out, string(ch))
		if r.typingDelay > 0 {
			time.Sleep(r.typingDelay)
		}
	}
	fmt.Fprintln(r.out)
	r.sources(m.Sources)
}

func (r *renderer) label(role conversation.Role) {
	if role == conversation.RoleUser {
		r.user.Fprint(r.out, "you: ")
		return
	}
	r.assistant.Fprint(r.out, "assistant: ")
}

func (r *renderer) sources(refs []rag.SourceRef) {
	if len(refs) == 0 {
		return
	}
	r.muted.Fprintln(r.out, "  sources:")
	for _, ref := range refs {
		r.source.Fprintf(r.out, "  [%d] %s\n", ref.ID, ref.Title)
		if ref.Snippet != "" {
			r.muted.Fprintf(r.out, "      %s\n", ref.Snippet)
		}
	}
}

// Documents lists docs, marking pinned ones with an asterisk.
func (r *renderer) Documents(docs []rag.Document, selector *selection.Selector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(docs) == 0 {
		r.muted.Fprintln(r.out, "No documents.")
		return
	}
	for _, d := range docs {
		mark := " "
		if selector.IsSelected(d.ID) {
			mark = "*"
		}
		fmt.Fprintf(r.out, "%s %4d  %s", mark, d.ID, d.Title)
		if d.Category != "" {
			r.muted.Fprintf(r.out, "  (%s)", d.Category)
		}
		fmt.Fprintln(r.out)
		if summary := strings.TrimSpace(d.Summary); summary != "" {
			r.muted.Fprintf(r.out, "        %s\n", summary)
		}
	}
}

// Context shows the pinned documents, or says every document is in play.
func (r *renderer) Context(all []rag.Document, selector *selection.Selector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := selector.Selected()
	if len(ids) == 0 {
		r.muted.Fprintf(r.out, "No documents pinned. Questions use all %d documents.\n", len(all))
		return
	}
	r.notice.Fprintf(r.out, "Pinned context (%d):\n", len(ids))
	for _, id := range ids {
		if d, ok := rag.FindDocument(all, id); ok {
			fmt.Fprintf(r.out, "  %4d  %s\n", d.ID, d.Title)
		} else {
			r.muted.Fprintf(r.out, "  %4d  (not loaded)\n", id)
		}
	}
}
