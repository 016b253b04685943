package prompt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"knowledge-workspace/pkg/llm"
	"knowledge-workspace/pkg/rag"
)

// DefaultMaxContextChars bounds each context document placed in the prompt.
const DefaultMaxContextChars = 4000

// GroundedBuilder turns a question and its context documents into chat messages.
type GroundedBuilder struct {
	question string
	context  []rag.ContextDocument
	maxChars int
}

func NewGroundedBuilder(question string, context []rag.ContextDocument, maxChars int) *GroundedBuilder {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	return &GroundedBuilder{
		question: strings.TrimSpace(question),
		context:  context,
		maxChars: maxChars,
	}
}

func (b *GroundedBuilder) Build() []llm.Message {
	var system strings.Builder
	b.writeTask(&system)
	b.writeGuidelines(&system)

	var user strings.Builder
	b.writeReferenceMaterial(&user)
	b.writeUserQuery(&user)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system.String()},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

func (b *GroundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are the assistant of a team knowledge workspace.\n")
	prompt.WriteString("Answer the user's question using the numbered workspace documents they supply.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *GroundedBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("- Cite the documents you rely on with their marker, e.g. [1] or [2].\n")
	prompt.WriteString("- If the documents do not contain the answer, say so plainly instead of guessing.\n")
	prompt.WriteString("- Keep answers short and use Markdown lists where they help.\n")
	prompt.WriteString("</guidelines>\n")
}

func (b *GroundedBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	if len(b.context) == 0 {
		prompt.WriteString("<documents>\nNo workspace documents matched this question.\n</documents>\n\n")
		return
	}

	prompt.WriteString("<documents>\n")
	for i, doc := range b.context {
		fmt.Fprintf(prompt, "[%d] %s\n", i+1, doc.Title)
		prompt.WriteString(truncate(doc.Content, b.maxChars))
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</documents>\n\n")
}

func (b *GroundedBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</question>")
}

func truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max]) + "…"
}

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// CitedSources returns the context documents whose [n] marker appears in the
// answer, in order of first citation. An answer citing nothing is attributed
// to every context document.
func CitedSources(answer string, context []rag.ContextDocument) []rag.Source {
	seen := make(map[int]bool)
	sources := []rag.Source{}

	for _, m := range citationPattern.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(context) || seen[n] {
			continue
		}
		seen[n] = true
		doc := context[n-1]
		sources = append(sources, rag.Source{ID: doc.ID, Title: doc.Title})
	}

	if len(sources) > 0 {
		return sources
	}
	for _, doc := range context {
		sources = append(sources, rag.Source{ID: doc.ID, Title: doc.Title})
	}
	return sources
}
