package snippet

import (
	"strings"
	"unicode"
)

const (
	// Ellipsis marks text cut from either side of a snippet.
	Ellipsis = "…"

	headLength   = 160
	leadContext  = 60
	trailContext = 100
)

// Build extracts an excerpt of content around the first case-insensitive
// occurrence of query. Without a query, or when the query does not occur,
// the head of the content is returned instead. Lengths are counted in runes.
func Build(content, query string) string {
	text := []rune(strings.Join(strings.Fields(content), " "))
	if len(text) == 0 {
		return ""
	}

	if query == "" {
		return head(text)
	}

	i := indexFold(text, []rune(query))
	if i < 0 {
		return head(text)
	}

	start := max(0, i-leadContext)
	end := min(len(text), i+trailContext)

	var b strings.Builder
	if start > 0 {
		b.WriteString(Ellipsis)
	}
	b.WriteString(string(text[start:end]))
	if end < len(text) {
		b.WriteString(Ellipsis)
	}
	return b.String()
}

func head(text []rune) string {
	if len(text) <= headLength {
		return string(text)
	}
	return string(text[:headLength]) + Ellipsis
}

// indexFold finds needle in haystack comparing lowercased runes, so the
// returned index is a rune offset into the original text.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}

	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(r) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
