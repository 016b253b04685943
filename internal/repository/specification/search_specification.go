package specification

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// DocumentFilter matches title, category or summary case-insensitively,
// the same predicate the assistant applies when browsing documents.
type DocumentFilter struct {
	Query string
}

func (s DocumentFilter) Apply(db *gorm.DB) *gorm.DB {
	q := strings.TrimSpace(s.Query)
	if q == "" {
		return db
	}
	pattern := "%" + likeEscaper.Replace(q) + "%"
	return db.Where("title ILIKE ? OR category ILIKE ? OR summary ILIKE ?", pattern, pattern, pattern)
}
