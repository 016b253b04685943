package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResponse struct {
	Id        int64      `json:"id"`
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	Summary   string     `json:"summary"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type CreateDocumentRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Category string `json:"category" validate:"max=100"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
}

type UpdateDocumentRequest struct {
	Id       int64  `json:"-"`
	Title    string `json:"title" validate:"required,max=255"`
	Category string `json:"category" validate:"max=100"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
}

const (
	ImportFormatJSON     = "json"
	ImportFormatHTML     = "html"
	ImportFormatMarkdown = "markdown"

	MaxImportRows = 500
)

// ImportDocumentsRequest rows are validated one by one so a bad row
// does not reject the whole batch.
type ImportDocumentsRequest struct {
	Format    string                  `json:"format" validate:"required,oneof=json html markdown"`
	Documents []CreateDocumentRequest `json:"documents" validate:"required,min=1,max=500"`
}

type ImportFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type ImportDocumentsResponse struct {
	BatchId  uuid.UUID       `json:"batch_id"`
	Imported int             `json:"imported"`
	Failed   []ImportFailure `json:"failed"`
}

type ImportBatchResponse struct {
	Id        uuid.UUID       `json:"id"`
	UserId    uuid.UUID       `json:"user_id"`
	Format    string          `json:"format"`
	Total     int             `json:"total"`
	Imported  int             `json:"imported"`
	Failures  []ImportFailure `json:"failures"`
	CreatedAt time.Time       `json:"created_at"`
}

type ExportDocumentsResponse struct {
	ExportedAt time.Time          `json:"exported_at"`
	Documents  []DocumentResponse `json:"documents"`
}
