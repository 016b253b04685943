package entity

import (
	"time"

	"github.com/google/uuid"
)

// ImportFailure records why one row of a bulk import was rejected.
type ImportFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type ImportBatch struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Format    string
	Total     int
	Imported  int
	Failures  []ImportFailure
	CreatedAt time.Time
}
