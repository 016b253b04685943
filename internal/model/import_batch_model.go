package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ImportBatch struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Format    string         `gorm:"type:varchar(20);not null"`
	Total     int            `gorm:"not null"`
	Imported  int            `gorm:"not null"`
	Failures  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index"`
}

func (ImportBatch) TableName() string {
	return "import_batches"
}
