package model

import (
	"time"

	"gorm.io/gorm"
)

type Document struct {
	Id        int64          `gorm:"primaryKey;autoIncrement"`
	Title     string         `gorm:"type:varchar(255);not null"`
	Category  string         `gorm:"type:varchar(100);not null;default:'';index"`
	Summary   string         `gorm:"type:text"`
	Content   string         `gorm:"type:text"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
