package entity

import "time"

type Document struct {
	Id        int64
	Title     string
	Category  string
	Summary   string
	Content   string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

type DocumentChangeKind string

const (
	DocumentCreated  DocumentChangeKind = "created"
	DocumentUpdated  DocumentChangeKind = "updated"
	DocumentDeleted  DocumentChangeKind = "deleted"
	DocumentImported DocumentChangeKind = "imported"
)
