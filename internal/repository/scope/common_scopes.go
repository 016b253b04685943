package scope

import "gorm.io/gorm"

// NewestFirst orders import batches by when they ran.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC, id DESC")
}

// CorpusOrder keeps document listings stable between refreshes.
func CorpusOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
