package models

// Tag is a free-form label attached to posts. The unique index on name keeps
// concurrent get-or-create from producing duplicate rows.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;not null;uniqueIndex" json:"name"`
}
