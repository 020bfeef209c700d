package models

// Category groups posts. Like Tag it is created on demand by name, so the
// name carries a unique index.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:64;not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}
