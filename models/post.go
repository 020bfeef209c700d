package models

import "time"

// Post is a blog entry created by a user. The author is fixed at creation;
// category and tags are resolved by name at write time.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	AuthorID   uint      `gorm:"index;not null" json:"-"`
	Author     User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CategoryID *uint     `gorm:"index" json:"-"`
	Category   *Category `json:"-"`
	Tags       []Tag     `gorm:"many2many:post_tags;" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
