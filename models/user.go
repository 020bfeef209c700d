package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account. Passwords are stored as bcrypt hashes only;
// WeChat-provisioned users have no password and authenticate via login code.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Nickname     string    `gorm:"size:64" json:"nickname"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Profile      *Profile  `json:"profile,omitempty"`
	Posts        []Post    `gorm:"foreignKey:AuthorID" json:"-"`
}

// Profile extends User one-to-one with WeChat identifiers and personal
// details. It is created lazily on the first WeChat login and its openid is
// refreshed on every successful login.
type Profile struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"-"`
	OpenID    string     `gorm:"size:128;index" json:"openid"`
	UnionID   string     `gorm:"size:128" json:"unionid"`
	Nickname  string     `gorm:"size:64" json:"nickname"`
	AvatarURL string     `gorm:"size:512" json:"avatar_url"`
	Gender    string     `gorm:"size:10" json:"gender"`
	Country   string     `gorm:"size:64" json:"country"`
	Province  string     `gorm:"size:64" json:"province"`
	City      string     `gorm:"size:64" json:"city"`
	Language  string     `gorm:"size:32" json:"language"`
	Bio       string     `gorm:"size:500" json:"bio"`
	Location  string     `gorm:"size:64" json:"location"`
	BirthDate *time.Time `json:"birth_date"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
