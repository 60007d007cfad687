package db

import (
	"strings"
	"time"
)

type User struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"size:20;uniqueIndex;not null"`
	Email    string `gorm:"size:120;uniqueIndex;not null"`
	Password string `gorm:"size:60;not null"`
	Posts    []Post `gorm:"foreignKey:UserID"`
}

type Post struct {
	ID         uint      `gorm:"primaryKey"`
	Title      string    `gorm:"size:100;not null"`
	DatePosted time.Time `gorm:"not null"`
	Content    string    `gorm:"type:text;not null"`
	UserID     uint      `gorm:"not null"`
	Author     User      `gorm:"foreignKey:UserID"`
}

// IsAuthoredBy reports whether u owns the post.
func (p *Post) IsAuthoredBy(u *User) bool {
	return u != nil && p.UserID == u.ID
}

func (p *Post) validate() error {
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Content) == "" {
		return ErrInvalidPost
	}
	return nil
}
