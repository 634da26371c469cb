package models

import (
	"time"
)

// Follow represents a directed subscription edge from a reader to an author.
//
// The composite unique index makes the follow toggle safe under concurrent
// duplicate requests: at most one row per (user, author) pair can ever exist.
// Self-follows (user == author) are rejected in the toggle, not stored.
type Follow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	UserID    int64     `gorm:"not null;uniqueIndex:follows_user_author_ux;column:user_id"`
	AuthorID  int64     `gorm:"not null;uniqueIndex:follows_user_author_ux;index;column:author_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	User   *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Author *User `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "follows"
}
