package models

import (
	"time"
)

// Like represents a like edge between a user and a post. The composite unique
// index enforces at most one like per (user, post) pair at the storage layer,
// so the toggle's conflict-ignoring insert cannot race into duplicates.
type Like struct {
	ID      int64     `gorm:"primaryKey;autoIncrement;column:id"`
	UserID  int64     `gorm:"not null;uniqueIndex:likes_user_post_ux;column:user_id"`
	PostID  int64     `gorm:"not null;uniqueIndex:likes_user_post_ux;index;column:post_id"`
	Created time.Time `gorm:"not null;column:created"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Post *Post `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "likes"
}
