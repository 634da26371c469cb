package models

import (
	"database/sql"
	"time"
)

// Post represents a published post.
//
// PubDate is set once at creation and never mutated. AuthorID and GroupID are
// both nullable: deleting the author or the group preserves the post with the
// reference cleared rather than cascading.
type Post struct {
	ID       int64         `gorm:"primaryKey;autoIncrement;column:id"`
	Text     string        `gorm:"type:text;not null;column:text"`
	PubDate  time.Time     `gorm:"not null;index:posts_pub_date_ix,sort:desc;column:pub_date"`
	AuthorID sql.NullInt64 `gorm:"index;column:author_id"`
	GroupID  sql.NullInt64 `gorm:"index;column:group_id"`
	Image    string        `gorm:"type:varchar(1024);not null;default:'';column:image"`
	Visits   int64         `gorm:"not null;default:0;column:visits"`

	// Relationships
	Author *User  `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:SET NULL"`
	Group  *Group `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}
