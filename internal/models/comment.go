package models

import "time"

// Comment is a comment on a community recipe. Replies are one level deep.
type Comment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RecipeID     uint      `gorm:"not null;index" json:"recipe_id"`
	AuthorID     uint      `gorm:"not null;index" json:"author_id"`
	AuthorName   string    `json:"author_name"`
	AuthorPhoto  string    `json:"author_photo"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	ParentID     *uint     `gorm:"index" json:"parent_id,omitempty"`
	RepliesCount int       `gorm:"not null;default:0" json:"replies_count"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}
