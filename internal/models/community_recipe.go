package models

import (
	"slices"
	"time"

	"gorm.io/gorm"
)

// CommunityRecipe is a recipe published by a regular user to the community feed.
// It tracks review with the Published and Rejected flags rather than ModerationStatus.
type CommunityRecipe struct {
	ID uint `gorm:"primaryKey" json:"id"`
	RecipeContent
	AuthorID        uint      `gorm:"not null;index" json:"author_id"`
	AuthorName      string    `json:"author_name"`
	AuthorPhoto     string    `json:"author_photo"`
	LikesCount      int       `gorm:"not null;default:0" json:"likes_count"`
	LikedBy         []uint    `gorm:"type:text;serializer:json" json:"liked_by"`
	CommentsCount   int       `gorm:"not null;default:0" json:"comments_count"`
	Published       bool      `gorm:"not null;default:false;index" json:"published"`
	Rejected        bool      `gorm:"not null;default:false;index" json:"rejected"`
	RejectionReason string    `json:"rejection_reason"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AfterFind applies read-time defaults.
func (r *CommunityRecipe) AfterFind(_ *gorm.DB) error {
	r.Normalize()
	if r.LikedBy == nil {
		r.LikedBy = []uint{}
	}
	return nil
}

// LikedByUser reports whether userID has liked the recipe.
func (r *CommunityRecipe) LikedByUser(userID uint) bool {
	return slices.Contains(r.LikedBy, userID)
}

// ToggleLike flips userID's like and keeps LikesCount equal to len(LikedBy).
// It returns the new liked state.
func (r *CommunityRecipe) ToggleLike(userID uint) bool {
	liked := false
	if idx := slices.Index(r.LikedBy, userID); idx >= 0 {
		r.LikedBy = slices.Delete(r.LikedBy, idx, idx+1)
	} else {
		r.LikedBy = append(r.LikedBy, userID)
		liked = true
	}
	r.LikesCount = len(r.LikedBy)
	return liked
}

// PendingReview reports whether the recipe awaits an admin decision.
func (r *CommunityRecipe) PendingReview() bool {
	return !r.Published && !r.Rejected
}

// LikeResult is returned after toggling a like.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}
