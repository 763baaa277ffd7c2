// Package models contains data structures for the application's domain models.
package models

import (
	"slices"
	"time"
)

// Roles a user can hold. Role is stored as an open string so unknown values survive reads.
const (
	RoleAdmin = "admin"
	RoleUser  = "usuario"
)

// User represents an account of the recipe app.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"not null" json:"name"`
	Email             string    `gorm:"uniqueIndex;not null" json:"email"`
	Password          string    `gorm:"not null" json:"-"`
	Role              string    `gorm:"not null;default:usuario;index" json:"role"`
	PhotoURL          string    `json:"photo_url"`
	FavoriteRecipeIDs []uint    `gorm:"type:text;serializer:json" json:"favorite_recipe_ids"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasFavorite reports whether recipeID is in the user's favorites.
func (u *User) HasFavorite(recipeID uint) bool {
	return slices.Contains(u.FavoriteRecipeIDs, recipeID)
}

// AddFavorite appends recipeID if absent and reports whether the list changed.
func (u *User) AddFavorite(recipeID uint) bool {
	if u.HasFavorite(recipeID) {
		return false
	}
	u.FavoriteRecipeIDs = append(u.FavoriteRecipeIDs, recipeID)
	return true
}

// RemoveFavorite drops recipeID and reports whether the list changed.
func (u *User) RemoveFavorite(recipeID uint) bool {
	idx := slices.Index(u.FavoriteRecipeIDs, recipeID)
	if idx < 0 {
		return false
	}
	u.FavoriteRecipeIDs = slices.Delete(u.FavoriteRecipeIDs, idx, idx+1)
	return true
}

// ExportedUser is the password-free view of a user written into backups.
type ExportedUser struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	PhotoURL          string    `json:"photo_url"`
	FavoriteRecipeIDs []uint    `json:"favorite_recipe_ids"`
	CreatedAt         time.Time `json:"created_at"`
}

// Export returns the backup view of the user.
func (u User) Export() ExportedUser {
	favs := u.FavoriteRecipeIDs
	if favs == nil {
		favs = []uint{}
	}
	return ExportedUser{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		PhotoURL:          u.PhotoURL,
		FavoriteRecipeIDs: favs,
		CreatedAt:         u.CreatedAt,
	}
}
