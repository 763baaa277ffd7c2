package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Difficulty of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// PriceTier is the rough cost bracket of a recipe.
type PriceTier string

const (
	PriceLow    PriceTier = "low"
	PriceMedium PriceTier = "medium"
	PriceHigh   PriceTier = "high"
)

// ModerationStatus is the review state of a curated recipe.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

// ParseDifficulty accepts English and Spanish spellings. Empty input yields easy.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "easy", "facil", "fácil":
		return DifficultyEasy, true
	case "medium", "media", "medio":
		return DifficultyMedium, true
	case "hard", "dificil", "difícil":
		return DifficultyHard, true
	}
	return "", false
}

// ParsePriceTier accepts English and Spanish spellings. Empty input yields low.
func ParsePriceTier(s string) (PriceTier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low", "bajo", "economico", "económico":
		return PriceLow, true
	case "medium", "medio":
		return PriceMedium, true
	case "high", "alto", "caro":
		return PriceHigh, true
	}
	return "", false
}

// ParseModerationStatus parses one of pending, approved or rejected.
func ParseModerationStatus(s string) (ModerationStatus, bool) {
	switch ModerationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// DietaryFlags derives the vegetarian and vegan flags from a category name.
// Vegan implies vegetarian.
func DietaryFlags(category string) (vegetarian, vegan bool) {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "vegana", "vegan":
		return true, true
	case "vegetariana", "vegetarian":
		return true, false
	}
	return false, false
}

// RecipeContent holds the fields shared by curated and community recipes.
type RecipeContent struct {
	Name            string     `gorm:"not null" json:"name"`
	Description     string     `gorm:"type:text" json:"description"`
	ImageURL        string     `json:"image_url"`
	PrepTimeMinutes int        `json:"prep_time_minutes"`
	Difficulty      Difficulty `gorm:"type:varchar(16);default:easy" json:"difficulty"`
	Servings        int        `json:"servings"`
	Category        string     `gorm:"index" json:"category"`
	Country         string     `gorm:"index" json:"country"`
	Ingredients     []string   `gorm:"type:text;serializer:json" json:"ingredients"`
	Steps           []string   `gorm:"type:text;serializer:json" json:"steps"`
	IsVegetarian    bool       `json:"is_vegetarian"`
	IsVegan         bool       `json:"is_vegan"`
	PriceTier       PriceTier  `gorm:"type:varchar(16);default:low" json:"price_tier"`
}

// ApplyDietaryFlags sets the dietary flags from the current category.
func (rc *RecipeContent) ApplyDietaryFlags() {
	rc.IsVegetarian, rc.IsVegan = DietaryFlags(rc.Category)
}

// Normalize fills read-time defaults for fields missing in storage.
func (rc *RecipeContent) Normalize() {
	if rc.Difficulty == "" {
		rc.Difficulty = DifficultyEasy
	}
	if rc.PriceTier == "" {
		rc.PriceTier = PriceLow
	}
	if rc.Ingredients == nil {
		rc.Ingredients = []string{}
	}
	if rc.Steps == nil {
		rc.Steps = []string{}
	}
}

// Recipe is a curated recipe authored by an administrator.
type Recipe struct {
	ID uint `gorm:"primaryKey" json:"id"`
	RecipeContent
	Active          bool             `gorm:"not null;default:true;index" json:"active"`
	Status          ModerationStatus `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	ModeratorID     *uint            `json:"moderator_id,omitempty"`
	ModeratedAt     *time.Time       `json:"moderated_at,omitempty"`
	RejectionReason string           `json:"rejection_reason"`
	CreatedAt       time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Visible reports whether a non-admin may see the recipe.
func (r *Recipe) Visible() bool {
	return r.Active && r.Status == StatusApproved
}

// AfterFind applies read-time defaults.
func (r *Recipe) AfterFind(_ *gorm.DB) error {
	r.Normalize()
	if r.Status == "" {
		r.Status = StatusPending
	}
	return nil
}

// PopularRecipe pairs a recipe with the number of users that favorited it.
type PopularRecipe struct {
	Recipe    Recipe `json:"recipe"`
	Favorites int    `json:"favorites"`
}

// RecipeFilter narrows curated recipe listings.
type RecipeFilter struct {
	Category   string
	Country    string
	Difficulty Difficulty
	PriceTier  PriceTier
	Vegetarian *bool
	Vegan      *bool
	Query      string
	Status     ModerationStatus
	// IncludeHidden lists inactive and unapproved recipes too.
	IncludeHidden bool
	Limit         int
	Offset        int
}
