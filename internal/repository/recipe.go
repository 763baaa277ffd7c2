package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"recetario/internal/cache"
	"recetario/internal/models"

	"gorm.io/gorm"
)

// RecipeRepository defines persistence operations for curated recipes.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id uint) (*models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) error
	SetActive(ctx context.Context, id uint, active bool) error
	Moderate(ctx context.Context, id uint, status models.ModerationStatus, moderatorID uint, at time.Time, reason string) error
	List(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, int64, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Recipe, error)
	ListRecent(ctx context.Context, limit int) ([]models.Recipe, error)
	ListAll(ctx context.Context) ([]models.Recipe, error)
	Categories(ctx context.Context) ([]string, error)
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository returns a new RecipeRepository implementation.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if err := r.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return models.NewInternalError(err)
	}
	// An approved recipe enters the popularity candidates right away.
	cache.Invalidate(ctx, cache.CategoriesKey, cache.PopularRecipesKey)
	return nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := cache.Aside(ctx, cache.RecipeKey(id), &recipe, cache.RecipeTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&recipe, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Recipe", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Update writes the content fields. Status and activity change through Moderate and SetActive.
func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	res := r.db.WithContext(ctx).Model(recipe).
		Select("name", "description", "image_url", "prep_time_minutes", "difficulty", "servings",
			"category", "country", "ingredients", "steps", "is_vegetarian", "is_vegan", "price_tier").
		Updates(recipe)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Recipe", recipe.ID)
	}
	cache.InvalidateRecipe(ctx, recipe.ID)
	return nil
}

func (r *recipeRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Recipe", id)
	}
	cache.InvalidateRecipe(ctx, id)
	return nil
}

// Moderate overwrites the review fields in a single statement; concurrent moderators resolve last-write-wins.
func (r *recipeRepository) Moderate(ctx context.Context, id uint, status models.ModerationStatus, moderatorID uint, at time.Time, reason string) error {
	res := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":           status,
		"moderator_id":     moderatorID,
		"moderated_at":     at,
		"rejection_reason": reason,
	})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Recipe", id)
	}
	cache.InvalidateRecipe(ctx, id)
	return nil
}

func (r *recipeRepository) List(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, int64, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset)

	q := readDB(r.db).WithContext(ctx).Model(&models.Recipe{})
	if !filter.IncludeHidden {
		q = q.Where("active = ? AND status = ?", true, models.StatusApproved)
	} else if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.Country != "" {
		q = q.Where("LOWER(country) = ?", strings.ToLower(filter.Country))
	}
	if filter.Difficulty != "" {
		q = q.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.PriceTier != "" {
		q = q.Where("price_tier = ?", filter.PriceTier)
	}
	if filter.Vegetarian != nil {
		q = q.Where("is_vegetarian = ?", *filter.Vegetarian)
	}
	if filter.Vegan != nil {
		q = q.Where("is_vegan = ?", *filter.Vegan)
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var recipes []models.Recipe
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&recipes).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return recipes, total, nil
}

// ListByIDs returns the recipes in the order of ids, skipping missing ones.
func (r *recipeRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Recipe, error) {
	if len(ids) == 0 {
		return []models.Recipe{}, nil
	}
	var found []models.Recipe
	if err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	byID := make(map[uint]models.Recipe, len(found))
	for _, rec := range found {
		byID[rec.ID] = rec
	}
	ordered := make([]models.Recipe, 0, len(found))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, rec)
		}
	}
	return ordered, nil
}

// ListRecent returns up to limit visible recipes, newest first.
func (r *recipeRepository) ListRecent(ctx context.Context, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := readDB(r.db).WithContext(ctx).
		Where("active = ? AND status = ?", true, models.StatusApproved).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

func (r *recipeRepository) ListAll(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := readDB(r.db).WithContext(ctx).Order("id ASC").Find(&recipes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

// Categories lists the distinct categories of visible recipes.
func (r *recipeRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoriesTTL, func() error {
		return readDB(r.db).WithContext(ctx).Model(&models.Recipe{}).
			Where("active = ? AND status = ? AND category <> ''", true, models.StatusApproved).
			Distinct().
			Order("category ASC").
			Pluck("category", &categories).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}
