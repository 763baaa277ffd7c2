package repository

import (
	"context"
	"errors"

	"recetario/internal/cache"
	"recetario/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommunityRecipeRepository defines persistence operations for community recipes.
type CommunityRecipeRepository interface {
	Create(ctx context.Context, recipe *models.CommunityRecipe) error
	GetByID(ctx context.Context, id uint) (*models.CommunityRecipe, error)
	Update(ctx context.Context, recipe *models.CommunityRecipe) error
	Delete(ctx context.Context, id uint) error
	ListPublished(ctx context.Context, limit, offset int) ([]models.CommunityRecipe, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.CommunityRecipe, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.CommunityRecipe, error)
	ListAll(ctx context.Context) ([]models.CommunityRecipe, error)
	SetReview(ctx context.Context, id uint, published, rejected bool, reason string) error
	ToggleLike(ctx context.Context, id, userID uint) (*models.LikeResult, error)
}

type communityRecipeRepository struct {
	db *gorm.DB
}

// NewCommunityRecipeRepository returns a new CommunityRecipeRepository implementation.
func NewCommunityRecipeRepository(db *gorm.DB) CommunityRecipeRepository {
	return &communityRecipeRepository{db: db}
}

func (r *communityRecipeRepository) Create(ctx context.Context, recipe *models.CommunityRecipe) error {
	if recipe.LikedBy == nil {
		recipe.LikedBy = []uint{}
	}
	if err := r.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRecipeRepository) GetByID(ctx context.Context, id uint) (*models.CommunityRecipe, error) {
	var recipe models.CommunityRecipe
	err := cache.Aside(ctx, cache.CommunityRecipeKey(id), &recipe, cache.RecipeTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&recipe, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Community recipe", id)
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

// Update writes the content and review fields. Likes and comment counters are left alone.
func (r *communityRecipeRepository) Update(ctx context.Context, recipe *models.CommunityRecipe) error {
	res := r.db.WithContext(ctx).Model(recipe).
		Select("name", "description", "image_url", "prep_time_minutes", "difficulty", "servings",
			"category", "country", "ingredients", "steps", "is_vegetarian", "is_vegan", "price_tier",
			"published", "rejected", "rejection_reason").
		Updates(recipe)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Community recipe", recipe.ID)
	}
	cache.InvalidateCommunityRecipe(ctx, recipe.ID)
	return nil
}

// Delete removes the recipe and its comments in one transaction.
func (r *communityRecipeRepository) Delete(ctx context.Context, id uint) error {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.CommunityRecipe{}, id)
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	if deleted == 0 {
		return models.NewNotFoundError("Community recipe", id)
	}
	cache.InvalidateCommunityRecipe(ctx, id)
	return nil
}

func (r *communityRecipeRepository) ListPublished(ctx context.Context, limit, offset int) ([]models.CommunityRecipe, error) {
	limit, offset = clampPage(limit, offset)
	var recipes []models.CommunityRecipe
	if err := readDB(r.db).WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&recipes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

func (r *communityRecipeRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.CommunityRecipe, error) {
	var recipes []models.CommunityRecipe
	if err := readDB(r.db).WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Find(&recipes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

// ListPending returns recipes neither published nor rejected, oldest first.
func (r *communityRecipeRepository) ListPending(ctx context.Context, limit, offset int) ([]models.CommunityRecipe, error) {
	limit, offset = clampPage(limit, offset)
	var recipes []models.CommunityRecipe
	if err := readDB(r.db).WithContext(ctx).
		Where("published = ? AND rejected = ?", false, false).
		Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&recipes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

func (r *communityRecipeRepository) ListAll(ctx context.Context) ([]models.CommunityRecipe, error) {
	var recipes []models.CommunityRecipe
	if err := readDB(r.db).WithContext(ctx).Order("id ASC").Find(&recipes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

func (r *communityRecipeRepository) SetReview(ctx context.Context, id uint, published, rejected bool, reason string) error {
	res := r.db.WithContext(ctx).Model(&models.CommunityRecipe{}).Where("id = ?", id).Updates(map[string]interface{}{
		"published":        published,
		"rejected":         rejected,
		"rejection_reason": reason,
	})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Community recipe", id)
	}
	cache.InvalidateCommunityRecipe(ctx, id)
	return nil
}

// ToggleLike flips userID's like under a row lock so the set and the counter move together.
func (r *communityRecipeRepository) ToggleLike(ctx context.Context, id, userID uint) (*models.LikeResult, error) {
	var result models.LikeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.CommunityRecipe
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&recipe, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Community recipe", id)
			}
			return err
		}
		result.Liked = recipe.ToggleLike(userID)
		result.LikesCount = recipe.LikesCount
		return tx.Model(&recipe).Select("liked_by", "likes_count").Updates(&recipe).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateCommunityRecipe(ctx, id)
	return &result, nil
}
