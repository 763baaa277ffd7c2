package repository

import (
	"context"
	"errors"

	"recetario/internal/cache"
	"recetario/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListTopLevel(ctx context.Context, recipeID uint, limit, offset int) ([]models.Comment, error)
	ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error)
	ListAll(ctx context.Context) ([]models.Comment, error)
	Delete(ctx context.Context, comment *models.Comment) (int, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and bumps the recipe's comment count and the parent's reply count.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		res := tx.Model(&models.CommunityRecipe{}).Where("id = ?", comment.RecipeID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Community recipe", comment.RecipeID)
		}
		if comment.ParentID != nil {
			if err := tx.Model(&models.Comment{}).Where("id = ?", *comment.ParentID).
				UpdateColumn("replies_count", gorm.Expr("replies_count + ?", 1)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateCommunityRecipe(ctx, comment.RecipeID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListTopLevel(ctx context.Context, recipeID uint, limit, offset int) ([]models.Comment, error) {
	limit, offset = clampPage(limit, offset)
	var comments []models.Comment
	if err := readDB(r.db).WithContext(ctx).
		Where("recipe_id = ? AND parent_id IS NULL", recipeID).
		Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := readDB(r.db).WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) ListAll(ctx context.Context) ([]models.Comment, error) {
	var comments []models.Comment
	if err := readDB(r.db).WithContext(ctx).Order("id ASC").Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Delete removes the comment (and its replies when it is a root) and lowers the counters.
// It returns the number of comments removed.
func (r *commentRepository) Delete(ctx context.Context, comment *models.Comment) (int, error) {
	removed := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if comment.ParentID == nil {
			res := tx.Where("parent_id = ?", comment.ID).Delete(&models.Comment{})
			if res.Error != nil {
				return res.Error
			}
			removed += int(res.RowsAffected)
		} else {
			if err := tx.Model(&models.Comment{}).Where("id = ?", *comment.ParentID).
				UpdateColumn("replies_count", decrementExpr("replies_count", 1)).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&models.Comment{}, comment.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Comment", comment.ID)
		}
		removed++

		return tx.Model(&models.CommunityRecipe{}).Where("id = ?", comment.RecipeID).
			UpdateColumn("comments_count", decrementExpr("comments_count", removed)).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return 0, err
		}
		return 0, models.NewInternalError(err)
	}
	cache.InvalidateCommunityRecipe(ctx, comment.RecipeID)
	return removed, nil
}
