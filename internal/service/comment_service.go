package service

import (
	"context"
	"strings"

	"recetario/internal/models"
	"recetario/internal/repository"
	"recetario/internal/validation"
)

type CommentService struct {
	commentRepo   repository.CommentRepository
	communityRepo repository.CommunityRecipeRepository
	userRepo      repository.UserRepository
	isAdmin       AdminChecker
}

type CreateCommentInput struct {
	UserID   uint
	RecipeID uint
	Text     string
	ParentID *uint
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

// CreatedComment is a new comment plus the recipe it belongs to.
type CreatedComment struct {
	Comment *models.Comment
	Recipe  *models.CommunityRecipe
	// Parent is set for replies.
	Parent *models.Comment
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	communityRepo repository.CommunityRecipeRepository,
	userRepo repository.UserRepository,
	isAdmin AdminChecker,
) *CommentService {
	return &CommentService{
		commentRepo:   commentRepo,
		communityRepo: communityRepo,
		userRepo:      userRepo,
		isAdmin:       isAdmin,
	}
}

// ListComments returns the top-level comments of a recipe, oldest first.
// Threads of hidden recipes are only visible to the author and admins.
func (s *CommentService) ListComments(ctx context.Context, recipeID, viewerID uint, limit, offset int) ([]models.Comment, error) {
	if _, err := visibleCommunityRecipe(ctx, s.communityRepo, s.isAdmin, recipeID, viewerID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListTopLevel(ctx, recipeID, limit, offset)
}

func (s *CommentService) ListReplies(ctx context.Context, commentID, viewerID uint) ([]models.Comment, error) {
	parent, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if _, err := visibleCommunityRecipe(ctx, s.communityRepo, s.isAdmin, parent.RecipeID, viewerID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListReplies(ctx, commentID)
}

// CreateComment adds a comment or a reply. Replies to replies attach to the root comment.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*CreatedComment, error) {
	text := strings.TrimSpace(in.Text)
	if err := validation.ValidateComment(text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	recipe, err := s.communityRepo.GetByID(ctx, in.RecipeID)
	if err != nil {
		return nil, err
	}
	if !recipe.Published {
		return nil, models.NewNotFoundError("Community recipe", in.RecipeID)
	}

	author, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		RecipeID:    recipe.ID,
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		AuthorPhoto: author.PhotoURL,
		Text:        text,
	}

	var parent *models.Comment
	if in.ParentID != nil {
		parent, err = s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.RecipeID != recipe.ID {
			return nil, models.NewValidationError("Parent comment belongs to another recipe")
		}
		if parent.ParentID != nil {
			parent, err = s.commentRepo.GetByID(ctx, *parent.ParentID)
			if err != nil {
				return nil, err
			}
		}
		rootID := parent.ID
		comment.ParentID = &rootID
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return &CreatedComment{Comment: comment, Recipe: recipe, Parent: parent}, nil
}

// DeleteComment removes a comment, and its replies when it is a root. Allowed for the author and admins.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	allowed, err := ensureOwnerOrAdmin(ctx, s.isAdmin, comment.AuthorID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}

	if _, err := s.commentRepo.Delete(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
