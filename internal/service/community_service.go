package service

import (
	"context"
	"strings"

	"recetario/internal/models"
	"recetario/internal/observability"
	"recetario/internal/repository"
	"recetario/internal/validation"
)

type CommunityService struct {
	communityRepo repository.CommunityRecipeRepository
	userRepo      repository.UserRepository
	isAdmin       AdminChecker
}

type CreateCommunityRecipeInput struct {
	AuthorID uint
	Content  models.RecipeContent
}

type UpdateCommunityRecipeInput struct {
	UserID   uint
	RecipeID uint
	Content  models.RecipeContent
}

type ReviewCommunityRecipeInput struct {
	RecipeID uint
	Reason   string
}

func NewCommunityService(
	communityRepo repository.CommunityRecipeRepository,
	userRepo repository.UserRepository,
	isAdmin AdminChecker,
) *CommunityService {
	return &CommunityService{
		communityRepo: communityRepo,
		userRepo:      userRepo,
		isAdmin:       isAdmin,
	}
}

// Feed lists published recipes, newest first.
func (s *CommunityService) Feed(ctx context.Context, limit, offset int) ([]models.CommunityRecipe, error) {
	return s.communityRepo.ListPublished(ctx, limit, offset)
}

// Get returns a recipe. Unpublished recipes are visible to their author and admins only.
func (s *CommunityService) Get(ctx context.Context, id, viewerID uint) (*models.CommunityRecipe, error) {
	return visibleCommunityRecipe(ctx, s.communityRepo, s.isAdmin, id, viewerID)
}

func (s *CommunityService) ListMine(ctx context.Context, userID uint) ([]models.CommunityRecipe, error) {
	return s.communityRepo.ListByAuthor(ctx, userID)
}

// Create stores a new recipe awaiting review, with a snapshot of the author's name and photo.
func (s *CommunityService) Create(ctx context.Context, in CreateCommunityRecipeInput) (*models.CommunityRecipe, error) {
	author, err := s.userRepo.GetByID(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	content := in.Content
	normalizeContent(&content)
	if err := validation.ValidateRecipeContent(&content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	content.ApplyDietaryFlags()

	recipe := &models.CommunityRecipe{
		RecipeContent: content,
		AuthorID:      author.ID,
		AuthorName:    author.Name,
		AuthorPhoto:   author.PhotoURL,
		LikedBy:       []uint{},
	}
	if err := s.communityRepo.Create(ctx, recipe); err != nil {
		return nil, err
	}
	observability.RecipesCreated.WithLabelValues("community").Inc()
	return recipe, nil
}

// Update replaces the content of the author's recipe and sends it back to review.
func (s *CommunityService) Update(ctx context.Context, in UpdateCommunityRecipeInput) (*models.CommunityRecipe, error) {
	recipe, err := s.communityRepo.GetByID(ctx, in.RecipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own recipes")
	}

	content := in.Content
	normalizeContent(&content)
	if err := validation.ValidateRecipeContent(&content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	content.IsVegetarian = recipe.IsVegetarian
	content.IsVegan = recipe.IsVegan
	if !strings.EqualFold(content.Category, recipe.Category) {
		content.ApplyDietaryFlags()
	}

	recipe.RecipeContent = content
	recipe.Published = false
	recipe.Rejected = false
	recipe.RejectionReason = ""

	if err := s.communityRepo.Update(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete removes the recipe and its comments. Allowed for the author and admins.
func (s *CommunityService) Delete(ctx context.Context, recipeID, userID uint) (*models.CommunityRecipe, error) {
	recipe, err := s.communityRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	allowed, err := ensureOwnerOrAdmin(ctx, s.isAdmin, recipe.AuthorID, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("You can only delete your own recipes")
	}
	if err := s.communityRepo.Delete(ctx, recipeID); err != nil {
		return nil, err
	}
	return recipe, nil
}

// ToggleLike likes or unlikes a published recipe and returns the new state.
func (s *CommunityService) ToggleLike(ctx context.Context, recipeID, userID uint) (*models.CommunityRecipe, *models.LikeResult, error) {
	recipe, err := s.communityRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, nil, err
	}
	if !recipe.Published {
		return nil, nil, models.NewNotFoundError("Community recipe", recipeID)
	}

	result, err := s.communityRepo.ToggleLike(ctx, recipeID, userID)
	if err != nil {
		return nil, nil, err
	}
	action := "unlike"
	if result.Liked {
		action = "like"
	}
	observability.LikesToggled.WithLabelValues(action).Inc()
	return recipe, result, nil
}

// Publish approves a recipe for the feed.
func (s *CommunityService) Publish(ctx context.Context, recipeID uint) (*models.CommunityRecipe, error) {
	if err := s.communityRepo.SetReview(ctx, recipeID, true, false, ""); err != nil {
		return nil, err
	}
	observability.ModerationDecisions.WithLabelValues("community", "published").Inc()
	return s.communityRepo.GetByID(ctx, recipeID)
}

// Reject hides a recipe from the feed with a reason shown to its author.
func (s *CommunityService) Reject(ctx context.Context, in ReviewCommunityRecipeInput) (*models.CommunityRecipe, error) {
	reason := strings.TrimSpace(in.Reason)
	if err := validation.ValidateRejectionReason(reason); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.communityRepo.SetReview(ctx, in.RecipeID, false, true, reason); err != nil {
		return nil, err
	}
	observability.ModerationDecisions.WithLabelValues("community", "rejected").Inc()
	return s.communityRepo.GetByID(ctx, in.RecipeID)
}

// Pending lists recipes awaiting review, oldest first.
func (s *CommunityService) Pending(ctx context.Context, limit, offset int) ([]models.CommunityRecipe, error) {
	return s.communityRepo.ListPending(ctx, limit, offset)
}
