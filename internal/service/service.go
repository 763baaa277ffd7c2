// Package service implements the application's domain logic on top of the repositories.
package service

import (
	"context"

	"recetario/internal/models"
	"recetario/internal/repository"
)

// AdminChecker reports whether a user holds the admin role.
type AdminChecker func(ctx context.Context, userID uint) (bool, error)

func ensureOwnerOrAdmin(ctx context.Context, isAdmin AdminChecker, ownerID, userID uint) (bool, error) {
	if ownerID == userID {
		return true, nil
	}
	if isAdmin == nil {
		return false, nil
	}
	return isAdmin(ctx, userID)
}

// visibleCommunityRecipe loads a community recipe for a viewer. Unpublished recipes read as
// not found unless the viewer is the author or an admin. viewerID 0 is anonymous.
func visibleCommunityRecipe(
	ctx context.Context,
	repo repository.CommunityRecipeRepository,
	isAdmin AdminChecker,
	id, viewerID uint,
) (*models.CommunityRecipe, error) {
	recipe, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.Published {
		return recipe, nil
	}
	if viewerID == 0 {
		return nil, models.NewNotFoundError("Community recipe", id)
	}
	allowed, err := ensureOwnerOrAdmin(ctx, isAdmin, recipe.AuthorID, viewerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewNotFoundError("Community recipe", id)
	}
	return recipe, nil
}
