package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix            = "user:%d"
	RecipeKeyPrefix          = "recipe:%d"
	CommunityRecipeKeyPrefix = "community_recipe:%d"
	PopularRecipesKey        = "recipes:popular"
	CategoriesKey            = "recipes:categories"
)

const (
	UserTTL       = 5 * time.Minute
	RecipeTTL     = 10 * time.Minute
	PopularTTL    = 5 * time.Minute
	CategoriesTTL = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func RecipeKey(recipeID uint) string {
	return fmt.Sprintf(RecipeKeyPrefix, recipeID)
}

func CommunityRecipeKey(recipeID uint) string {
	return fmt.Sprintf(CommunityRecipeKeyPrefix, recipeID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	// Favorites feed the popularity ranking.
	Invalidate(ctx, UserKey(userID), PopularRecipesKey)
}

func InvalidateRecipe(ctx context.Context, recipeID uint) {
	Invalidate(ctx, RecipeKey(recipeID), PopularRecipesKey, CategoriesKey)
}

func InvalidateCommunityRecipe(ctx context.Context, recipeID uint) {
	Invalidate(ctx, CommunityRecipeKey(recipeID))
}
