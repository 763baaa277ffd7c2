package service

import (
	"context"
	"strings"

	"recetario/internal/models"
	"recetario/internal/repository"
	"recetario/internal/validation"
)

type UserService struct {
	userRepo   repository.UserRepository
	recipeRepo repository.RecipeRepository
}

type UpdateProfileInput struct {
	UserID   uint
	Name     *string
	PhotoURL *string
}

// FavoriteResult reports the favorites after a change.
type FavoriteResult struct {
	Favorited   bool   `json:"favorited"`
	FavoriteIDs []uint `json:"favorite_recipe_ids"`
}

func NewUserService(userRepo repository.UserRepository, recipeRepo repository.RecipeRepository) *UserService {
	return &UserService{userRepo: userRepo, recipeRepo: recipeRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = name
	}
	if in.PhotoURL != nil {
		user.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeDisplayName updates only the name.
func (s *UserService) ChangeDisplayName(ctx context.Context, userID uint, name string) (*models.User, error) {
	return s.UpdateProfile(ctx, UpdateProfileInput{UserID: userID, Name: &name})
}

// SetRole assigns a role. Admins cannot demote themselves.
func (s *UserService) SetRole(ctx context.Context, actorID, targetID uint, role string) (*models.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, models.NewValidationError("Role must be admin or usuario")
	}
	if actorID != 0 && actorID == targetID && role != models.RoleAdmin {
		return nil, models.NewValidationError("You cannot remove your own admin role")
	}
	if err := s.userRepo.SetRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RoleAdmin)
}

func (s *UserService) ListFavoriteIDs(ctx context.Context, userID uint) ([]uint, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.FavoriteRecipeIDs == nil {
		return []uint{}, nil
	}
	return user.FavoriteRecipeIDs, nil
}

// FavoriteRecipes returns the user's visible favorite recipes in favorite order.
func (s *UserService) FavoriteRecipes(ctx context.Context, userID uint) ([]models.Recipe, error) {
	ids, err := s.ListFavoriteIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	recipes, err := s.recipeRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	visible := recipes[:0]
	for _, r := range recipes {
		if r.Visible() {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

func (s *UserService) AddFavorite(ctx context.Context, userID, recipeID uint) (*FavoriteResult, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if !recipe.Visible() {
		return nil, models.NewNotFoundError("Recipe", recipeID)
	}
	user, err := s.userRepo.UpdateFavorites(ctx, userID, func(u *models.User) bool {
		return u.AddFavorite(recipeID)
	})
	if err != nil {
		return nil, err
	}
	return &FavoriteResult{Favorited: true, FavoriteIDs: user.FavoriteRecipeIDs}, nil
}

// RemoveFavorite drops a recipe even if it no longer exists.
func (s *UserService) RemoveFavorite(ctx context.Context, userID, recipeID uint) (*FavoriteResult, error) {
	user, err := s.userRepo.UpdateFavorites(ctx, userID, func(u *models.User) bool {
		return u.RemoveFavorite(recipeID)
	})
	if err != nil {
		return nil, err
	}
	return &FavoriteResult{Favorited: false, FavoriteIDs: nonNilIDs(user.FavoriteRecipeIDs)}, nil
}

func (s *UserService) ToggleFavorite(ctx context.Context, userID, recipeID uint) (*FavoriteResult, error) {
	ids, err := s.ListFavoriteIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == recipeID {
			return s.RemoveFavorite(ctx, userID, recipeID)
		}
	}
	return s.AddFavorite(ctx, userID, recipeID)
}

func nonNilIDs(ids []uint) []uint {
	if ids == nil {
		return []uint{}
	}
	return ids
}
