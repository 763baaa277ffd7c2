package server

import (
	"context"
	"time"

	"recetario/internal/models"
	"recetario/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PublicProfile is what other users can see of an account.
type PublicProfile struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photo_url"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toPublicProfile(u *models.User) PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, PhotoURL: u.PhotoURL, Role: u.Role, CreatedAt: u.CreatedAt}
}

// GetMyProfile handles GET /api/users/me
// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update name and photo
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{name=string,photo_url=string} true "Fields to change"
// @Success 200 {object} models.User
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name     *string `json:"name"`
		PhotoURL *string `json:"photo_url"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   currentUserID(c),
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyName handles PUT /api/users/me/name
func (s *Server) UpdateMyName(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.ChangeDisplayName(c.UserContext(), currentUserID(c), req.Name)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(toPublicProfile(user))
}

func (s *Server) GetMyFavorites(c *fiber.Ctx) error {
	ids, err := s.userService.ListFavoriteIDs(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"favorite_recipe_ids": ids})
}

func (s *Server) GetMyFavoriteRecipes(c *fiber.Ctx) error {
	recipes, err := s.userService.FavoriteRecipes(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(recipes)
}

// AddFavorite handles POST /api/users/me/favorites/:recipeId
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	return s.changeFavorite(c, s.userService.AddFavorite)
}

// RemoveFavorite handles DELETE /api/users/me/favorites/:recipeId
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	return s.changeFavorite(c, s.userService.RemoveFavorite)
}

// ToggleFavorite handles POST /api/users/me/favorites/:recipeId/toggle
func (s *Server) ToggleFavorite(c *fiber.Ctx) error {
	return s.changeFavorite(c, s.userService.ToggleFavorite)
}

func (s *Server) changeFavorite(c *fiber.Ctx, op func(ctx context.Context, userID, recipeID uint) (*service.FavoriteResult, error)) error {
	recipeID, err := s.parseID(c, "recipeId")
	if err != nil {
		return nil
	}
	result, err := op(c.UserContext(), currentUserID(c), recipeID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	invalidatePopular(c.UserContext())
	return c.JSON(result)
}

// GetAllUsers handles GET /api/admin/users
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPaginationLimit)
	users, err := s.userService.ListUsers(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(users)
}

// GetAdmins handles GET /api/admin/users/admins
func (s *Server) GetAdmins(c *fiber.Ctx) error {
	admins, err := s.userService.ListAdmins(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(admins)
}

// SetUserRole handles PUT /api/admin/users/:id/role
// @Summary Promote or demote a user
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body object{role=string} true "admin or usuario"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/users/{id}/role [put]
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.SetRole(c.UserContext(), currentUserID(c), id, req.Role)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}
