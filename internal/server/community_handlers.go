package server

import (
	"recetario/internal/models"
	"recetario/internal/notifications"
	"recetario/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CommunityRecipeRequest is the body for creating or replacing a community recipe.
type CommunityRecipeRequest struct {
	models.RecipeContent
}

// CommunityRecipeResponse adds the viewer's like state to a recipe.
type CommunityRecipeResponse struct {
	*models.CommunityRecipe
	LikedByMe bool `json:"liked_by_me"`
}

// GetCommunityFeed handles GET /api/community
// @Summary Community feed
// @Description Published community recipes, newest first
// @Tags community
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.CommunityRecipe
// @Router /community [get]
func (s *Server) GetCommunityFeed(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPaginationLimit)
	recipes, err := s.communityService.Feed(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(recipes)
}

// GetCommunityRecipe handles GET /api/community/:id
func (s *Server) GetCommunityRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	recipe, err := s.communityService.Get(c.UserContext(), id, viewerID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(CommunityRecipeResponse{CommunityRecipe: recipe, LikedByMe: recipe.LikedByUser(viewerID)})
}

// GetMyCommunityRecipes handles GET /api/community/mine, including unpublished and rejected ones.
func (s *Server) GetMyCommunityRecipes(c *fiber.Ctx) error {
	recipes, err := s.communityService.ListMine(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(recipes)
}

// CreateCommunityRecipe handles POST /api/community
// @Summary Share a recipe
// @Description New recipes wait for admin review before they appear in the feed
// @Tags community
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CommunityRecipeRequest true "Recipe"
// @Success 201 {object} models.CommunityRecipe
// @Failure 400 {object} models.ErrorResponse
// @Router /community [post]
func (s *Server) CreateCommunityRecipe(c *fiber.Ctx) error {
	var req CommunityRecipeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	recipe, err := s.communityService.Create(c.UserContext(), service.CreateCommunityRecipeInput{
		AuthorID: currentUserID(c),
		Content:  req.RecipeContent,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(recipe)
}

// UpdateCommunityRecipe handles PUT /api/community/:id
func (s *Server) UpdateCommunityRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CommunityRecipeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	recipe, err := s.communityService.Update(c.UserContext(), service.UpdateCommunityRecipeInput{
		UserID:   currentUserID(c),
		RecipeID: id,
		Content:  req.RecipeContent,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(recipe)
}

// DeleteCommunityRecipe handles DELETE /api/community/:id
func (s *Server) DeleteCommunityRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.communityService.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleCommunityLike handles POST /api/community/:id/like
// @Summary Like or unlike a recipe
// @Tags community
// @Security BearerAuth
// @Produce json
// @Param id path int true "Community recipe ID"
// @Success 200 {object} models.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /community/{id}/like [post]
func (s *Server) ToggleCommunityLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	recipe, result, err := s.communityService.ToggleLike(c.UserContext(), id, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	payload := map[string]any{
		"recipe_id":   recipe.ID,
		"user_id":     userID,
		"liked":       result.Liked,
		"likes_count": result.LikesCount,
	}
	s.publishBroadcastEvent(c.UserContext(), notifications.EventRecipeLiked, payload)
	if result.Liked && recipe.AuthorID != userID {
		s.publishUserEvent(c.UserContext(), recipe.AuthorID, notifications.EventRecipeLiked, payload)
	}
	return c.JSON(result)
}

// GetPendingCommunityRecipes handles GET /api/admin/community/pending
func (s *Server) GetPendingCommunityRecipes(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPaginationLimit)
	recipes, err := s.communityService.Pending(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(recipes)
}

// PublishCommunityRecipe handles POST /api/admin/community/:id/publish
func (s *Server) PublishCommunityRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	recipe, err := s.communityService.Publish(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	payload := map[string]any{
		"recipe_id":   recipe.ID,
		"name":        recipe.Name,
		"author_id":   recipe.AuthorID,
		"author_name": recipe.AuthorName,
	}
	s.publishBroadcastEvent(c.UserContext(), notifications.EventCommunityRecipePublished, payload)
	return c.JSON(recipe)
}

// RejectCommunityRecipe handles POST /api/admin/community/:id/reject
// @Summary Reject a community recipe
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Community recipe ID"
// @Param request body object{reason=string} true "Reason shown to the author"
// @Success 200 {object} models.CommunityRecipe
// @Router /admin/community/{id}/reject [post]
func (s *Server) RejectCommunityRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	recipe, err := s.communityService.Reject(c.UserContext(), service.ReviewCommunityRecipeInput{
		RecipeID: id,
		Reason:   req.Reason,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishUserEvent(c.UserContext(), recipe.AuthorID, notifications.EventCommunityRecipeRejected, map[string]any{
		"recipe_id": recipe.ID,
		"name":      recipe.Name,
		"reason":    recipe.RejectionReason,
	})
	return c.JSON(recipe)
}
