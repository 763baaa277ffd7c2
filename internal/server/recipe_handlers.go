package server

import (
	"strconv"

	"recetario/internal/models"
	"recetario/internal/notifications"
	"recetario/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RecipeListResponse is a page of curated recipes.
type RecipeListResponse struct {
	Recipes []models.Recipe `json:"recipes"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// RecipeRequest is the body admins send to create a curated recipe.
type RecipeRequest struct {
	models.RecipeContent
	// Approve publishes the recipe immediately instead of leaving it pending.
	Approve bool `json:"approve"`
}

// UpdateRecipeRequest is a partial update; omitted fields stay unchanged.
type UpdateRecipeRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	ImageURL        *string  `json:"image_url"`
	PrepTimeMinutes *int     `json:"prep_time_minutes"`
	Difficulty      *string  `json:"difficulty"`
	Servings        *int     `json:"servings"`
	Category        *string  `json:"category"`
	Country         *string  `json:"country"`
	Ingredients     []string `json:"ingredients"`
	Steps           []string `json:"steps"`
	PriceTier       *string  `json:"price_tier"`
}

// parseRecipeFilter reads the catalog query parameters.
// It writes a 400 and returns errResponseWritten for unknown enum values.
func parseRecipeFilter(c *fiber.Ctx) (models.RecipeFilter, error) {
	p := parsePagination(c, defaultPaginationLimit)
	filter := models.RecipeFilter{
		Category: c.Query("category"),
		Country:  c.Query("country"),
		Query:    c.Query("q"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	}

	if raw := c.Query("difficulty"); raw != "" {
		d, ok := models.ParseDifficulty(raw)
		if !ok {
			_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid difficulty"))
			return filter, errResponseWritten
		}
		filter.Difficulty = d
	}
	if raw := c.Query("price_tier"); raw != "" {
		tier, ok := models.ParsePriceTier(raw)
		if !ok {
			_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid price tier"))
			return filter, errResponseWritten
		}
		filter.PriceTier = tier
	}
	for param, dst := range map[string]**bool{"vegetarian": &filter.Vegetarian, "vegan": &filter.Vegan} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid "+param+" filter"))
			return filter, errResponseWritten
		}
		*dst = &v
	}
	return filter, nil
}

// GetRecipes handles GET /api/recipes
// @Summary List curated recipes
// @Description Approved and active recipes, newest first, with optional filters
// @Tags recipes
// @Produce json
// @Param category query string false "Category"
// @Param country query string false "Country"
// @Param difficulty query string false "easy, medium or hard"
// @Param price_tier query string false "low, medium or high"
// @Param vegetarian query bool false "Only vegetarian"
// @Param vegan query bool false "Only vegan"
// @Param q query string false "Name search"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} RecipeListResponse
// @Router /recipes [get]
func (s *Server) GetRecipes(c *fiber.Ctx) error {
	filter, err := parseRecipeFilter(c)
	if err != nil {
		return nil
	}

	recipes, total, err := s.recipeService.List(c.UserContext(), filter)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(RecipeListResponse{Recipes: recipes, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

// GetPopularRecipes handles GET /api/recipes/popular
// @Summary Most popular recipes
// @Description The five visible recipes with the most favorites
// @Tags recipes
// @Produce json
// @Success 200 {array} models.PopularRecipe
// @Router /recipes/popular [get]
func (s *Server) GetPopularRecipes(c *fiber.Ctx) error {
	popular, err := s.recipeService.Popular(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(popular)
}

func (s *Server) GetRecipeCategories(c *fiber.Ctx) error {
	categories, err := s.recipeService.Categories(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// GetRecipe handles GET /api/recipes/:id
// Hidden recipes answer 404 unless the bearer token belongs to an admin.
func (s *Server) GetRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	_, admin := s.viewerIsAdmin(c)

	recipe, err := s.recipeService.Get(c.UserContext(), id, admin)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(recipe)
}

// GetRecipeAdmin handles GET /api/admin/recipes/:id
func (s *Server) GetRecipeAdmin(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	recipe, err := s.recipeService.Get(c.UserContext(), id, true)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(recipe)
}

// GetRecipesByStatus handles GET /api/admin/recipes?status=pending
func (s *Server) GetRecipesByStatus(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPaginationLimit)
	recipes, total, err := s.recipeService.ListByStatus(c.UserContext(), c.Query("status"), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(RecipeListResponse{Recipes: recipes, Total: total, Limit: p.Limit, Offset: p.Offset})
}

// CreateRecipe handles POST /api/admin/recipes
// @Summary Create a curated recipe
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body RecipeRequest true "Recipe"
// @Success 201 {object} models.Recipe
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/recipes [post]
func (s *Server) CreateRecipe(c *fiber.Ctx) error {
	var req RecipeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	recipe, err := s.recipeService.Create(c.UserContext(), service.CreateRecipeInput{
		AdminID: currentUserID(c),
		Content: req.RecipeContent,
		Approve: req.Approve,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if recipe.Visible() {
		invalidatePopular(c.UserContext())
	}
	return c.Status(fiber.StatusCreated).JSON(recipe)
}

// UpdateRecipe handles PUT /api/admin/recipes/:id
func (s *Server) UpdateRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdateRecipeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	recipe, err := s.recipeService.Update(c.UserContext(), service.UpdateRecipeInput{
		RecipeID:        id,
		Name:            req.Name,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		PrepTimeMinutes: req.PrepTimeMinutes,
		Difficulty:      req.Difficulty,
		Servings:        req.Servings,
		Category:        req.Category,
		Country:         req.Country,
		Ingredients:     req.Ingredients,
		Steps:           req.Steps,
		PriceTier:       req.PriceTier,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	invalidatePopular(c.UserContext())
	return c.JSON(recipe)
}

// DeleteRecipe handles DELETE /api/admin/recipes/:id. The recipe is deactivated, not removed.
func (s *Server) DeleteRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.recipeService.SoftDelete(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	invalidatePopular(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}

// RestoreRecipe handles POST /api/admin/recipes/:id/restore
func (s *Server) RestoreRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.recipeService.Restore(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	invalidatePopular(c.UserContext())

	recipe, err := s.recipeService.Get(c.UserContext(), id, true)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(recipe)
}

// ModerateRecipe handles PUT /api/admin/recipes/:id/status
// @Summary Approve or reject a curated recipe
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param request body object{status=string,reason=string} true "Decision"
// @Success 200 {object} models.Recipe
// @Router /admin/recipes/{id}/status [put]
func (s *Server) ModerateRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	recipe, err := s.recipeService.Moderate(c.UserContext(), service.ModerateRecipeInput{
		RecipeID:    id,
		ModeratorID: currentUserID(c),
		Status:      req.Status,
		Reason:      req.Reason,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	invalidatePopular(c.UserContext())

	s.publishBroadcastEvent(c.UserContext(), notifications.EventRecipeModerated, map[string]any{
		"recipe_id": recipe.ID,
		"name":      recipe.Name,
		"status":    recipe.Status,
	})
	return c.JSON(recipe)
}
