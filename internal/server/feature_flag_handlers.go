package server

import (
	"log/slog"

	"recetario/internal/middleware"
	"recetario/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}

// UpdateFeatureFlag handles PUT /api/admin/feature-flags/:name.
// Values are on, off or a rollout percentage such as 25%. Changes last until restart.
func (s *Server) UpdateFeatureFlag(c *fiber.Ctx) error {
	name := c.Params("name")
	var req struct {
		Value string `json:"value"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.featureFlags.Set(name, req.Value); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}

	middleware.Logger.InfoContext(c.UserContext(), "Feature flag updated",
		slog.String("flag", name), slog.String("value", req.Value))
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
	})
}
