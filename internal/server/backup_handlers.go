package server

import (
	"bytes"
	"fmt"
	"log/slog"

	"recetario/internal/backup"
	"recetario/internal/middleware"
	"recetario/internal/models"

	"github.com/gofiber/fiber/v2"
)

// requireBackups answers 503 when no backup store could be configured.
func (s *Server) requireBackups(c *fiber.Ctx) bool {
	if s.backupService != nil {
		return true
	}
	_ = models.RespondWithError(c, fiber.StatusServiceUnavailable,
		models.NewUnavailableError("Backups are not configured", nil))
	return false
}

// RunBackup handles POST /api/admin/backups
// @Summary Run a backup
// @Description Exports users, recipes, community recipes and comments to the configured store
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 201 {object} backup.Result
// @Failure 503 {object} models.ErrorResponse
// @Router /admin/backups [post]
func (s *Server) RunBackup(c *fiber.Ctx) error {
	if !s.requireBackups(c) {
		return nil
	}
	result, err := s.backupService.Run(c.UserContext())
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "Backup failed", slog.String("error", err.Error()))
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ListBackups handles GET /api/admin/backups
func (s *Server) ListBackups(c *fiber.Ctx) error {
	if !s.requireBackups(c) {
		return nil
	}
	objects, err := s.backupService.List(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if objects == nil {
		objects = []backup.Object{}
	}
	return c.JSON(fiber.Map{
		"store":   s.backupService.StoreName(),
		"folder":  s.backupService.Folder(),
		"backups": objects,
	})
}

// DownloadBackup handles GET /api/admin/backups/:name
func (s *Server) DownloadBackup(c *fiber.Ctx) error {
	if !s.requireBackups(c) {
		return nil
	}
	name := c.Params("name")
	if !backup.ValidName(name) {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid backup name"))
	}

	var buf bytes.Buffer
	if err := s.backupService.Download(c.UserContext(), name, &buf); err != nil {
		return models.RespondWithAppError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}

// DeleteBackup handles DELETE /api/admin/backups/:name
func (s *Server) DeleteBackup(c *fiber.Ctx) error {
	if !s.requireBackups(c) {
		return nil
	}
	if err := s.backupService.Delete(c.UserContext(), c.Params("name")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
