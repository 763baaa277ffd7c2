package server

import (
	"io"
	"strings"

	"recetario/internal/models"
	"recetario/internal/service"

	"github.com/gofiber/fiber/v2"
)

const mediaCacheControl = "public, max-age=31536000, immutable"

// UploadImage handles POST /api/images
// @Summary Upload a recipe or profile photo
// @Tags images
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Param kind formData string false "recipe or profile"
// @Success 201 {object} service.UploadedImage
// @Failure 400 {object} models.ErrorResponse
// @Router /images [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	kind := c.FormValue("kind", service.ImageKindRecipe)
	uploaded, err := s.imageService.Upload(service.UploadImageInput{
		UserID:      currentUserID(c),
		Kind:        kind,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(uploaded)
}

// ServeMedia handles GET /media/:kind/:hash/:file where file is image.jpg or image.webp.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	file := c.Params("file")
	format, ok := strings.CutPrefix(file, "image.")
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Image", file))
	}

	path, err := s.imageService.ResolveForServing(c.Params("kind"), c.Params("hash"), format)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, mediaCacheControl)
	return c.SendFile(path)
}
