package handlers

import (
	"gallery/internal/middleware"
	"gallery/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ImageHandler handles HTTP requests for uploaded images.
type ImageHandler struct {
	imageService *services.ImageService
	logger       *zap.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(imageService *services.ImageService, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		logger:       logger,
	}
}

// RegisterRoutes registers the image routes. Listing needs a valid token;
// uploading and deleting additionally need the admin role.
func (h *ImageHandler) RegisterRoutes(router fiber.Router, authRequired, adminOnly fiber.Handler) {
	imageRoutes := router.Group("/image", authRequired)
	imageRoutes.Post("/upload", adminOnly, h.HandleUpload)
	imageRoutes.Get("/images", h.HandleList)
	imageRoutes.Delete("/delete/:id", adminOnly, h.HandleDelete)
}

// HandleUpload stores the multipart file sent in the "image" field.
func (h *ImageHandler) HandleUpload(c *fiber.Ctx) error {
	claims, ok := middleware.UserInfo(c)
	if !ok {
		return respond(c, fiber.StatusUnauthorized, "Access Denied. Please login to continue", nil)
	}

	var input *services.UploadInput
	if fh, err := c.FormFile("image"); err == nil {
		file, err := fh.Open()
		if err != nil {
			return respondError(c, h.logger, err)
		}
		defer file.Close()

		input = &services.UploadInput{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Body:        file,
		}
	}

	image, err := h.imageService.Upload(c.UserContext(), input, claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return respond(c, fiber.StatusOK, "Image uploaded successfully", fiber.Map{
		"image": image,
	})
}

// HandleList returns one page of images.
func (h *ImageHandler) HandleList(c *fiber.Ctx) error {
	page, err := h.imageService.List(c.UserContext(), services.ListParams{
		Page:      c.QueryInt("page"),
		Limit:     c.QueryInt("limit"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return respond(c, fiber.StatusOK, "Images fetched successfully", fiber.Map{
		"currentPage": page.CurrentPage,
		"totalPages":  page.TotalPages,
		"totalImages": page.TotalImages,
		"images":      page.Images,
	})
}

// HandleDelete removes an image uploaded by the caller.
func (h *ImageHandler) HandleDelete(c *fiber.Ctx) error {
	claims, ok := middleware.UserInfo(c)
	if !ok {
		return respond(c, fiber.StatusUnauthorized, "Access Denied. Please login to continue", nil)
	}

	image, err := h.imageService.Delete(c.UserContext(), c.Params("id"), claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return respond(c, fiber.StatusOK, "Image deleted successfully", fiber.Map{
		"image": image,
	})
}
