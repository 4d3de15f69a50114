package handlers

import (
	"fmt"

	"gallery/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for product analytics.
type ProductHandler struct {
	productService *services.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/add", h.InsertSampleProducts)
	productRoutes.Get("/stats", h.GetProductStats)
	productRoutes.Get("/analysis", h.GetProductAnalysis)
}

// InsertSampleProducts handles POST /products/add
func (h *ProductHandler) InsertSampleProducts(c *fiber.Ctx) error {
	n, err := h.productService.InsertSampleProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Sample products inserted", fiber.Map{
		"data": fmt.Sprintf("Inserted %d sample products", n),
	})
}

// GetProductStats handles GET /products/stats
func (h *ProductHandler) GetProductStats(c *fiber.Ctx) error {
	stats, err := h.productService.ProductStats(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Product stats fetched", fiber.Map{"data": stats})
}

// GetProductAnalysis handles GET /products/analysis
func (h *ProductHandler) GetProductAnalysis(c *fiber.Ctx) error {
	analysis, err := h.productService.ProductAnalysis(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Product analysis fetched", fiber.Map{"data": analysis})
}
