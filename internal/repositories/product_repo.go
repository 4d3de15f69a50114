package repositories

import (
	"context"

	"gallery/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	CreateBatch(ctx context.Context, products []models.Product) error
	// CategoryStats groups in-stock products priced at or above minPrice.
	CategoryStats(ctx context.Context, minPrice float64) ([]models.CategoryStat, error)
	// PriceAnalysis summarises prices within one category. It returns
	// ErrNotFound when the category has no products.
	PriceAnalysis(ctx context.Context, category string) (*models.PriceAnalysis, error)
}
