package repositories

import (
	"context"
	"fmt"

	"gallery/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// CreateBatch inserts all products in one statement.
func (r *GORMProductRepository) CreateBatch(ctx context.Context, products []models.Product) error {
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = uuid.New().String()
		}
	}
	if err := r.db.WithContext(ctx).Create(&products).Error; err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}
	return nil
}

func (r *GORMProductRepository) CategoryStats(ctx context.Context, minPrice float64) ([]models.CategoryStat, error) {
	var stats []models.CategoryStat
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("category, AVG(price) AS avg_price, COUNT(*) AS count").
		Where("in_stock = ? AND price >= ?", true, minPrice).
		Group("category").
		Order("category").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate product stats: %w", err)
	}
	return stats, nil
}

func (r *GORMProductRepository) PriceAnalysis(ctx context.Context, category string) (*models.PriceAnalysis, error) {
	var row struct {
		Count           int64
		TotalRevenue    float64
		AvgPrice        float64
		MaxProductPrice float64
		MinProductPrice float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("COUNT(*) AS count, COALESCE(SUM(price), 0) AS total_revenue, COALESCE(AVG(price), 0) AS avg_price, " +
			"COALESCE(MAX(price), 0) AS max_product_price, COALESCE(MIN(price), 0) AS min_product_price").
		Where("category = ?", category).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to analyse %s prices: %w", category, err)
	}
	if row.Count == 0 {
		return nil, fmt.Errorf("products in category %s: %w", category, ErrNotFound)
	}
	return &models.PriceAnalysis{
		TotalRevenue:    row.TotalRevenue,
		AvgPrice:        row.AvgPrice,
		MaxProductPrice: row.MaxProductPrice,
		MinProductPrice: row.MinProductPrice,
		PriceRange:      row.MaxProductPrice - row.MinProductPrice,
	}, nil
}
