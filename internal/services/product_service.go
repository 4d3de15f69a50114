package services

import (
	"context"
	"errors"
	"fmt"

	"gallery/internal/apperror"
	"gallery/internal/models"
	"gallery/internal/repositories"
)

const (
	// StatsMinPrice is the lowest price counted by ProductStats.
	StatsMinPrice = 100
	// AnalysisCategory is the category summarised by ProductAnalysis.
	AnalysisCategory = "Electronics"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// SampleProducts returns the catalogue inserted by InsertSampleProducts.
func SampleProducts() []models.Product {
	return []models.Product{
		{Name: "Laptop", Category: "Electronics", Price: 999, InStock: true, Tags: []string{"computer", "tech"}},
		{Name: "Smartphone", Category: "Electronics", Price: 699, InStock: true, Tags: []string{"mobile", "tech"}},
		{Name: "Headphones", Category: "Electronics", Price: 199, InStock: false, Tags: []string{"audio", "tech"}},
		{Name: "Running Shoes", Category: "Sports", Price: 89, InStock: true, Tags: []string{"footwear", "running"}},
		{Name: "Novel", Category: "Books", Price: 15, InStock: true, Tags: []string{"fiction", "bestseller"}},
	}
}

// InsertSampleProducts stores the sample catalogue and reports how many
// products were inserted.
func (s *ProductService) InsertSampleProducts(ctx context.Context) (int, error) {
	products := SampleProducts()
	if err := s.repo.CreateBatch(ctx, products); err != nil {
		return 0, apperror.NewInternalError("failed to insert sample products", err)
	}
	return len(products), nil
}

// ProductStats groups in-stock products priced at StatsMinPrice or more by
// category.
func (s *ProductService) ProductStats(ctx context.Context) ([]models.CategoryStat, error) {
	stats, err := s.repo.CategoryStats(ctx, StatsMinPrice)
	if err != nil {
		return nil, apperror.NewInternalError("failed to compute product stats", err)
	}
	return stats, nil
}

// ProductAnalysis summarises prices in AnalysisCategory.
func (s *ProductService) ProductAnalysis(ctx context.Context) (*models.PriceAnalysis, error) {
	analysis, err := s.repo.PriceAnalysis(ctx, AnalysisCategory)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("No products found in category %s", AnalysisCategory), nil)
	}
	if err != nil {
		return nil, apperror.NewInternalError("failed to analyse products", err)
	}
	return analysis, nil
}
