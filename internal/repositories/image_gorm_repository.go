package repositories

import (
	"context"
	"errors"
	"fmt"

	"gallery/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMImageRepository is a GORM implementation of ImageRepository.
type GORMImageRepository struct {
	db *gorm.DB
}

// NewGORMImageRepository creates a new instance of GORMImageRepository.
func NewGORMImageRepository(db *gorm.DB) *GORMImageRepository {
	return &GORMImageRepository{
		db: db,
	}
}

// Create stores a new image record.
func (r *GORMImageRepository) Create(ctx context.Context, image *models.Image) error {
	if image.ID == "" {
		image.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("image with public ID %s: %w", image.PublicID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create image: %w", err)
	}
	return nil
}

// GetByID retrieves a single image by its ID.
func (r *GORMImageRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	var image models.Image
	if err := r.db.WithContext(ctx).First(&image, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("image with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get image by ID %s: %w", id, err)
	}
	return &image, nil
}

// List returns one ordered page of images. Ties are broken by ID so pages
// never overlap.
func (r *GORMImageRepository) List(ctx context.Context, q ImageListQuery) ([]models.Image, error) {
	column, ok := imageSortColumns[q.SortField]
	if !ok {
		return nil, fmt.Errorf("unsupported image sort field %q", q.SortField)
	}

	var images []models.Image
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: q.Desc}).
		Order("id").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

// Count returns the total number of stored images.
func (r *GORMImageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Image{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}

// Delete deletes an image record by its ID.
func (r *GORMImageRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Image{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("image with ID %s: %w", id, ErrNotFound)
	}
	return nil
}
