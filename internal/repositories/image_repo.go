package repositories

import (
	"context"

	"gallery/internal/models"
)

// imageSortColumns maps the sortable JSON fields of models.Image onto columns.
var imageSortColumns = map[string]string{
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
	"url":        "url",
	"publicId":   "public_id",
	"uploadedBy": "uploaded_by",
}

// IsImageSortField reports whether images can be ordered by field.
func IsImageSortField(field string) bool {
	_, ok := imageSortColumns[field]
	return ok
}

// ImageListQuery selects one page of images. SortField is a JSON field name
// accepted by IsImageSortField.
type ImageListQuery struct {
	Offset    int
	Limit     int
	SortField string
	Desc      bool
}

// ImageRepository defines the interface for image metadata access.
type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByID(ctx context.Context, id string) (*models.Image, error)
	List(ctx context.Context, q ImageListQuery) ([]models.Image, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}
