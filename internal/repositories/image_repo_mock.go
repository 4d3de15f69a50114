package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gallery/internal/models"

	"github.com/google/uuid"
)

// MockImageRepository is an in-memory implementation of ImageRepository.
type MockImageRepository struct {
	images map[string]models.Image
	mu     sync.RWMutex
}

// NewMockImageRepository creates a new instance of MockImageRepository.
func NewMockImageRepository() *MockImageRepository {
	return &MockImageRepository{
		images: make(map[string]models.Image),
	}
}

// Create adds a new image.
func (r *MockImageRepository) Create(_ context.Context, image *models.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if image.ID == "" {
		image.ID = uuid.New().String()
	}
	for _, existing := range r.images {
		if existing.PublicID == image.PublicID {
			return fmt.Errorf("image with public ID %s: %w", image.PublicID, ErrDuplicate)
		}
	}
	now := time.Now()
	if image.CreatedAt.IsZero() {
		image.CreatedAt = now
	}
	image.UpdatedAt = now
	r.images[image.ID] = *image
	return nil
}

// GetByID returns an image by its ID.
func (r *MockImageRepository) GetByID(_ context.Context, id string) (*models.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	image, ok := r.images[id]
	if !ok {
		return nil, fmt.Errorf("image with ID %s: %w", id, ErrNotFound)
	}
	return &image, nil
}

// List returns one ordered page of images.
func (r *MockImageRepository) List(_ context.Context, q ImageListQuery) ([]models.Image, error) {
	if !IsImageSortField(q.SortField) {
		return nil, fmt.Errorf("unsupported image sort field %q", q.SortField)
	}

	r.mu.RLock()
	all := make([]models.Image, 0, len(r.images))
	for _, image := range r.images {
		all = append(all, image)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		c := compareImages(all[i], all[j], q.SortField)
		if c == 0 {
			return all[i].ID < all[j].ID
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})

	if q.Offset >= len(all) {
		return []models.Image{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[q.Offset:end], nil
}

// Count returns the number of stored images.
func (r *MockImageRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.images)), nil
}

// Delete removes an image by its ID.
func (r *MockImageRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.images[id]; !ok {
		return fmt.Errorf("image with ID %s: %w", id, ErrNotFound)
	}
	delete(r.images, id)
	return nil
}

func compareImages(a, b models.Image, field string) int {
	switch field {
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "url":
		return strings.Compare(a.URL, b.URL)
	case "publicId":
		return strings.Compare(a.PublicID, b.PublicID)
	default:
		return strings.Compare(a.UploadedBy, b.UploadedBy)
	}
}
