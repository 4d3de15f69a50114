package repositories

import (
	"context"

	"gallery/internal/models"
)

// BookRepository defines the interface for book and author data access.
type BookRepository interface {
	GetAll(ctx context.Context) ([]models.Book, error)
	GetByID(ctx context.Context, id string) (*models.Book, error)
	// GetWithAuthor loads the book together with its linked author, if any.
	GetWithAuthor(ctx context.Context, id string) (*models.Book, error)
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id string) error
	CreateAuthor(ctx context.Context, author *models.Author) error
	GetAuthorByID(ctx context.Context, id string) (*models.Author, error)
}
