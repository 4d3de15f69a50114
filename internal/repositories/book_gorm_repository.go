package repositories

import (
	"context"
	"errors"
	"fmt"

	"gallery/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMBookRepository is a GORM implementation of BookRepository.
type GORMBookRepository struct {
	db *gorm.DB
}

// NewGORMBookRepository creates a new instance of GORMBookRepository.
func NewGORMBookRepository(db *gorm.DB) *GORMBookRepository {
	return &GORMBookRepository{
		db: db,
	}
}

// GetAll retrieves all books from the database.
func (r *GORMBookRepository) GetAll(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := r.db.WithContext(ctx).Order("created_at").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to get all books: %w", err)
	}
	return books, nil
}

// GetByID retrieves a single book by its ID from the database.
func (r *GORMBookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	return r.first(ctx, r.db.WithContext(ctx), id)
}

func (r *GORMBookRepository) GetWithAuthor(ctx context.Context, id string) (*models.Book, error) {
	return r.first(ctx, r.db.WithContext(ctx).Preload("AuthorDetails"), id)
}

// Create creates a new book in the database.
func (r *GORMBookRepository) Create(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("AuthorDetails").Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// Update updates an existing book in the database.
func (r *GORMBookRepository) Update(ctx context.Context, book *models.Book) error {
	res := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", book.ID).
		Select("Title", "Author", "Year", "AuthorID").
		Updates(book)
	if res.Error != nil {
		return fmt.Errorf("failed to update book: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("book with ID %s: %w", book.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a book by its ID from the database.
func (r *GORMBookRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete book: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("book with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMBookRepository) CreateAuthor(ctx context.Context, author *models.Author) error {
	if author.ID == "" {
		author.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(author).Error; err != nil {
		return fmt.Errorf("failed to create author: %w", err)
	}
	return nil
}

func (r *GORMBookRepository) GetAuthorByID(ctx context.Context, id string) (*models.Author, error) {
	var author models.Author
	if err := r.db.WithContext(ctx).First(&author, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("author with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get author by ID %s: %w", id, err)
	}
	return &author, nil
}

func (r *GORMBookRepository) first(_ context.Context, tx *gorm.DB, id string) (*models.Book, error) {
	var book models.Book
	if err := tx.First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("book with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get book by ID %s: %w", id, err)
	}
	return &book, nil
}
