package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gallery/internal/apperror"
	"gallery/internal/models"
	"gallery/internal/repositories"

	"go.uber.org/zap"
)

const (
	MsgNoBooks        = "No books present."
	MsgBookNotFound   = "Book not found, please try with different book"
	MsgAuthorNotFound = "Author not found"
)

// BookService handles business logic related to books and authors.
type BookService struct {
	repo   repositories.BookRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewBookService creates a new BookService.
func NewBookService(repo repositories.BookRepository, logger *zap.Logger) *BookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// GetAllBooks retrieves all books, oldest first.
func (s *BookService) GetAllBooks(ctx context.Context) ([]models.Book, error) {
	books, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperror.NewInternalError("failed to fetch books", err)
	}
	if len(books) == 0 {
		return nil, apperror.NewNotFoundError(MsgNoBooks, nil)
	}
	return books, nil
}

// GetBookByID retrieves a single book by its ID.
func (s *BookService) GetBookByID(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.bookError(err, "failed to fetch book")
	}
	return book, nil
}

// GetBookWithAuthor retrieves a book together with its linked author.
func (s *BookService) GetBookWithAuthor(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.repo.GetWithAuthor(ctx, id)
	if err != nil {
		return nil, s.bookError(err, "failed to fetch book")
	}
	return book, nil
}

// CreateBook validates the publication year and any author link, then
// stores the book.
func (s *BookService) CreateBook(ctx context.Context, book *models.Book) error {
	if err := s.checkBook(ctx, book); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return apperror.NewInternalError("failed to add book", err)
	}
	s.logger.Info("book added", zap.String("bookID", book.ID))
	return nil
}

// BookUpdate holds the fields a client may change. Nil fields are kept.
type BookUpdate struct {
	Title    *string `json:"title" validate:"omitempty,max=100"`
	Author   *string `json:"author" validate:"omitempty,max=100"`
	Year     *int    `json:"year" validate:"omitempty,gte=1000"`
	AuthorID *string `json:"authorId" validate:"omitempty,uuid"`
}

// UpdateBook applies changes to an existing book and returns the result.
func (s *BookService) UpdateBook(ctx context.Context, id string, changes BookUpdate) (*models.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.bookError(err, "failed to fetch book")
	}
	if changes.Title != nil {
		book.Title = *changes.Title
	}
	if changes.Author != nil {
		book.Author = *changes.Author
	}
	if changes.Year != nil {
		book.Year = *changes.Year
	}
	if changes.AuthorID != nil {
		book.AuthorID = changes.AuthorID
	}
	if book.Title == "" || book.Author == "" {
		return nil, apperror.NewBadRequestError("Book title and author are required", nil)
	}
	if err := s.checkBook(ctx, book); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, book); err != nil {
		return nil, s.bookError(err, "failed to update book")
	}
	return book, nil
}

// DeleteBook deletes a book and returns what was removed.
func (s *BookService) DeleteBook(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.bookError(err, "failed to fetch book")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, s.bookError(err, "failed to delete book")
	}
	return book, nil
}

// CreateAuthor stores a new author.
func (s *BookService) CreateAuthor(ctx context.Context, author *models.Author) error {
	if err := s.repo.CreateAuthor(ctx, author); err != nil {
		return apperror.NewInternalError("failed to create author", err)
	}
	return nil
}

func (s *BookService) checkBook(ctx context.Context, book *models.Book) error {
	if year := s.now().Year(); book.Year < 1000 || book.Year > year {
		return apperror.NewBadRequestError(fmt.Sprintf("Invalid year, must be between 1000 and %d", year), nil)
	}
	if book.AuthorID == nil {
		return nil
	}
	if _, err := s.repo.GetAuthorByID(ctx, *book.AuthorID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NewBadRequestError(MsgAuthorNotFound, nil)
		}
		return apperror.NewInternalError("failed to fetch author", err)
	}
	return nil
}

func (s *BookService) bookError(err error, msg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NewNotFoundError(MsgBookNotFound, nil)
	}
	return apperror.NewInternalError(msg, err)
}
