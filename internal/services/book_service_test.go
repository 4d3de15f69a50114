package services_test

import (
	"context"
	"testing"
	"time"

	"gallery/internal/apperror"
	"gallery/internal/models"
	"gallery/internal/repositories"
	"gallery/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookRepository is a mock implementation of repositories.BookRepository
type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) GetAll(ctx context.Context) ([]models.Book, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Book), args.Error(1)
}

func (m *MockBookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookRepository) GetWithAuthor(ctx context.Context, id string) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookRepository) Create(ctx context.Context, book *models.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *MockBookRepository) Update(ctx context.Context, book *models.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *MockBookRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookRepository) CreateAuthor(ctx context.Context, author *models.Author) error {
	return m.Called(ctx, author).Error(0)
}

func (m *MockBookRepository) GetAuthorByID(ctx context.Context, id string) (*models.Author, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Author), args.Error(1)
}

func TestBookService_GetAllBooks(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBookRepository)
	bookService := services.NewBookService(mockRepo, nil)

	mockRepo.On("GetAll", ctx).Return([]models.Book{}, nil).Once()
	_, err := bookService.GetAllBooks(ctx)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, services.MsgNoBooks, err.Error())

	mockRepo.On("GetAll", ctx).Return([]models.Book{{ID: "b1", Title: "Dune"}}, nil).Once()
	books, err := bookService.GetAllBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
	mockRepo.AssertExpectations(t)
}

func TestBookService_CreateBook(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBookRepository)
	bookService := services.NewBookService(mockRepo, nil)

	// Test a year in the future is rejected
	future := &models.Book{Title: "Tomorrow", Author: "Someone", Year: time.Now().Year() + 1}
	err := bookService.CreateBook(ctx, future)
	assert.True(t, apperror.IsBadRequest(err))

	// Test an unknown author link is rejected
	missing := "7f9c2ba4-e88f-11ee-9e0c-0242ac120002"
	mockRepo.On("GetAuthorByID", ctx, missing).Return(nil, repositories.ErrNotFound).Once()
	err = bookService.CreateBook(ctx, &models.Book{Title: "Dune", Author: "Herbert", Year: 1965, AuthorID: &missing})
	assert.True(t, apperror.IsBadRequest(err))
	assert.Equal(t, services.MsgAuthorNotFound, err.Error())

	// Test successful creation
	book := &models.Book{Title: "Dune", Author: "Herbert", Year: 1965}
	mockRepo.On("Create", ctx, book).Return(nil).Once()
	assert.NoError(t, bookService.CreateBook(ctx, book))

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestBookService_UpdateBook(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBookRepository)
	bookService := services.NewBookService(mockRepo, nil)

	// Test partial update keeps untouched fields
	mockRepo.On("GetByID", ctx, "b1").Return(&models.Book{ID: "b1", Title: "Dune", Author: "Herbert", Year: 1965}, nil).Once()
	mockRepo.On("Update", ctx, mock.MatchedBy(func(b *models.Book) bool {
		return b.Title == "Dune Messiah" && b.Author == "Herbert" && b.Year == 1969
	})).Return(nil).Once()

	title, year := "Dune Messiah", 1969
	book, err := bookService.UpdateBook(ctx, "b1", services.BookUpdate{Title: &title, Year: &year})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", book.Title)

	// Test missing book
	mockRepo.On("GetByID", ctx, "nope").Return(nil, repositories.ErrNotFound).Once()
	_, err = bookService.UpdateBook(ctx, "nope", services.BookUpdate{Title: &title})
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, services.MsgBookNotFound, err.Error())

	mockRepo.AssertExpectations(t)
}

func TestBookService_DeleteBook(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBookRepository)
	bookService := services.NewBookService(mockRepo, nil)

	mockRepo.On("GetByID", ctx, "b1").Return(&models.Book{ID: "b1", Title: "Dune"}, nil).Once()
	mockRepo.On("Delete", ctx, "b1").Return(nil).Once()
	deleted, err := bookService.DeleteBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", deleted.Title)

	mockRepo.On("GetByID", ctx, "b1").Return(nil, repositories.ErrNotFound).Once()
	_, err = bookService.DeleteBook(ctx, "b1")
	assert.True(t, apperror.IsNotFound(err))

	mockRepo.AssertExpectations(t)
}
