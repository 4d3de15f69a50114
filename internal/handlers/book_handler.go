package handlers

import (
	"gallery/internal/models"
	"gallery/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BookHandler handles HTTP requests for the book store.
type BookHandler struct {
	bookService *services.BookService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(bookService *services.BookService, logger *zap.Logger) *BookHandler {
	return &BookHandler{
		bookService: bookService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes registers the book routes with the Fiber app.
func (h *BookHandler) RegisterRoutes(router fiber.Router) {
	bookRoutes := router.Group("/books")
	bookRoutes.Get("/books", h.GetAllBooks)
	bookRoutes.Get("/book/:id", h.GetBookByID)
	bookRoutes.Post("/add", h.CreateBook)
	bookRoutes.Put("/update/:id", h.UpdateBook)
	bookRoutes.Delete("/delete/:id", h.DeleteBook)
	bookRoutes.Post("/author", h.CreateAuthor)
	bookRoutes.Get("/getbook/:id", h.GetBookWithAuthor)
}

// GetAllBooks handles GET /books/books
func (h *BookHandler) GetAllBooks(c *fiber.Ctx) error {
	books, err := h.bookService.GetAllBooks(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Books fetched successfully.", fiber.Map{"data": books})
}

// GetBookByID handles GET /books/book/:id
func (h *BookHandler) GetBookByID(c *fiber.Ctx) error {
	book, err := h.bookService.GetBookByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Book found", fiber.Map{"data": book})
}

// GetBookWithAuthor handles GET /books/getbook/:id
func (h *BookHandler) GetBookWithAuthor(c *fiber.Ctx) error {
	book, err := h.bookService.GetBookWithAuthor(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Book found", fiber.Map{"data": book})
}

// CreateBook handles POST /books/add
func (h *BookHandler) CreateBook(c *fiber.Ctx) error {
	var book models.Book
	if handled, err := parseBody(c, h.validate, &book); handled {
		return err
	}
	book.ID = ""
	book.AuthorDetails = nil

	if err := h.bookService.CreateBook(c.UserContext(), &book); err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusCreated, "Book added successfully", fiber.Map{"data": book})
}

// UpdateBook handles PUT /books/update/:id
func (h *BookHandler) UpdateBook(c *fiber.Ctx) error {
	var changes services.BookUpdate
	if handled, err := parseBody(c, h.validate, &changes); handled {
		return err
	}

	book, err := h.bookService.UpdateBook(c.UserContext(), c.Params("id"), changes)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Book updated successfully", fiber.Map{"data": book})
}

// DeleteBook handles DELETE /books/delete/:id
func (h *BookHandler) DeleteBook(c *fiber.Ctx) error {
	book, err := h.bookService.DeleteBook(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Book deleted successfully", fiber.Map{"data": book})
}

// CreateAuthor handles POST /books/author
func (h *BookHandler) CreateAuthor(c *fiber.Ctx) error {
	var author models.Author
	if handled, err := parseBody(c, h.validate, &author); handled {
		return err
	}
	author.ID = ""

	if err := h.bookService.CreateAuthor(c.UserContext(), &author); err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusCreated, "Author created successfully", fiber.Map{"data": author})
}
