package handlers

import (
	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	books *services.BookService
	loans *services.LoanService
}

// NewBookHandler creates a new book handler
func NewBookHandler(books *services.BookService, loans *services.LoanService) *BookHandler {
	return &BookHandler{books: books, loans: loans}
}

// List returns every book in the catalog
// @Summary List books
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	books, err := h.books.List(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to list books")
	}
	return response.Success(c, "Books retrieved successfully", books)
}

// Get returns one book
// @Summary Get book
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	book, err := h.books.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to get book")
	}
	return response.Success(c, "Book retrieved successfully", book)
}

// FindByCode looks a book up by ISBN or barcode for the checkout cart
// @Summary Find book by ISBN or barcode
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param code path string true "ISBN or barcode"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/code/{code} [get]
func (h *BookHandler) FindByCode(c *fiber.Ctx) error {
	book, err := h.books.FindByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return fail(c, err, "Failed to find book")
	}
	return response.Success(c, "Book found", book)
}

// Create adds a book
// @Summary Add book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.BookInput true "Book"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req services.BookInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	book, err := h.books.Add(c.UserContext(), req)
	if err != nil {
		return fail(c, err, "Failed to add book")
	}
	return response.Created(c, "Buku berhasil ditambahkan", book)
}

// Update edits a book
// @Summary Update book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body services.BookInput true "Book"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	var req services.BookInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	book, err := h.books.Update(c.UserContext(), id, req)
	if err != nil {
		return fail(c, err, "Failed to update book")
	}
	return response.Success(c, "Buku berhasil diperbarui", book)
}

// Delete soft-deletes a book
// @Summary Delete book
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	if err := h.books.Delete(c.UserContext(), id); err != nil {
		return fail(c, err, "Failed to delete book")
	}
	return response.Success(c, "Buku berhasil dihapus", nil)
}

// Borrowers lists who currently holds copies of a book
// @Summary Book borrowers
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Router /books/{id}/borrowers [get]
func (h *BookHandler) Borrowers(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	rows, err := h.loans.BookBorrowers(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to get borrowers")
	}
	return response.Success(c, "Borrowers retrieved successfully", rows)
}

// LoanCountYear counts loans of a book over the last year
// @Summary Book loan count (1 year)
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Router /books/{id}/loan-count [get]
func (h *BookHandler) LoanCountYear(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	count, err := h.loans.BookLoanCountYear(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to count loans")
	}
	return response.Success(c, "Loan count retrieved", fiber.Map{"count": count})
}
