package handlers

import (
	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/response"
	"pustaka-desk/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles direct borrow/return endpoints. The desk flows that
// ask for confirmation live in CirculationHandler.
type LoanHandler struct {
	loans *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loans *services.LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

// Borrow creates a loan
// @Summary Borrow a book
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.BorrowInput true "Loan"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Borrow(c *fiber.Ctx) error {
	var req services.BorrowInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.ValidationFailed(c, validation.Fields(err))
	}

	id, err := h.loans.Borrow(c.UserContext(), req.BookID, req.MemberID, req.Days)
	if err != nil {
		return fail(c, err, "Failed to borrow book")
	}
	return response.Created(c, "Buku berhasil dipinjam", fiber.Map{"loan_id": id})
}

// Return closes a loan
// @Summary Return a book
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/return [post]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	receipt, err := h.loans.ReturnLoan(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to return book")
	}
	return response.Success(c, "Buku berhasil dikembalikan", receipt)
}

// Active lists open loans; ?q= searches by ISBN, barcode, member or loan id
// @Summary Active loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search"
// @Success 200 {object} response.Response
// @Router /loans/active [get]
func (h *LoanHandler) Active(c *fiber.Ctx) error {
	var (
		rows interface{}
		err  error
	)
	if q := c.Query("q"); q != "" {
		rows, err = h.loans.FindActive(c.UserContext(), q)
	} else {
		rows, err = h.loans.ListActive(c.UserContext())
	}
	if err != nil {
		return fail(c, err, "Failed to get active loans")
	}
	return response.Success(c, "Active loans retrieved", rows)
}

// Overdue lists loans past their due date
// @Summary Overdue loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /loans/overdue [get]
func (h *LoanHandler) Overdue(c *fiber.Ctx) error {
	rows, err := h.loans.ListOverdue(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to get overdue loans")
	}
	return response.Success(c, "Overdue loans retrieved", rows)
}

// RecentReturns lists the latest returns
// @Summary Recent returns
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Rows" default(10)
// @Success 200 {object} response.Response
// @Router /loans/returns [get]
func (h *LoanHandler) RecentReturns(c *fiber.Ctx) error {
	rows, err := h.loans.RecentReturns(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return fail(c, err, "Failed to get recent returns")
	}
	return response.Success(c, "Recent returns retrieved", rows)
}
