package handlers

import (
	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/response"
	"pustaka-desk/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// CirculationHandler exposes the desk flows. Each request blocks until the
// librarian answers the confirmation dialog (see /dialogs).
type CirculationHandler struct {
	circulation *services.CirculationService
}

// NewCirculationHandler creates a new circulation handler
func NewCirculationHandler(circulation *services.CirculationService) *CirculationHandler {
	return &CirculationHandler{circulation: circulation}
}

// Checkout borrows a cart of books for one member
// @Summary Desk checkout
// @Description Asks for confirmation, then borrows every book in the cart
// @Tags Circulation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CheckoutInput true "Cart"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /circulation/checkout [post]
func (h *CirculationHandler) Checkout(c *fiber.Ctx) error {
	var req services.CheckoutInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.ValidationFailed(c, validation.Fields(err))
	}

	result, err := h.circulation.Checkout(c.UserContext(), req)
	if err != nil {
		return fail(c, err, "Gagal memproses peminjaman")
	}
	return response.Created(c, "Peminjaman berhasil diproses!", result)
}

// CheckIn returns a loan after confirmation
// @Summary Desk check-in
// @Tags Circulation
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /circulation/checkin/{id} [post]
func (h *CirculationHandler) CheckIn(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	receipt, err := h.circulation.CheckIn(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Gagal mengembalikan buku")
	}
	return response.Success(c, "Buku berhasil dikembalikan!", receipt)
}

// RemoveMember deactivates a member after confirmation
// @Summary Remove member (confirmed)
// @Tags Circulation
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Router /circulation/members/{id} [delete]
func (h *CirculationHandler) RemoveMember(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	if err := h.circulation.RemoveMember(c.UserContext(), id); err != nil {
		return fail(c, err, "Failed to remove member")
	}
	return response.Success(c, "Anggota berhasil dinonaktifkan", nil)
}

// ResetDatabase wipes circulation data after an explicit confirmation
// @Summary Reset database (confirmed)
// @Tags Circulation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /circulation/reset [post]
func (h *CirculationHandler) ResetDatabase(c *fiber.Ctx) error {
	if err := h.circulation.ResetDatabase(c.UserContext()); err != nil {
		return fail(c, err, "Failed to reset database")
	}
	return response.Success(c, "Database berhasil direset", nil)
}
