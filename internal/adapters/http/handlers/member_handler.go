package handlers

import (
	"context"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles member endpoints
type MemberHandler struct {
	members *services.MemberService
	loans   *services.LoanService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(members *services.MemberService, loans *services.LoanService) *MemberHandler {
	return &MemberHandler{members: members, loans: loans}
}

// List returns all members
// @Summary List members
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /members [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
	members, err := h.members.List(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to list members")
	}
	return response.Success(c, "Members retrieved successfully", members)
}

// Get returns one member
// @Summary Get member
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	member, err := h.members.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to get member")
	}
	return response.Success(c, "Member retrieved successfully", member)
}

// FindByCode looks a member up by card code
// @Summary Find member by code
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param code path string true "Member code"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/code/{code} [get]
func (h *MemberHandler) FindByCode(c *fiber.Ctx) error {
	member, err := h.members.FindByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return fail(c, err, "Failed to find member")
	}
	return response.Success(c, "Member found", member)
}

// GenerateCode previews the next member code
// @Summary Next member code
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /members/next-code [get]
func (h *MemberHandler) GenerateCode(c *fiber.Ctx) error {
	code, err := h.members.GenerateCode(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to generate member code")
	}
	return response.Success(c, "Member code generated", fiber.Map{"member_code": code})
}

// Create adds a member
// @Summary Add member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.MemberInput true "Member"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /members [post]
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	var req services.MemberInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	member, err := h.members.Add(c.UserContext(), req)
	if err != nil {
		return fail(c, err, "Failed to add member")
	}
	return response.Created(c, "Anggota berhasil ditambahkan", member)
}

// Update edits a member
// @Summary Update member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param body body services.MemberInput true "Member"
// @Success 200 {object} response.Response
// @Router /members/{id} [put]
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	var req services.MemberInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	member, err := h.members.Update(c.UserContext(), id, req)
	if err != nil {
		return fail(c, err, "Failed to update member")
	}
	return response.Success(c, "Anggota berhasil diperbarui", member)
}

// Delete deactivates a member without asking the desk
// @Summary Deactivate member
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Router /members/{id} [delete]
func (h *MemberHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	if err := h.members.Delete(c.UserContext(), id); err != nil {
		return fail(c, err, "Failed to delete member")
	}
	return response.Success(c, "Anggota berhasil dinonaktifkan", nil)
}

// Stats returns borrowing statistics for a member
// @Summary Member stats
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Router /members/{id}/stats [get]
func (h *MemberHandler) Stats(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	stats, err := h.loans.MemberStats(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to get member stats")
	}
	return response.Success(c, "Member stats retrieved", stats)
}

// Loans returns the member's open loans
// @Summary Member active loans
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Router /members/{id}/loans [get]
func (h *MemberHandler) Loans(c *fiber.Ctx) error {
	return h.loanList(c, h.loans.MemberLoans)
}

// History returns every loan of the member
// @Summary Member borrowing history
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Router /members/{id}/history [get]
func (h *MemberHandler) History(c *fiber.Ctx) error {
	return h.loanList(c, h.loans.MemberHistory)
}

// ActiveCount returns how many books the member holds
// @Summary Member active loan count
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Router /members/{id}/active-count [get]
func (h *MemberHandler) ActiveCount(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	count, err := h.loans.MemberActiveCount(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to count loans")
	}
	return response.Success(c, "Active loan count retrieved", fiber.Map{"count": count})
}

func (h *MemberHandler) loanList(c *fiber.Ctx, load func(context.Context, uint) ([]*models.LoanDetail, error)) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	rows, err := load(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to get loans")
	}
	return response.Success(c, "Loans retrieved successfully", rows)
}
