package handlers

import (
	"errors"

	"pustaka-desk/internal/adapters/bridge"
	"pustaka-desk/internal/core/domain"
	"pustaka-desk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// InvokeHandler serves the desk UI's command bridge
type InvokeHandler struct {
	dispatcher *bridge.Dispatcher
}

// NewInvokeHandler creates a new invoke handler
func NewInvokeHandler(dispatcher *bridge.Dispatcher) *InvokeHandler {
	return &InvokeHandler{dispatcher: dispatcher}
}

// Invoke runs one named command with a JSON argument object
// @Summary Invoke a desk command
// @Description Typed command bridge. The body is the command's argument object.
// @Tags Bridge
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param command path string true "Command name, e.g. borrow_book"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /invoke/{command} [post]
func (h *InvokeHandler) Invoke(c *fiber.Ctx) error {
	cmd := bridge.Command(c.Params("command"))
	if h.dispatcher.IsAdminOnly(cmd) {
		if role, _ := c.Locals("role").(string); role != string(domain.RoleAdmin) {
			return response.Forbidden(c, "Anda tidak memiliki akses ke fitur ini")
		}
	}

	result, err := h.dispatcher.Invoke(c.UserContext(), cmd, c.Body())
	if err != nil {
		switch {
		case errors.Is(err, bridge.ErrUnknownCommand):
			return response.NotFound(c, err.Error())
		case errors.Is(err, bridge.ErrBadArguments):
			return response.BadRequest(c, err.Error())
		}
		return fail(c, err, "Command failed")
	}
	return response.Success(c, string(cmd), result)
}
