package handlers

import (
	"context"
	"errors"
	"log"

	"pustaka-desk/internal/core/dialog"
	"pustaka-desk/internal/core/domain"
	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/response"
	"pustaka-desk/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// StatusOf maps a service error to its HTTP status
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrMemberInactive),
		errors.Is(err, domain.ErrNoCopiesAvailable),
		errors.Is(err, domain.ErrBookUnavailable),
		errors.Is(err, domain.ErrLoanLimitReached),
		errors.Is(err, domain.ErrAlreadyReturned),
		errors.Is(err, domain.ErrBookHasActiveLoans),
		errors.Is(err, domain.ErrMemberCodeExists),
		errors.Is(err, domain.ErrCancelledByUser),
		errors.Is(err, dialog.ErrDialogNotActive):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, services.ErrTokenRevoked),
		errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrUserInactive),
		errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrInvalidStock),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrOldPasswordWrong),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrInvalidSetting),
		errors.Is(err, dialog.ErrInvalidAction),
		errors.Is(err, dialog.ErrExplicitChoiceRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusRequestTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err into the response envelope. Internal errors are logged
// and replaced by fallback so driver messages never reach the client.
func fail(c *fiber.Ctx, err error, fallback string) error {
	if validation.IsValidationError(err) {
		return response.ValidationFailed(c, validation.Fields(err))
	}
	switch status := StatusOf(err); status {
	case fiber.StatusInternalServerError:
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, fallback)
	case fiber.StatusNotFound:
		return response.NotFound(c, err.Error())
	case fiber.StatusConflict:
		return response.Conflict(c, err.Error())
	default:
		return response.Error(c, status, err.Error())
	}
}

// userIDFrom reads the id set by the auth middleware
func userIDFrom(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok
}

// paramID parses a positive numeric route parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

const msgInvalidID = "ID tidak valid"
