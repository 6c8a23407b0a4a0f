package handlers

import (
	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/pagination"
	"pustaka-desk/internal/pkg/response"
	"pustaka-desk/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// SettingsHandler handles settings and maintenance endpoints
type SettingsHandler struct {
	settings *services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get returns every setting, loan rules included
// @Summary Get settings
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /settings [get]
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.settings.GetSettings(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to get settings")
	}
	return response.Success(c, "Settings retrieved", settings)
}

// Update stores one key
// @Summary Update setting
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SettingInput true "Setting"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /settings [put]
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var req services.SettingInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.ValidationFailed(c, validation.Fields(err))
	}
	if err := h.settings.UpdateSetting(c.UserContext(), req.Key, req.Value); err != nil {
		return fail(c, err, "Failed to update setting")
	}
	return response.Success(c, "Pengaturan berhasil disimpan", nil)
}

// Backup writes a JSON snapshot into the backup directory
// @Summary Backup database
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /settings/backup [post]
func (h *SettingsHandler) Backup(c *fiber.Ctx) error {
	path, err := h.settings.BackupDatabase(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to backup database")
	}
	return response.Success(c, "Backup berhasil dibuat", fiber.Map{"path": path})
}

// Version returns the application version
// @Summary App version
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Response
// @Router /settings/version [get]
func (h *SettingsHandler) Version(c *fiber.Ctx) error {
	return response.Success(c, "Version retrieved", fiber.Map{"version": h.settings.AppVersion()})
}

// AuditLog pages through audit rows, newest first
// @Summary Audit log
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Param entity query string false "book | member | loan"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Router /settings/audit [get]
func (h *SettingsHandler) AuditLog(c *fiber.Ctx) error {
	page, err := h.settings.AuditLog(c.UserContext(), c.Query("entity"), pagination.GetParams(c))
	if err != nil {
		return fail(c, err, "Failed to get audit log")
	}
	return response.Success(c, "Audit log retrieved", page)
}
