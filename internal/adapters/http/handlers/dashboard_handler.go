package handlers

import (
	"context"

	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// Overview returns every dashboard widget in one response
// @Summary Dashboard overview
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	ctx := c.UserContext()
	s := h.dashboardService

	stats, err := s.GetStats(ctx)
	if err != nil {
		return fail(c, err, "Failed to get dashboard")
	}
	activity, err := s.RecentActivity(ctx)
	if err != nil {
		return fail(c, err, "Failed to get dashboard")
	}
	weekly, err := s.WeeklyCirculation(ctx)
	if err != nil {
		return fail(c, err, "Failed to get dashboard")
	}
	categories, err := s.PopularCategories(ctx)
	if err != nil {
		return fail(c, err, "Failed to get dashboard")
	}
	popular, err := s.MostBorrowed(ctx)
	if err != nil {
		return fail(c, err, "Failed to get dashboard")
	}
	members, err := s.MemberActivity(ctx)
	if err != nil {
		return fail(c, err, "Failed to get dashboard")
	}
	newMembers, err := s.MonthlyNewMembers(ctx)
	if err != nil {
		return fail(c, err, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", fiber.Map{
		"stats":               stats,
		"recent_activity":     activity,
		"weekly_circulation":  weekly,
		"popular_categories":  categories,
		"most_borrowed":       popular,
		"member_activity":     members,
		"monthly_new_members": newMembers,
	})
}

// widget serves a single dashboard query
func widget[T any](load func(context.Context) (T, error), message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := load(c.UserContext())
		if err != nil {
			return fail(c, err, "Failed to get dashboard data")
		}
		return response.Success(c, message, data)
	}
}

// Stats godoc
// @Summary Dashboard counters
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	return widget(h.dashboardService.GetStats, "Stats retrieved")(c)
}

// RecentActivity godoc
// @Summary Recent loans and new members
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard/activity [get]
func (h *DashboardHandler) RecentActivity(c *fiber.Ctx) error {
	return widget(h.dashboardService.RecentActivity, "Recent activity retrieved")(c)
}

// Weekly godoc
// @Summary Loans per weekday over the last 7 days
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard/weekly [get]
func (h *DashboardHandler) Weekly(c *fiber.Ctx) error {
	return widget(h.dashboardService.WeeklyCirculation, "Weekly circulation retrieved")(c)
}

// Categories godoc
// @Summary Popular categories
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard/categories [get]
func (h *DashboardHandler) Categories(c *fiber.Ctx) error {
	return widget(h.dashboardService.PopularCategories, "Popular categories retrieved")(c)
}

// MostBorrowed godoc
// @Summary Most borrowed books
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard/most-borrowed [get]
func (h *DashboardHandler) MostBorrowed(c *fiber.Ctx) error {
	return widget(h.dashboardService.MostBorrowed, "Most borrowed books retrieved")(c)
}

// MemberActivity godoc
// @Summary Member activity
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard/members [get]
func (h *DashboardHandler) MemberActivity(c *fiber.Ctx) error {
	return widget(h.dashboardService.MemberActivity, "Member activity retrieved")(c)
}

// MonthlyNewMembers godoc
// @Summary Members joined this month
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard/new-members [get]
func (h *DashboardHandler) MonthlyNewMembers(c *fiber.Ctx) error {
	return widget(h.dashboardService.MonthlyNewMembers, "Monthly new members retrieved")(c)
}
