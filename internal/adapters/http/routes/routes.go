package routes

import (
	"time"

	"pustaka-desk/internal/adapters/bridge"
	"pustaka-desk/internal/adapters/http/handlers"
	"pustaka-desk/internal/adapters/http/middleware"
	"pustaka-desk/internal/config"
	"pustaka-desk/internal/core/dialog"
	"pustaka-desk/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Deps are the services the HTTP layer exposes
type Deps struct {
	Config      *config.Config
	HealthCheck func() error

	Auth        *services.AuthService
	Users       *services.UserService
	Books       *services.BookService
	Members     *services.MemberService
	Loans       *services.LoanService
	Circulation *services.CirculationService
	Dashboard   *services.DashboardService
	Settings    *services.SettingsService

	Dialogs *dialog.Coordinator
	Hub     *services.EventHub
}

type handlerSet struct {
	health      *handlers.HealthHandler
	auth        *handlers.AuthHandler
	user        *handlers.UserHandler
	book        *handlers.BookHandler
	member      *handlers.MemberHandler
	loan        *handlers.LoanHandler
	circulation *handlers.CirculationHandler
	dashboard   *handlers.DashboardHandler
	settings    *handlers.SettingsHandler
	dialog      *handlers.DialogHandler
	invoke      *handlers.InvokeHandler
}

// NewDispatcher builds the command bridge over the same services
func NewDispatcher(d Deps) *bridge.Dispatcher {
	var opts []bridge.Option
	if d.Config.Dialog.ReportErrors {
		opts = append(opts, bridge.WithErrorAlerts(d.Dialogs))
	}
	return bridge.New(bridge.Deps{
		Catalog:   d.Books,
		Members:   d.Members,
		Loans:     d.Loans,
		Dashboard: d.Dashboard,
		Settings:  d.Settings,
		Accounts: struct {
			*services.AuthService
			*services.UserService
		}{d.Auth, d.Users},
		Resetter: d.Circulation,
	}, opts...)
}

// Setup configures all routes for the application
func Setup(app *fiber.App, d Deps) {
	h := handlerSet{
		health:      handlers.NewHealthHandler(d.HealthCheck),
		auth:        handlers.NewAuthHandler(d.Auth, d.Config),
		user:        handlers.NewUserHandler(d.Users),
		book:        handlers.NewBookHandler(d.Books, d.Loans),
		member:      handlers.NewMemberHandler(d.Members, d.Loans),
		loan:        handlers.NewLoanHandler(d.Loans),
		circulation: handlers.NewCirculationHandler(d.Circulation),
		dashboard:   handlers.NewDashboardHandler(d.Dashboard),
		settings:    handlers.NewSettingsHandler(d.Settings),
		dialog:      handlers.NewDialogHandler(d.Dialogs, d.Hub),
		invoke:      handlers.NewInvokeHandler(NewDispatcher(d)),
	}

	// Health check & root routes
	app.Get("/", h.health.Root)
	app.Get("/health", h.health.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	setupAPIV1Routes(app.Group("/api/v1"), h, d.Config)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(router fiber.Router, h handlerSet, cfg *config.Config) {
	router.Get("/", middleware.CacheControl(5*time.Minute), h.health.APIInfo)

	auth := middleware.AuthMiddleware(cfg)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", middleware.AuthRateLimiter(), h.auth.Login)
	authRoutes.Post("/refresh", h.auth.RefreshToken)
	authRoutes.Post("/logout", h.auth.Logout)
	authRoutes.Post("/logout-all", auth, h.auth.LogoutAll)

	// Command bridge. login and get_app_version run anonymously.
	router.Post("/invoke/:command", middleware.OptionalAuth(cfg), middleware.NoCacheHeaders(), h.invoke.Invoke)

	// Everything below needs a signed-in librarian
	staff := func(prefix string, extra ...fiber.Handler) fiber.Router {
		return router.Group(prefix, append([]fiber.Handler{auth, middleware.StaffOnly()}, extra...)...)
	}

	profile := staff("/profile", middleware.NoCacheHeaders())
	profile.Get("/", h.user.GetProfile)
	profile.Put("/", h.user.UpdateProfile)
	profile.Put("/password", middleware.StrictRateLimiter(), h.user.ChangePassword)

	setupBookRoutes(staff("/books"), h.book)
	setupMemberRoutes(staff("/members"), h.member)
	setupLoanRoutes(staff("/loans"), h.loan)

	circulation := staff("/circulation")
	circulation.Post("/checkout", h.circulation.Checkout)
	circulation.Post("/checkin/:id", h.circulation.CheckIn)
	circulation.Delete("/members/:id", h.circulation.RemoveMember)
	circulation.Post("/reset", middleware.AdminOnly(), middleware.StrictRateLimiter(), h.circulation.ResetDatabase)

	dashboard := staff("/dashboard", middleware.PrivateCacheHeaders(30*time.Second))
	dashboard.Get("/", h.dashboard.Overview)
	dashboard.Get("/stats", h.dashboard.Stats)
	dashboard.Get("/activity", h.dashboard.RecentActivity)
	dashboard.Get("/weekly", h.dashboard.Weekly)
	dashboard.Get("/categories", h.dashboard.Categories)
	dashboard.Get("/most-borrowed", h.dashboard.MostBorrowed)
	dashboard.Get("/members", h.dashboard.MemberActivity)
	dashboard.Get("/new-members", h.dashboard.MonthlyNewMembers)

	settings := staff("/settings")
	settings.Get("/", h.settings.Get)
	settings.Get("/version", h.settings.Version)
	settings.Put("/", middleware.AdminOnly(), h.settings.Update)
	settings.Post("/backup", middleware.AdminOnly(), h.settings.Backup)
	settings.Get("/audit", middleware.AdminOnly(), h.settings.AuditLog)

	dialogs := staff("/dialogs", middleware.NoCacheHeaders())
	dialogs.Get("/current", h.dialog.Current)
	dialogs.Get("/stream", h.dialog.Stream)
	dialogs.Post("/:id/respond", h.dialog.Respond)
}

func setupBookRoutes(router fiber.Router, h *handlers.BookHandler) {
	router.Get("/", h.List)
	router.Get("/code/:code", h.FindByCode)
	router.Get("/:id", h.Get)
	router.Get("/:id/borrowers", h.Borrowers)
	router.Get("/:id/loan-count", h.LoanCountYear)
	router.Post("/", h.Create)
	router.Put("/:id", h.Update)
	router.Delete("/:id", h.Delete)
}

func setupMemberRoutes(router fiber.Router, h *handlers.MemberHandler) {
	router.Get("/", h.List)
	router.Get("/next-code", h.GenerateCode)
	router.Get("/code/:code", h.FindByCode)
	router.Get("/:id", h.Get)
	router.Get("/:id/stats", h.Stats)
	router.Get("/:id/loans", h.Loans)
	router.Get("/:id/history", h.History)
	router.Get("/:id/active-count", h.ActiveCount)
	router.Post("/", h.Create)
	router.Put("/:id", h.Update)
	router.Delete("/:id", h.Delete)
}

func setupLoanRoutes(router fiber.Router, h *handlers.LoanHandler) {
	router.Post("/", h.Borrow)
	router.Get("/active", h.Active)
	router.Get("/overdue", h.Overdue)
	router.Get("/returns", h.RecentReturns)
	router.Post("/:id/return", h.Return)
}
