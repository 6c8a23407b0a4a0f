package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"pustaka-desk/internal/adapters/http/middleware"
	"pustaka-desk/internal/adapters/http/routes"
	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/adapters/persistence/repositories"
	"pustaka-desk/internal/config"
	"pustaka-desk/internal/core/dialog"
	"pustaka-desk/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "pustaka-desk/docs" // Swagger docs
)

// @title Pustaka Desk API
// @version 1.0.0
// @description Library circulation desk backend with alert/confirm dialog coordination

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	if err := config.NewSeeder(db, cfg).Run(); err != nil {
		log.Fatalf("❌ Failed to seed database: %v", err)
	}

	// Dialogs are pushed to desk clients through the event hub
	hub := services.NewEventHub()
	dialogs := dialog.New(dialog.WithObserver(hub.DialogObserver()))
	defer dialogs.Close()

	// Repositories & services
	repos := repositories.NewRepos(db)
	uow := repositories.NewUnitOfWork(db)
	refreshTokens := repositories.NewRefreshTokenRepository(db)

	loanService := services.NewLoanService(uow, repos, services.DefaultRules(cfg.Library), hub)
	bookService := services.NewBookService(uow, repos)
	memberService := services.NewMemberService(uow, repos)
	settingsService := services.NewSettingsService(uow, repos, cfg)

	deps := routes.Deps{
		Config:      cfg,
		HealthCheck: config.HealthCheck,
		Auth:        services.NewAuthService(repos.Users, refreshTokens, cfg),
		Users:       services.NewUserService(repos.Users, refreshTokens),
		Books:       bookService,
		Members:     memberService,
		Loans:       loanService,
		Circulation: services.NewCirculationService(loanService, bookService, memberService, settingsService, dialogs, cfg.Dialog.Timeout),
		Dashboard:   services.NewDashboardService(repos),
		Settings:    settingsService,
		Dialogs:     dialogs,
		Hub:         hub,
	}

	// Overdue scan and refresh-token cleanup
	cronService := services.NewCronService(loanService, refreshTokens, hub, cfg.Cron)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Pustaka Desk API " + config.AppVersion,
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg)
	routes.Setup(app, deps)

	go gracefulShutdown(app, dialogs)

	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown releases workflows blocked on a dialog, then stops
// the server.
func gracefulShutdown(app *fiber.App, dialogs *dialog.Coordinator) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	dialogs.Close()
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
